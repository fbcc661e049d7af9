package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type S3Client struct {
	s3     *s3.S3
	bucket string
}

func NewS3Client(region, bucket string) (*S3Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return &S3Client{
		s3:     s3.New(sess),
		bucket: bucket,
	}, nil
}

func (c *S3Client) Upload(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	_, err := c.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", mapS3Error(err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", c.bucket, name), nil
}

func mapS3Error(err error) error {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return err
	}

	switch aerr.Code() {
	case "QuotaExceeded", "ServiceQuotaExceededException", "EntityTooLarge":
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, aerr.Message())
	case "InvalidArgument", "InvalidRequest":
		return fmt.Errorf("%w: %s", ErrInvalidFormat, aerr.Message())
	}

	return err
}

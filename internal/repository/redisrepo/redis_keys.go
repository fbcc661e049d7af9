package redisrepo

import "fmt"

const (
	FEED_KEY         = "feed:snapshot:%d"  // <limit>
	AUTHOR_POSTS_KEY = "author:%s-posts"   // <authorID>
	PROFILE_KEY      = "profile:%s"        // <userID>
)

func FeedKey(limit int) string {
	return fmt.Sprintf(FEED_KEY, limit)
}

func AuthorPostsKey(authorID string) string {
	return fmt.Sprintf(AUTHOR_POSTS_KEY, authorID)
}

func ProfileKey(userID string) string {
	return fmt.Sprintf(PROFILE_KEY, userID)
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PhotoSocial/feed-client/internal/config"
	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/PhotoSocial/feed-client/internal/repository/redisrepo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostOnEmptyFeed(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	ctx := context.Background()

	posts, err := env.svc.Feed.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, posts)

	post, err := env.svc.Feed.CreatePost(ctx, "hi", "https://img/1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "post-001", post.ID)
	assert.False(t, post.Pending)

	feed := env.svc.Feed.Snapshot()
	require.Len(t, feed, 1)
	assert.Equal(t, "hi", feed[0].Caption)
	assert.Equal(t, "https://img/1", feed[0].ImageURL)
	assert.Equal(t, "u1", feed[0].AuthorID)
	assert.Equal(t, "post-001", feed[0].ID)
	assert.False(t, feed[0].Pending)

	assert.Equal(t, []dto.FeedEventType{dto.PostCreated}, env.events.types())
}

func TestCreatePostRollsBackOnRemoteFailure(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	ctx := context.Background()

	_, err := env.svc.Feed.Load(ctx)
	require.NoError(t, err)

	env.docs.failOn("post.create", errors.New("network unreachable"))

	post, err := env.svc.Feed.CreatePost(ctx, "hi", "https://img/1", "u1")
	assert.Nil(t, post)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "create", syncErr.Op)
	assert.True(t, model.IsPendingID(syncErr.PostID))

	assert.Empty(t, env.svc.Feed.Snapshot())
	assert.Empty(t, env.events.types())
}

func TestCreatePostRollbackKeepsExistingPosts(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	ctx := context.Background()

	env.docs.seedPost("p1", "u1", testEpoch.Add(-time.Hour))
	env.docs.seedPost("p2", "u2", testEpoch.Add(-2*time.Hour))

	_, err := env.svc.Feed.Load(ctx)
	require.NoError(t, err)
	before := postIDs(env.svc.Feed.Snapshot())

	env.docs.failOn("post.create", errors.New("write rejected"))

	_, err = env.svc.Feed.CreatePost(ctx, "hi", "https://img/1", "u1")
	require.Error(t, err)

	assert.Equal(t, before, postIDs(env.svc.Feed.Snapshot()))
}

func TestCreatePostValidation(t *testing.T) {
	tests := []struct {
		name     string
		caption  string
		imageURL string
		authorID string
		field    string
		wantErr  error
	}{
		{name: "empty caption", caption: "", imageURL: "https://img/1", authorID: "u1", field: "caption"},
		{name: "blank caption", caption: "  \n\t", imageURL: "https://img/1", authorID: "u1", field: "caption"},
		{name: "missing image", caption: "hi", imageURL: "", authorID: "u1", field: "image_url"},
		{name: "relative image", caption: "hi", imageURL: "img/1.png", authorID: "u1", field: "image_url"},
		{name: "non-http image", caption: "hi", imageURL: "ftp://img/1.png", authorID: "u1", field: "image_url"},
		{name: "signed out", caption: "hi", imageURL: "https://img/1", authorID: "", wantErr: ErrNotSignedIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, config.SyncConfig{})

			_, err := env.svc.Feed.CreatePost(context.Background(), tt.caption, tt.imageURL, tt.authorID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.field, validationErr.Field)
			}

			assert.Empty(t, env.svc.Feed.Snapshot())
			assert.Zero(t, env.docs.called("post.create"))
		})
	}
}

func TestCreatePostOrdering(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		env := newTestEnv(t, config.SyncConfig{})
		ctx := context.Background()

		for _, caption := range []string{"one", "two", "three"} {
			_, err := env.svc.Feed.CreatePost(ctx, caption, "https://img/"+caption, "u1")
			require.NoError(t, err)
		}

		assert.Equal(t, []string{"post-003", "post-002", "post-001"}, postIDs(env.svc.Feed.Snapshot()))
	})

	t.Run("ties by id ascending", func(t *testing.T) {
		env := newTestEnv(t, config.SyncConfig{})
		env.docs.tick = 0
		ctx := context.Background()

		for _, caption := range []string{"one", "two", "three"} {
			_, err := env.svc.Feed.CreatePost(ctx, caption, "https://img/"+caption, "u1")
			require.NoError(t, err)
		}

		posts, err := env.svc.Feed.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"post-001", "post-002", "post-003"}, postIDs(posts))
	})

	t.Run("reconciled post keeps its slot until reload", func(t *testing.T) {
		env := newTestEnv(t, config.SyncConfig{})
		ctx := context.Background()

		env.docs.seedPost("b", "u2", testEpoch.Add(time.Hour))
		env.docs.seedPost("a", "u2", testEpoch.Add(time.Hour))
		env.docs.seedPost("old", "u2", testEpoch.Add(-time.Hour))

		_, err := env.svc.Feed.Load(ctx)
		require.NoError(t, err)

		post, err := env.svc.Feed.CreatePost(ctx, "hi", "https://img/1", "u1")
		require.NoError(t, err)
		assert.Equal(t, testEpoch.Add(time.Second), post.CreatedAt)

		assert.Equal(t, []string{"post-001", "a", "b", "old"}, postIDs(env.svc.Feed.Snapshot()))

		posts, err := env.svc.Feed.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "post-001", "old"}, postIDs(posts))
	})
}

func TestCreatePostAuthorName(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	env.docs.profiles["u1"] = model.Profile{ID: "u1", DisplayName: "Ada"}

	post, err := env.svc.Feed.CreatePost(context.Background(), "hi", "https://img/1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", post.AuthorName)

	post, err = env.svc.Feed.CreatePost(context.Background(), "hi", "https://img/2", "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2", post.AuthorName)
}

func TestCreatePostTimeout(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{Timeout: 50 * time.Millisecond})
	release := env.docs.gate("post.create")
	defer release()

	_, err := env.svc.Feed.CreatePost(context.Background(), "hi", "https://img/1", "u1")

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.ErrorIs(t, err, ErrNetworkTimeout)
	assert.Empty(t, env.svc.Feed.Snapshot())
}

func TestCreatePostPlaceholderWhileInFlight(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	ctx := context.Background()
	release := env.docs.gate("post.create")

	type result struct {
		post *model.Post
		err  error
	}
	done := make(chan result, 1)
	go func() {
		post, err := env.svc.Feed.CreatePost(ctx, "hi", "https://img/1", "u1")
		done <- result{post, err}
	}()

	require.Eventually(t, func() bool {
		return len(env.svc.Feed.Snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	placeholder := env.svc.Feed.Snapshot()[0]
	assert.True(t, placeholder.Pending)
	assert.True(t, model.IsPendingID(placeholder.ID))
	assert.Equal(t, "hi", placeholder.Caption)

	_, err := env.svc.Post.Like(ctx, placeholder.ID, "u2")
	assert.ErrorIs(t, err, ErrPostPending)

	_, err = env.svc.Post.Comment(ctx, placeholder.ID, "u2", "nice")
	assert.ErrorIs(t, err, ErrPostPending)

	err = env.svc.Feed.RemovePost(ctx, placeholder.ID, "u1")
	assert.ErrorIs(t, err, ErrPostPending)

	release()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, "post-001", res.post.ID)
	case <-time.After(time.Second):
		t.Fatal("create did not settle")
	}

	feed := env.svc.Feed.Snapshot()
	require.Len(t, feed, 1)
	assert.Equal(t, "post-001", feed[0].ID)
	assert.False(t, feed[0].Pending)

	_, err = env.svc.Post.Like(ctx, placeholder.ID, "u2")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestRemovePostByNonAuthor(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	ctx := context.Background()

	env.docs.seedPost("p1", "u1", testEpoch)
	_, err := env.svc.Feed.Load(ctx)
	require.NoError(t, err)

	err = env.svc.Feed.RemovePost(ctx, "p1", "u2")

	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "u2", authErr.ActorID)
	assert.Equal(t, "p1", authErr.PostID)

	assert.Equal(t, []string{"p1"}, postIDs(env.svc.Feed.Snapshot()))
	assert.Zero(t, env.docs.called("post.delete"))
}

func TestRemovePostIsIdempotent(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	ctx := context.Background()

	env.docs.seedPost("p1", "u1", testEpoch)
	_, err := env.svc.Feed.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, env.svc.Feed.RemovePost(ctx, "p1", "u1"))
	assert.Empty(t, env.svc.Feed.Snapshot())

	_, ok := env.docs.post("p1")
	assert.False(t, ok)

	err = env.svc.Feed.RemovePost(ctx, "p1", "u1")
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Empty(t, env.svc.Feed.Snapshot())

	assert.Equal(t, []dto.FeedEventType{dto.PostDeleted}, env.events.types())
}

func TestRemovePostRollsBackOnRemoteFailure(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	ctx := context.Background()

	env.docs.seedPost("p1", "u1", testEpoch)
	env.docs.seedPost("p2", "u1", testEpoch.Add(-time.Minute))
	_, err := env.svc.Feed.Load(ctx)
	require.NoError(t, err)

	env.docs.failOn("post.delete", errors.New("permission denied"))

	err = env.svc.Feed.RemovePost(ctx, "p1", "u1")

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "remove", syncErr.Op)
	assert.Equal(t, []string{"p1", "p2"}, postIDs(env.svc.Feed.Snapshot()))
}

func TestRemovePostSignedOut(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})

	err := env.svc.Feed.RemovePost(context.Background(), "p1", "")
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestLoadHidesRemovesInFlight(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	ctx := context.Background()

	env.docs.seedPost("p1", "u1", testEpoch)
	_, err := env.svc.Feed.Load(ctx)
	require.NoError(t, err)

	release := env.docs.gate("post.delete")
	done := make(chan error, 1)
	go func() {
		done <- env.svc.Feed.RemovePost(ctx, "p1", "u1")
	}()

	require.Eventually(t, func() bool {
		return len(env.svc.Feed.Snapshot()) == 0
	}, time.Second, 5*time.Millisecond)

	posts, err := env.svc.Feed.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	release()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("remove did not settle")
	}
	assert.Empty(t, env.svc.Feed.Snapshot())
}

// reload drops the cached snapshot so Load reads the backend.
func reload(t *testing.T, env *testEnv) []model.Post {
	t.Helper()

	require.NoError(t, env.cache.Del(context.Background(), redisrepo.FeedKey(DEFAULT_FEED_LIMIT)).Err())
	posts, err := env.svc.Feed.Load(context.Background())
	require.NoError(t, err)
	return posts
}

func TestLoadKeepsLikeInFlight(t *testing.T) {
	t.Run("rolled back", func(t *testing.T) {
		env := newTestEnv(t, config.SyncConfig{})
		ctx := context.Background()

		env.docs.seedPost("p1", "u1", testEpoch)
		env.docs.likes["p1"] = map[string]bool{"u9": true}
		reload(t, env)
		require.Equal(t, int64(1), likeCount(t, env, "p1"))

		env.docs.failOn("like.create", errors.New("unavailable"))
		release := env.docs.gate("like.create")
		done := make(chan error, 1)
		go func() {
			_, err := env.svc.Post.Like(ctx, "p1", "u2")
			done <- err
		}()

		require.Eventually(t, func() bool {
			return env.docs.called("like.create") == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, int64(2), likeCount(t, env, "p1"))

		// another client likes the post while ours is in flight
		env.docs.mu.Lock()
		env.docs.likes["p1"]["u8"] = true
		env.docs.mu.Unlock()

		reload(t, env)
		assert.Equal(t, int64(3), likeCount(t, env, "p1"))

		release()

		select {
		case err := <-done:
			var syncErr *SyncError
			require.ErrorAs(t, err, &syncErr)
		case <-time.After(time.Second):
			t.Fatal("like did not settle")
		}
		assert.Equal(t, int64(2), likeCount(t, env, "p1"))
	})

	t.Run("confirmed", func(t *testing.T) {
		env := newTestEnv(t, config.SyncConfig{})
		ctx := context.Background()

		env.docs.seedPost("p1", "u1", testEpoch)
		reload(t, env)

		release := env.docs.gate("like.create")
		done := make(chan error, 1)
		go func() {
			_, err := env.svc.Post.Like(ctx, "p1", "u2")
			done <- err
		}()

		require.Eventually(t, func() bool {
			return env.docs.called("like.create") == 1
		}, time.Second, 5*time.Millisecond)

		reload(t, env)
		assert.Equal(t, int64(1), likeCount(t, env, "p1"))

		release()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("like did not settle")
		}
		assert.Equal(t, int64(1), likeCount(t, env, "p1"))

		reload(t, env)
		assert.Equal(t, int64(1), likeCount(t, env, "p1"))
	})
}

func TestLoadKeepsCommentInFlight(t *testing.T) {
	comments := func(t *testing.T, env *testEnv) []string {
		t.Helper()

		post, ok := findPost(env.svc.Feed.Snapshot(), "p1")
		require.True(t, ok)
		texts := make([]string, 0, len(post.Comments))
		for _, c := range post.Comments {
			texts = append(texts, c.Text)
		}
		return texts
	}

	t.Run("confirmed", func(t *testing.T) {
		env := newTestEnv(t, config.SyncConfig{})
		ctx := context.Background()

		env.docs.seedPost("p1", "u1", testEpoch)
		reload(t, env)

		release := env.docs.gate("comment.create")
		done := make(chan error, 1)
		go func() {
			_, err := env.svc.Post.Comment(ctx, "p1", "u2", "nice")
			done <- err
		}()

		require.Eventually(t, func() bool {
			return env.docs.called("comment.create") == 1
		}, time.Second, 5*time.Millisecond)

		reload(t, env)
		assert.Equal(t, []string{"nice"}, comments(t, env))

		release()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("comment did not settle")
		}
		assert.Equal(t, []string{"nice"}, comments(t, env))

		reload(t, env)
		assert.Equal(t, []string{"nice"}, comments(t, env))
	})

	t.Run("rolled back", func(t *testing.T) {
		env := newTestEnv(t, config.SyncConfig{})
		ctx := context.Background()

		env.docs.seedPost("p1", "u1", testEpoch)
		reload(t, env)

		env.docs.failOn("comment.create", errors.New("unavailable"))
		release := env.docs.gate("comment.create")
		done := make(chan error, 1)
		go func() {
			_, err := env.svc.Post.Comment(ctx, "p1", "u2", "lost")
			done <- err
		}()

		require.Eventually(t, func() bool {
			return env.docs.called("comment.create") == 1
		}, time.Second, 5*time.Millisecond)

		reload(t, env)
		assert.Equal(t, []string{"lost"}, comments(t, env))

		release()

		select {
		case err := <-done:
			var syncErr *SyncError
			require.ErrorAs(t, err, &syncErr)
		case <-time.After(time.Second):
			t.Fatal("comment did not settle")
		}
		assert.Empty(t, comments(t, env))
	})
}

func TestLoadUsesCache(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	ctx := context.Background()

	env.docs.seedPost("p1", "u1", testEpoch)

	posts, err := env.svc.Feed.Load(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.True(t, env.cache.has(redisrepo.FeedKey(DEFAULT_FEED_LIMIT)))

	env.docs.seedPost("p2", "u1", testEpoch.Add(time.Minute))

	posts, err = env.svc.Feed.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, postIDs(posts))
	assert.Equal(t, 1, env.docs.called("post.feed"))

	_, err = env.svc.Feed.CreatePost(ctx, "hi", "https://img/1", "u1")
	require.NoError(t, err)
	assert.False(t, env.cache.has(redisrepo.FeedKey(DEFAULT_FEED_LIMIT)))

	posts, err = env.svc.Feed.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2", "post-001"}, postIDs(posts))
}

func TestLoadFallsThroughCacheFailure(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	env.cache.err = errors.New("connection refused")

	env.docs.seedPost("p1", "u1", testEpoch)

	posts, err := env.svc.Feed.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, postIDs(posts))
}

func TestLoadRemoteFailure(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	env.docs.failOn("post.feed", errors.New("unavailable"))

	_, err := env.svc.Feed.Load(context.Background())
	assert.ErrorIs(t, err, ErrInternal)
}

func TestFeedSubscribe(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	env.docs.seedPost("p1", "u1", testEpoch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu         sync.Mutex
		deliveries [][]string
	)
	err := env.svc.Feed.Subscribe(ctx, func(posts []model.Post) {
		mu.Lock()
		defer mu.Unlock()
		deliveries = append(deliveries, postIDs(posts))
	})
	require.NoError(t, err)

	_, err = env.svc.Feed.CreatePost(context.Background(), "hi", "https://img/1", "u2")
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, [][]string{{"p1"}, {"post-001", "p1"}}, deliveries)
	mu.Unlock()

	cancel()
	require.Eventually(t, func() bool {
		return env.events.subscribers() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestFindAuthorPosts(t *testing.T) {
	env := newTestEnv(t, config.SyncConfig{})
	ctx := context.Background()

	env.docs.seedPost("p1", "u1", testEpoch)
	env.docs.seedPost("p2", "u2", testEpoch.Add(time.Minute))
	env.docs.seedPost("p3", "u1", testEpoch.Add(2*time.Minute))

	posts, err := env.svc.Feed.FindAuthorPosts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p1"}, postIDs(posts))
	assert.True(t, env.cache.has(redisrepo.AuthorPostsKey("u1")))

	posts, err = env.svc.Feed.FindAuthorPosts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p1"}, postIDs(posts))
	assert.Equal(t, 1, env.docs.called("post.author"))
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/PhotoSocial/feed-client/internal/config"
	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/PhotoSocial/feed-client/internal/repository"
	"github.com/PhotoSocial/feed-client/internal/repository/identity"
	"github.com/PhotoSocial/feed-client/internal/repository/postgres"
	"github.com/PhotoSocial/feed-client/internal/repository/redisrepo"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var testEpoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeDocs is an in-memory document store. Operations named in fail return that error;
// operations named in gates block until the gate is closed or ctx is done.
type fakeDocs struct {
	mu       sync.Mutex
	seq      int
	now      time.Time
	tick     time.Duration
	posts    map[string]*model.Post
	likes    map[string]map[string]bool
	follows  map[string]bool
	profiles map[string]model.Profile
	fail     map[string]error
	gates    map[string]chan struct{}
	calls    map[string]int
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{
		now:      testEpoch,
		tick:     time.Second,
		posts:    make(map[string]*model.Post),
		likes:    make(map[string]map[string]bool),
		follows:  make(map[string]bool),
		profiles: make(map[string]model.Profile),
		fail:     make(map[string]error),
		gates:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

func (d *fakeDocs) failOn(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fail[op] = err
}

// gate makes op block until the returned func is called.
func (d *fakeDocs) gate(op string) (release func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := make(chan struct{})
	d.gates[op] = ch
	var once sync.Once
	return func() {
		once.Do(func() { close(ch) })
	}
}

func (d *fakeDocs) called(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.calls[op]
}

func (d *fakeDocs) enter(ctx context.Context, op string) error {
	d.mu.Lock()
	d.calls[op]++
	gate := d.gates[op]
	err := d.fail[op]
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

// seedPost stores a confirmed post as if another client had created it.
func (d *fakeDocs) seedPost(id string, authorID string, createdAt time.Time) model.Post {
	d.mu.Lock()
	defer d.mu.Unlock()

	post := &model.Post{
		ID:         id,
		AuthorID:   authorID,
		AuthorName: authorID,
		Caption:    "caption of " + id,
		ImageURL:   "https://cdn.example.com/images/" + id + ".jpg",
		CreatedAt:  createdAt,
		Comments:   []model.Comment{},
	}
	d.posts[id] = post
	return post.Clone()
}

func (d *fakeDocs) post(id string) (model.Post, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	post, ok := d.posts[id]
	if !ok {
		return model.Post{}, false
	}
	return post.Clone(), true
}

func (d *fakeDocs) withCounts(post *model.Post) *model.Post {
	p := post.Clone()
	p.LikeCount = int64(len(d.likes[post.ID]))
	return &p
}

type fakePosts struct{ *fakeDocs }

func (r fakePosts) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	if err := r.enter(ctx, "post.create"); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.now = r.now.Add(r.tick)

	created := &model.Post{
		ID:         fmt.Sprintf("post-%03d", r.seq),
		AuthorID:   post.AuthorID,
		AuthorName: post.AuthorName,
		Caption:    post.Caption,
		ImageURL:   post.ImageURL,
		CreatedAt:  r.now,
		Comments:   []model.Comment{},
	}
	r.posts[created.ID] = created

	result := created.Clone()
	return &result, nil
}

func (r fakePosts) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if err := r.enter(ctx, "post.find"); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.withCounts(post), nil
}

func (r fakePosts) FindFeed(ctx context.Context, limit int) ([]*model.Post, error) {
	if err := r.enter(ctx, "post.feed"); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sorted(func(*model.Post) bool { return true }, limit), nil
}

func (r fakePosts) FindAuthorPosts(ctx context.Context, authorID string, limit int) ([]*model.Post, error) {
	if err := r.enter(ctx, "post.author"); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sorted(func(p *model.Post) bool { return p.AuthorID == authorID }, limit), nil
}

func (r fakePosts) sorted(keep func(*model.Post) bool, limit int) []*model.Post {
	posts := make([]*model.Post, 0, len(r.posts))
	for _, post := range r.posts {
		if keep(post) {
			posts = append(posts, r.withCounts(post))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].Before(*posts[j])
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}

func (r fakePosts) Delete(ctx context.Context, id string) error {
	if err := r.enter(ctx, "post.delete"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.posts, id)
	delete(r.likes, id)
	return nil
}

type fakeComments struct{ *fakeDocs }

func (r fakeComments) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	if err := r.enter(ctx, "comment.create"); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[comment.PostID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	post.Comments = append(post.Comments, comment)

	return &comment, nil
}

type fakeLikes struct{ *fakeDocs }

func (r fakeLikes) Create(ctx context.Context, postID string, userID string) (bool, error) {
	if err := r.enter(ctx, "like.create"); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.likes[postID] == nil {
		r.likes[postID] = make(map[string]bool)
	}
	if r.likes[postID][userID] {
		return false, nil
	}
	r.likes[postID][userID] = true
	return true, nil
}

func (r fakeLikes) Delete(ctx context.Context, postID string, userID string) (bool, error) {
	if err := r.enter(ctx, "like.delete"); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.likes[postID][userID] {
		return false, nil
	}
	delete(r.likes[postID], userID)
	return true, nil
}

func (r fakeLikes) Exists(ctx context.Context, postID string, userID string) (bool, error) {
	if err := r.enter(ctx, "like.exists"); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.likes[postID][userID], nil
}

func (r fakeLikes) Count(ctx context.Context, postID string) (int64, error) {
	if err := r.enter(ctx, "like.count"); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.likes[postID])), nil
}

type fakeFollows struct{ *fakeDocs }

func (r fakeFollows) Create(ctx context.Context, followerID string, followeeID string) error {
	if err := r.enter(ctx, "follow.create"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.follows[followerID+"->"+followeeID] = true
	return nil
}

func (r fakeFollows) Delete(ctx context.Context, followerID string, followeeID string) error {
	if err := r.enter(ctx, "follow.delete"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.follows, followerID+"->"+followeeID)
	return nil
}

func (r fakeFollows) Exists(ctx context.Context, followerID string, followeeID string) (bool, error) {
	if err := r.enter(ctx, "follow.exists"); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.follows[followerID+"->"+followeeID], nil
}

type fakeProfiles struct{ *fakeDocs }

func (r fakeProfiles) Create(ctx context.Context, profile model.Profile) error {
	if err := r.enter(ctx, "profile.create"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[profile.ID] = profile
	return nil
}

func (r fakeProfiles) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if err := r.enter(ctx, "profile.update"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	for field, value := range updates {
		switch field {
		case "display_name":
			profile.DisplayName, _ = value.(string)
		case "avatar_url":
			profile.AvatarURL, _ = value.(string)
		default:
			return fmt.Errorf("%w: %s", postgres.ErrFieldsNotAllowedToUpdate, field)
		}
	}
	r.profiles[id] = profile
	return nil
}

func (r fakeProfiles) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if err := r.enter(ctx, "profile.find"); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &profile, nil
}

// fakeRedis keeps JSON values without expiry.
type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values: make(map[string]string),
	}
}

func (r *fakeRedis) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.values[key] = string(data)
	return nil
}

func (r *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return redis.NewStringResult("", r.err)
	}
	value, ok := r.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (r *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, key := range keys {
		if _, ok := r.values[key]; ok {
			delete(r.values, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (r *fakeRedis) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.values[key]
	return ok
}

// fakeEvents delivers every published event to the subscribers synchronously.
type fakeEvents struct {
	mu        sync.Mutex
	published []dto.FeedEvent
	handlers  map[int]func(ctx context.Context, event dto.FeedEvent)
	nextID    int
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{
		handlers: make(map[int]func(ctx context.Context, event dto.FeedEvent)),
	}
}

func (e *fakeEvents) Publish(ctx context.Context, event dto.FeedEvent) error {
	e.mu.Lock()
	e.published = append(e.published, event)
	handlers := make([]func(ctx context.Context, event dto.FeedEvent), 0, len(e.handlers))
	for _, handler := range e.handlers {
		handlers = append(handlers, handler)
	}
	e.mu.Unlock()

	for _, handler := range handlers {
		handler(ctx, event)
	}
	return nil
}

func (e *fakeEvents) Subscribe(handler func(ctx context.Context, event dto.FeedEvent)) (func() error, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.handlers[id] = handler

	return func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		delete(e.handlers, id)
		return nil
	}, nil
}

func (e *fakeEvents) types() []dto.FeedEventType {
	e.mu.Lock()
	defer e.mu.Unlock()

	types := make([]dto.FeedEventType, 0, len(e.published))
	for _, event := range e.published {
		types = append(types, event.Type)
	}
	return types
}

func (e *fakeEvents) subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.handlers)
}

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) SignInWithPassword(ctx context.Context, email string, password string) (*identity.Credential, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Credential), args.Error(1)
}

func (m *mockIdentity) SignUp(ctx context.Context, email string, password string, displayName string) (*identity.Credential, error) {
	args := m.Called(ctx, email, password, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Credential), args.Error(1)
}

func (m *mockIdentity) SignInWithIdp(ctx context.Context, providerID string, idToken string) (*identity.Credential, error) {
	args := m.Called(ctx, providerID, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Credential), args.Error(1)
}

func (m *mockIdentity) SignOut(ctx context.Context, idToken string) error {
	args := m.Called(ctx, idToken)
	return args.Error(0)
}

type mockBlob struct {
	mock.Mock
}

func (m *mockBlob) Upload(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, name, contentType, data)
	return args.String(0), args.Error(1)
}

type testEnv struct {
	svc      *Service
	docs     *fakeDocs
	cache    *fakeRedis
	events   *fakeEvents
	identity *mockIdentity
	blob     *mockBlob
}

func newTestEnv(t *testing.T, cfg config.SyncConfig) *testEnv {
	t.Helper()

	env := &testEnv{
		docs:     newFakeDocs(),
		cache:    newFakeRedis(),
		events:   newFakeEvents(),
		identity: new(mockIdentity),
		blob:     new(mockBlob),
	}

	repo := &repository.Repository{
		Postgres: &postgres.PostgresRepository{
			Post:    fakePosts{env.docs},
			Comment: fakeComments{env.docs},
			Like:    fakeLikes{env.docs},
			Follow:  fakeFollows{env.docs},
			Profile: fakeProfiles{env.docs},
		},
		Redis:    &redisrepo.RedisRepository{Default: env.cache},
		Identity: env.identity,
		Blob:     env.blob,
		Events:   env.events,
	}

	env.svc = New(zap.NewNop(), repo, cfg, "")

	return env
}

func postIDs(posts []model.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}
	return ids
}

func findPost(posts []model.Post, id string) (model.Post, bool) {
	for _, post := range posts {
		if post.ID == id {
			return post, true
		}
	}
	return model.Post{}, false
}

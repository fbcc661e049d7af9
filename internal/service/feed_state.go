package service

import (
	"sort"
	"sync"

	"github.com/PhotoSocial/feed-client/internal/model"
)

// feedState is the ordered in-memory feed shared by the feed and post services.
type feedState struct {
	mu    sync.RWMutex
	posts []*model.Post
	// removing holds posts whose optimistic delete is still in flight, so a reload does not resurrect them.
	removing map[string]*model.Post
	// likes and comments hold optimistic changes still in flight; reset lays them over the remote snapshot.
	likes    map[string]likeOverlay
	comments map[string][]model.Comment
}

// likeOverlay is an unconfirmed like or unlike. base is the last known confirmed count.
type likeOverlay struct {
	base    int64
	hasBase bool
	delta   int64
}

func (o likeOverlay) count() int64 {
	return max(o.base+o.delta, 0)
}

func newFeedState() *feedState {
	return &feedState{
		removing: make(map[string]*model.Post),
		likes:    make(map[string]likeOverlay),
		comments: make(map[string][]model.Comment),
	}
}

func (s *feedState) snapshot() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Post, 0, len(s.posts))
	for _, post := range s.posts {
		out = append(out, post.Clone())
	}
	return out
}

func (s *feedState) get(id string) (model.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.posts[i].Clone(), true
	}
	return model.Post{}, false
}

// reset replaces the feed with a remote snapshot, keeping unconfirmed creates and hiding unconfirmed deletes.
func (s *feedState) reset(remote []*model.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := make([]*model.Post, 0, len(remote)+len(s.posts))
	for _, post := range s.posts {
		if post.Pending {
			posts = append(posts, post)
		}
	}
	for _, post := range remote {
		if _, ok := s.removing[post.ID]; ok {
			continue
		}
		p := post.Clone()
		if p.Comments == nil {
			p.Comments = []model.Comment{}
		}
		s.overlay(&p)
		posts = append(posts, &p)
	}

	s.posts = posts
	s.sort()
}

func (s *feedState) insert(post model.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(post.ID); i >= 0 {
		s.posts[i] = &post
	} else {
		s.posts = append(s.posts, &post)
	}
	s.sort()
}

// replace swaps the record stored under oldID for post in the same slot. The slot's CreatedAt is kept
// until the next reset so the record does not jump; a missing slot falls back to a sorted insert.
func (s *feedState) replace(oldID string, post model.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dup := s.indexOf(post.ID); dup >= 0 && post.ID != oldID {
		s.posts = append(s.posts[:dup], s.posts[dup+1:]...)
	}

	if i := s.indexOf(oldID); i >= 0 {
		post.CreatedAt = s.posts[i].CreatedAt
		s.posts[i] = &post
		return
	}
	s.posts = append(s.posts, &post)
	s.sort()
}

func (s *feedState) remove(id string) (model.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Post{}, false
	}

	post := s.posts[i]
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	return *post, true
}

// beginRemove hides the post and remembers it until finishRemove.
func (s *feedState) beginRemove(id string) (model.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Post{}, false
	}

	post := s.posts[i]
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	s.removing[id] = post
	return post.Clone(), true
}

// finishRemove settles an optimistic delete; on rollback the post goes back into the feed.
func (s *feedState) finishRemove(id string, rollback bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.removing[id]
	if !ok {
		return
	}
	delete(s.removing, id)

	if rollback && s.indexOf(id) < 0 {
		s.posts = append(s.posts, post)
		s.sort()
	}
}

// beginLike applies an optimistic like delta that survives reloads until finishLike.
func (s *feedState) beginLike(id string, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.likes[id]
	if !o.hasBase {
		if i := s.indexOf(id); i >= 0 {
			o.base, o.hasBase = s.posts[i].LikeCount, true
		}
	}
	o.delta += delta
	s.likes[id] = o

	if i := s.indexOf(id); i >= 0 {
		s.posts[i].LikeCount = o.count()
	}
}

// finishLike drops the overlay. A confirmed change stores count, a failed one restores the confirmed base.
func (s *feedState) finishLike(id string, confirmed bool, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.likes[id]
	if !ok {
		return
	}
	delete(s.likes, id)

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	switch {
	case confirmed:
		s.posts[i].LikeCount = count
	case o.hasBase:
		s.posts[i].LikeCount = o.base
	}
}

// beginComment prepends an optimistic comment that survives reloads until finishComment.
func (s *feedState) beginComment(postID string, comment model.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments[postID] = append(s.comments[postID], comment)

	if i := s.indexOf(postID); i >= 0 {
		post := s.posts[i]
		post.Comments = append([]model.Comment{comment}, post.Comments...)
	}
}

// finishComment drops the overlay and swaps in the confirmed comment, or removes it when created is nil.
func (s *feedState) finishComment(postID string, commentID string, created *model.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.comments[postID]
	for i := range pending {
		if pending[i].ID == commentID {
			pending = append(pending[:i:i], pending[i+1:]...)
			break
		}
	}
	if len(pending) == 0 {
		delete(s.comments, postID)
	} else {
		s.comments[postID] = pending
	}

	i := s.indexOf(postID)
	if i < 0 {
		return
	}
	post := s.posts[i]

	j := commentIndex(post.Comments, commentID)
	switch {
	case created == nil && j >= 0:
		post.Comments = append(post.Comments[:j:j], post.Comments[j+1:]...)
	case created != nil && j >= 0:
		post.Comments[j] = *created
	case created != nil:
		post.Comments = append([]model.Comment{*created}, post.Comments...)
	}
}

// overlay lays the in-flight likes and comments of post over its remote state.
func (s *feedState) overlay(post *model.Post) {
	if o, ok := s.likes[post.ID]; ok {
		o.base, o.hasBase = post.LikeCount, true
		s.likes[post.ID] = o
		post.LikeCount = o.count()
	}

	for _, comment := range s.comments[post.ID] {
		if commentIndex(post.Comments, comment.ID) < 0 {
			post.Comments = append([]model.Comment{comment}, post.Comments...)
		}
	}
}

func commentIndex(comments []model.Comment, id string) int {
	for i := range comments {
		if comments[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *feedState) indexOf(id string) int {
	for i, post := range s.posts {
		if post.ID == id {
			return i
		}
	}
	return -1
}

func (s *feedState) sort() {
	sort.SliceStable(s.posts, func(i, j int) bool {
		return s.posts[i].Before(*s.posts[j])
	})
}

func sortPosts(posts []model.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Before(posts[j])
	})
}

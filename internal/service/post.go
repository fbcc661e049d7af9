package service

import (
	"context"
	"sync"
	"time"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type postService struct {
	*feedBackend
	runner   *mutationRunner
	validate *validator.Validate
	feed     Feed

	mu     sync.Mutex
	states map[string]model.InteractionState
}

func newPostService(backend *feedBackend, runner *mutationRunner, validate *validator.Validate, feed Feed) *postService {
	return &postService{
		feedBackend: backend,
		runner:      runner,
		validate:    validate,
		feed:        feed,
		states:      make(map[string]model.InteractionState),
	}
}

func (s *postService) State(postID string) model.InteractionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.states[postID]
}

// Hover shows the delete affordance. Hovering again is a no-op; an open confirmation is kept.
func (s *postService) Hover(postID string) (model.InteractionState, error) {
	return s.transition(postID, func(state model.InteractionState) (model.InteractionState, error) {
		switch state {
		case model.Idle, model.ShowingDeleteAffordance:
			return model.ShowingDeleteAffordance, nil
		}
		return state, ErrInvalidTransition
	})
}

func (s *postService) Leave(postID string) (model.InteractionState, error) {
	return s.transition(postID, func(state model.InteractionState) (model.InteractionState, error) {
		switch state {
		case model.Idle, model.ShowingDeleteAffordance:
			return model.Idle, nil
		}
		return state, ErrInvalidTransition
	})
}

// RequestDelete opens the confirmation, but only for the author of the post.
// A non-author gets an AuthorizationError whatever the current state.
func (s *postService) RequestDelete(ctx context.Context, postID string, actorID string) (model.InteractionState, error) {
	if actorID == "" {
		return s.State(postID), ErrNotSignedIn
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	post, err := s.find(lookupCtx, postID)
	if err != nil {
		return s.State(postID), err
	}
	if post.AuthorID != actorID {
		return s.State(postID), &AuthorizationError{ActorID: actorID, PostID: postID}
	}

	return s.transition(postID, func(state model.InteractionState) (model.InteractionState, error) {
		if state != model.ShowingDeleteAffordance {
			return state, ErrInvalidTransition
		}
		return model.ConfirmingDelete, nil
	})
}

func (s *postService) CancelDelete(postID string) (model.InteractionState, error) {
	return s.transition(postID, func(state model.InteractionState) (model.InteractionState, error) {
		if state != model.ConfirmingDelete {
			return state, ErrInvalidTransition
		}
		return model.ShowingDeleteAffordance, nil
	})
}

// ConfirmDelete removes the post through the feed and returns the interaction to idle either way.
func (s *postService) ConfirmDelete(ctx context.Context, postID string, actorID string) error {
	if state := s.State(postID); state != model.ConfirmingDelete {
		return ErrInvalidTransition
	}

	err := s.feed.RemovePost(ctx, postID, actorID)

	s.Release(postID)

	return err
}

// Release forgets the interaction state of a post the user navigated away from.
func (s *postService) Release(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, postID)
}

func (s *postService) transition(postID string, next func(state model.InteractionState) (model.InteractionState, error)) (model.InteractionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := next(s.states[postID])
	if err != nil {
		return state, err
	}

	if state == model.Idle {
		delete(s.states, postID)
	} else {
		s.states[postID] = state
	}

	return state, nil
}

// Like adds one like per user. A repeated like is rejected with ErrAlreadyLiked and leaves the count as is.
func (s *postService) Like(ctx context.Context, postID string, userID string) (int64, error) {
	return s.toggleLike(ctx, postID, userID, true)
}

func (s *postService) Unlike(ctx context.Context, postID string, userID string) (int64, error) {
	return s.toggleLike(ctx, postID, userID, false)
}

func (s *postService) toggleLike(ctx context.Context, postID string, userID string, like bool) (int64, error) {
	if userID == "" {
		return 0, ErrNotSignedIn
	}
	if model.IsPendingID(postID) {
		return 0, s.pendingError(postID)
	}

	op, eventType, delta := "unlike", dto.PostUnliked, int64(-1)
	if like {
		op, eventType, delta = "like", dto.PostLiked, 1
	}

	var (
		authorID string
		count    int64 = -1
	)
	err := s.runner.run(ctx, pendingMutation{
		op:     op,
		postID: postID,
		precheck: func(ctx context.Context) error {
			post, err := s.find(ctx, postID)
			if err != nil {
				return err
			}
			authorID = post.AuthorID
			count = post.LikeCount

			exists, err := s.repo.Postgres.Like.Exists(ctx, postID, userID)
			if err != nil {
				s.logger.Sugar().Errorf("failed to check like of user(%s) on post(%s): %s", userID, postID, err.Error())
				return remoteError(err)
			}
			if like && exists {
				return ErrAlreadyLiked
			}
			if !like && !exists {
				return ErrNotLiked
			}
			return nil
		},
		apply: func() error {
			count = max(count+delta, 0)
			s.state.beginLike(postID, delta)
			return nil
		},
		remote: func(ctx context.Context) error {
			var (
				changed bool
				err     error
			)
			if like {
				changed, err = s.repo.Postgres.Like.Create(ctx, postID, userID)
			} else {
				changed, err = s.repo.Postgres.Like.Delete(ctx, postID, userID)
			}
			if err != nil {
				return err
			}
			if !changed && like {
				return ErrAlreadyLiked
			}
			if !changed {
				return ErrNotLiked
			}

			total, err := s.repo.Postgres.Like.Count(ctx, postID)
			if err != nil {
				s.logger.Sugar().Errorf("failed to count likes of post(%s), keeping local count: %s", postID, err.Error())
				return nil
			}
			count = total
			return nil
		},
		reconcile: func() {
			s.state.finishLike(postID, true, count)
		},
		rollback: func() {
			s.state.finishLike(postID, false, 0)
		},
	})
	if err != nil {
		return 0, err
	}

	s.changed(ctx, eventType, postID, userID, authorID)

	return count, nil
}

// Comment prepends the comment locally and appends it remotely.
func (s *postService) Comment(ctx context.Context, postID string, authorID string, text string) (*model.Comment, error) {
	if err := s.validate.Struct(dto.CreateCommentRequest{Text: text}); err != nil {
		return nil, validationError(err)
	}
	if authorID == "" {
		return nil, ErrNotSignedIn
	}
	if model.IsPendingID(postID) {
		return nil, s.pendingError(postID)
	}

	comment := model.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	var (
		postAuthorID string
		created      *model.Comment
	)
	err := s.runner.run(ctx, pendingMutation{
		op:     "comment",
		postID: postID,
		precheck: func(ctx context.Context) error {
			post, err := s.find(ctx, postID)
			if err != nil {
				return err
			}
			postAuthorID = post.AuthorID
			return nil
		},
		apply: func() error {
			s.state.beginComment(postID, comment)
			return nil
		},
		remote: func(ctx context.Context) error {
			c, err := s.repo.Postgres.Comment.Create(ctx, comment)
			if err != nil {
				return err
			}
			created = c
			return nil
		},
		reconcile: func() {
			s.state.finishComment(postID, comment.ID, created)
		},
		rollback: func() {
			s.state.finishComment(postID, comment.ID, nil)
		},
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, dto.PostCommented, postID, authorID, postAuthorID)

	result := *created
	return &result, nil
}

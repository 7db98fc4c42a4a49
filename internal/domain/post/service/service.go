package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vadim/artflow/internal/domain/post/dao"
	"github.com/vadim/artflow/internal/domain/post/entity"
)

// Service handles business logic for posts and their publications
type Service struct {
	posts        dao.PostRepository
	publications dao.PublicationRepository
	attempts     dao.AttemptRepository
}

// New creates a new post service
func New(posts dao.PostRepository, publications dao.PublicationRepository, attempts dao.AttemptRepository) *Service {
	return &Service{
		posts:        posts,
		publications: publications,
		attempts:     attempts,
	}
}

// CreateInput represents input for creating a post
type CreateInput struct {
	UserID       string
	Title        string
	Content      string
	Media        []string
	Hashtags     []string
	Platforms    []entity.Platform
	ScheduledFor *time.Time
}

// CreatePost creates a new post. Without a scheduled time it starts as a
// draft; with one it enters scheduled directly and gets one pending
// publication per target platform, all in a single transaction.
func (s *Service) CreatePost(ctx context.Context, in CreateInput) (*entity.Post, error) {
	now := time.Now()

	post := &entity.Post{
		ID:        uuid.New().String(),
		UserID:    in.UserID,
		Title:     in.Title,
		Content:   in.Content,
		Media:     in.Media,
		Hashtags:  in.Hashtags,
		Status:    entity.PostStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var pubs []entity.Publication
	if in.ScheduledFor != nil {
		draft := *post
		if err := draft.ValidateSchedule(*in.ScheduledFor, in.Platforms, now); err != nil {
			return nil, err
		}
		post.Status = entity.PostStatusScheduled
		post.ScheduledFor = in.ScheduledFor
		pubs = buildPublications(post.ID, in.Platforms, now)
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.posts.CreateWithPublications(ctx, post, pubs); err != nil {
		return nil, err
	}

	post.Publications = pubs
	return post, nil
}

// GetPost retrieves a post with its publications
func (s *Service) GetPost(ctx context.Context, id string) (*entity.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("post %s: %w", id, entity.ErrNotFound)
	}

	pubs, err := s.publications.GetByPostID(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Publications = pubs

	return post, nil
}

// UpdateInput represents input for updating a post's content
type UpdateInput struct {
	ID       string
	Title    *string
	Content  *string
	Media    []string
	Hashtags []string
}

// UpdatePost updates the content of a draft or scheduled post
func (s *Service) UpdatePost(ctx context.Context, in UpdateInput) (*entity.Post, error) {
	post, err := s.GetPost(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if !post.IsEditable() {
		return nil, entity.ErrPostNotEditable
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Media != nil {
		post.Media = in.Media
	}
	if in.Hashtags != nil {
		post.Hashtags = in.Hashtags
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// DeletePost deletes a post and everything it owns
func (s *Service) DeletePost(ctx context.Context, id string) error {
	return s.posts.Delete(ctx, id)
}

// ListInput represents input for listing posts
type ListInput struct {
	UserID string
	Status *entity.PostStatus
	Limit  int
	Offset int
}

// ListOutput represents output from listing posts
type ListOutput struct {
	Posts []entity.Post
	Total int64
}

// ListPosts retrieves posts with filtering
func (s *Service) ListPosts(ctx context.Context, in ListInput) (*ListOutput, error) {
	filter := dao.PostFilter{
		UserID: in.UserID,
		Status: in.Status,
	}

	opts := dao.ListOptions{
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	if opts.Limit == 0 {
		opts.Limit = 50
	}

	posts, err := s.posts.List(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListOutput{Posts: posts, Total: total}, nil
}

// SchedulePost transitions a draft into scheduled and creates one pending
// publication per platform. The transition and the publication rows commit
// together.
func (s *Service) SchedulePost(ctx context.Context, id string, scheduledFor time.Time, platforms []entity.Platform) (*entity.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := post.ValidateSchedule(scheduledFor, platforms, now); err != nil {
		return nil, err
	}

	pubs := buildPublications(post.ID, platforms, now)

	ok, err := s.posts.Schedule(ctx, post.ID, post.Status, scheduledFor, pubs)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The post moved out from under us between the read and the
		// guarded update.
		return nil, &entity.TransitionError{From: post.Status, To: entity.PostStatusScheduled}
	}

	return s.GetPost(ctx, id)
}

// SaveAsDraft cancels a scheduled post back to draft. Returns the post
// unchanged if the dispatch claim already won the race.
func (s *Service) SaveAsDraft(ctx context.Context, id string) (*entity.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if post.Status == entity.PostStatusDraft {
		return post, nil
	}

	ok, err := s.posts.Unschedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &entity.TransitionError{From: post.Status, To: entity.PostStatusDraft}
	}

	return s.GetPost(ctx, id)
}

// DueForDispatch returns posts ready for dispatch at the given instant.
// Pure read; repeated calls with the same now return the same set until a
// claim succeeds.
func (s *Service) DueForDispatch(ctx context.Context, now time.Time, limit int) ([]entity.Post, error) {
	return s.posts.DueForDispatch(ctx, now, limit)
}

// WithPendingRetries returns publishing posts with publications due for
// another attempt or stranded in publishing past the attempt lease
func (s *Service) WithPendingRetries(ctx context.Context, now, staleBefore time.Time, limit int) ([]entity.Post, error) {
	return s.posts.WithPendingRetries(ctx, now, staleBefore, limit)
}

// ClaimForDispatch attempts the exactly-once scheduled -> publishing claim
func (s *Service) ClaimForDispatch(ctx context.Context, id string) (bool, error) {
	return s.posts.ClaimForDispatch(ctx, id)
}

// GetPublications retrieves the publications of a post
func (s *Service) GetPublications(ctx context.Context, postID string) ([]entity.Publication, error) {
	return s.publications.GetByPostID(ctx, postID)
}

// ClaimAttempt attempts the per-publication pending -> publishing claim
func (s *Service) ClaimAttempt(ctx context.Context, pubID string, now time.Time) (bool, error) {
	return s.publications.ClaimAttempt(ctx, pubID, now)
}

// ReclaimAttempt takes over a publication stranded in publishing with no
// write since staleBefore
func (s *Service) ReclaimAttempt(ctx context.Context, pubID string, staleBefore time.Time) (bool, error) {
	return s.publications.ReclaimAttempt(ctx, pubID, staleBefore)
}

// MarkPublicationPublished records a successful platform publish
func (s *Service) MarkPublicationPublished(ctx context.Context, pubID, externalID string) error {
	return s.publications.MarkPublished(ctx, pubID, externalID, time.Now())
}

// MarkPublicationRetrying returns a publication to pending with a backoff window
func (s *Service) MarkPublicationRetrying(ctx context.Context, pubID string, attempts int, errMsg string, nextAttemptAt time.Time) error {
	return s.publications.MarkRetrying(ctx, pubID, attempts, errMsg, nextAttemptAt)
}

// MarkPublicationFailed records a terminal per-platform failure
func (s *Service) MarkPublicationFailed(ctx context.Context, pubID string, attempts int, errMsg string) error {
	return s.publications.MarkFailed(ctx, pubID, attempts, errMsg)
}

// RecordAttempt appends one dispatch audit record
func (s *Service) RecordAttempt(ctx context.Context, pubID string, attempt int, outcome entity.AttemptOutcome, errMsg string) error {
	return s.attempts.Append(ctx, &entity.DispatchAttempt{
		ID:            uuid.New().String(),
		PublicationID: pubID,
		Attempt:       attempt,
		Outcome:       outcome,
		ErrorMessage:  errMsg,
		CreatedAt:     time.Now(),
	})
}

// FinishDispatch reconciles the publications of a publishing post into its
// terminal status. Returns the computed status, or "" while publications
// are still in flight.
func (s *Service) FinishDispatch(ctx context.Context, postID string) (entity.PostStatus, error) {
	pubs, err := s.publications.GetByPostID(ctx, postID)
	if err != nil {
		return "", err
	}

	status, resolved := entity.ResolvePostStatus(pubs)
	if !resolved {
		return "", nil
	}

	var publishedAt *time.Time
	if status == entity.PostStatusPublished {
		now := time.Now()
		publishedAt = &now
	}

	if _, err := s.posts.FinishDispatch(ctx, postID, status, publishedAt); err != nil {
		return "", err
	}

	return status, nil
}

// GetStatistics returns post counts by status for a user
func (s *Service) GetStatistics(ctx context.Context, userID string) (*entity.PostStatistics, error) {
	return s.posts.GetStatistics(ctx, userID)
}

// GetAttemptHistory retrieves the audit trail for a publication
func (s *Service) GetAttemptHistory(ctx context.Context, pubID string) ([]entity.DispatchAttempt, error) {
	return s.attempts.ListByPublicationID(ctx, pubID)
}

func buildPublications(postID string, platforms []entity.Platform, now time.Time) []entity.Publication {
	pubs := make([]entity.Publication, len(platforms))
	for i, pl := range platforms {
		pubs[i] = entity.Publication{
			ID:        uuid.New().String(),
			PostID:    postID,
			Platform:  pl,
			Status:    entity.PublicationStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return pubs
}

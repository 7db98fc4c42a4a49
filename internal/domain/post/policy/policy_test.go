package policy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vadim/artflow/internal/domain/post/dao"
	"github.com/vadim/artflow/internal/domain/post/entity"
	"github.com/vadim/artflow/internal/domain/post/service"
)

// dispatchStore is an in-memory store backing the coordinator tests. It
// reproduces the conditional-update guards of the postgres DAOs.
type dispatchStore struct {
	mu       sync.Mutex
	posts    map[string]*entity.Post
	pubs     map[string]*entity.Publication
	attempts []entity.DispatchAttempt

	pubsReadErr error // one-shot GetByPostID failure
}

func newDispatchStore() *dispatchStore {
	return &dispatchStore{
		posts: make(map[string]*entity.Post),
		pubs:  make(map[string]*entity.Publication),
	}
}

func (s *dispatchStore) CreateWithPublications(ctx context.Context, post *entity.Post, pubs []entity.Publication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *post
	s.posts[post.ID] = &cp
	for i := range pubs {
		p := pubs[i]
		s.pubs[p.ID] = &p
	}
	return nil
}

func (s *dispatchStore) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *dispatchStore) Update(ctx context.Context, post *entity.Post) error { return nil }
func (s *dispatchStore) Delete(ctx context.Context, id string) error         { return nil }

func (s *dispatchStore) List(ctx context.Context, filter dao.PostFilter, opts dao.ListOptions) ([]entity.Post, error) {
	return nil, nil
}

func (s *dispatchStore) Count(ctx context.Context, filter dao.PostFilter) (int64, error) {
	return 0, nil
}

func (s *dispatchStore) Schedule(ctx context.Context, postID string, from entity.PostStatus, scheduledFor time.Time, pubs []entity.Publication) (bool, error) {
	return false, nil
}

func (s *dispatchStore) Unschedule(ctx context.Context, postID string) (bool, error) {
	return false, nil
}

func (s *dispatchStore) DueForDispatch(ctx context.Context, now time.Time, limit int) ([]entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Post
	for _, p := range s.posts {
		if p.Status == entity.PostStatusScheduled && p.ScheduledFor != nil && !p.ScheduledFor.After(now) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *dispatchStore) WithPendingRetries(ctx context.Context, now, staleBefore time.Time, limit int) ([]entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Post
	for _, p := range s.posts {
		if p.Status != entity.PostStatusPublishing {
			continue
		}
		for _, pub := range s.pubs {
			if pub.PostID != p.ID {
				continue
			}
			pendingDue := pub.Status == entity.PublicationStatusPending &&
				(pub.NextAttemptAt == nil || !pub.NextAttemptAt.After(now))
			stale := pub.Status == entity.PublicationStatusPublishing &&
				!pub.UpdatedAt.After(staleBefore)
			if pendingDue || stale {
				out = append(out, *p)
				break
			}
		}
	}
	return out, nil
}

func (s *dispatchStore) ClaimForDispatch(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Status != entity.PostStatusScheduled {
		return false, nil
	}
	p.Status = entity.PostStatusPublishing
	return true, nil
}

func (s *dispatchStore) FinishDispatch(ctx context.Context, id string, status entity.PostStatus, publishedAt *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Status != entity.PostStatusPublishing {
		return false, nil
	}
	p.Status = status
	p.PublishedAt = publishedAt
	return true, nil
}

func (s *dispatchStore) GetStatistics(ctx context.Context, userID string) (*entity.PostStatistics, error) {
	return &entity.PostStatistics{}, nil
}

func (s *dispatchStore) GetByPostID(ctx context.Context, postID string) ([]entity.Publication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pubsReadErr != nil {
		err := s.pubsReadErr
		s.pubsReadErr = nil
		return nil, err
	}
	var out []entity.Publication
	for _, pub := range s.pubs {
		if pub.PostID == postID {
			out = append(out, *pub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func (s *dispatchStore) ClaimAttempt(ctx context.Context, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub, ok := s.pubs[id]
	if !ok || pub.Status != entity.PublicationStatusPending {
		return false, nil
	}
	if pub.NextAttemptAt != nil && pub.NextAttemptAt.After(now) {
		return false, nil
	}
	pub.Status = entity.PublicationStatusPublishing
	pub.UpdatedAt = time.Now()
	return true, nil
}

func (s *dispatchStore) ReclaimAttempt(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub, ok := s.pubs[id]
	if !ok || pub.Status != entity.PublicationStatusPublishing {
		return false, nil
	}
	if pub.UpdatedAt.After(staleBefore) {
		return false, nil
	}
	pub.UpdatedAt = time.Now()
	return true, nil
}

func (s *dispatchStore) MarkPublished(ctx context.Context, id string, externalID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub := s.pubs[id]
	pub.Status = entity.PublicationStatusPublished
	pub.ExternalID = externalID
	pub.ErrorMessage = ""
	pub.NextAttemptAt = nil
	pub.PublishedAt = &publishedAt
	pub.UpdatedAt = time.Now()
	return nil
}

func (s *dispatchStore) MarkRetrying(ctx context.Context, id string, attempts int, errMsg string, nextAttemptAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub := s.pubs[id]
	pub.Status = entity.PublicationStatusPending
	pub.Attempts = attempts
	pub.ErrorMessage = errMsg
	pub.NextAttemptAt = &nextAttemptAt
	pub.UpdatedAt = time.Now()
	return nil
}

func (s *dispatchStore) MarkFailed(ctx context.Context, id string, attempts int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pub := s.pubs[id]
	pub.Status = entity.PublicationStatusFailed
	pub.Attempts = attempts
	pub.ErrorMessage = errMsg
	pub.NextAttemptAt = nil
	pub.UpdatedAt = time.Now()
	return nil
}

func (s *dispatchStore) Append(ctx context.Context, attempt *entity.DispatchAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, *attempt)
	return nil
}

func (s *dispatchStore) ListByPublicationID(ctx context.Context, publicationID string) ([]entity.DispatchAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.DispatchAttempt
	for _, a := range s.attempts {
		if a.PublicationID == publicationID {
			out = append(out, a)
		}
	}
	return out, nil
}

// stubPublisher returns a scripted result per call
type stubPublisher struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) (*PublishOutput, error)
}

func (p *stubPublisher) Publish(ctx context.Context, in PublishInput) (*PublishOutput, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.mu.Unlock()
	return p.fn(call)
}

type stubAccounts struct {
	err error
}

func (a *stubAccounts) GetCredentials(ctx context.Context, userID string, platform entity.Platform) (*Credentials, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &Credentials{ExternalUserID: "ext-" + userID, AccessToken: "token"}, nil
}

type passthroughMedia struct{}

func (passthroughMedia) Resolve(ctx context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func seedScheduledPost(store *dispatchStore, platforms ...entity.Platform) *entity.Post {
	now := time.Now()
	due := now.Add(-time.Minute)
	post := &entity.Post{
		ID:           uuid.New().String(),
		UserID:       "u1",
		Title:        "Drop",
		Content:      "new work",
		Media:        []string{"art/piece.png"},
		Status:       entity.PostStatusScheduled,
		ScheduledFor: &due,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var pubs []entity.Publication
	for _, pl := range platforms {
		pubs = append(pubs, entity.Publication{
			ID:        uuid.New().String(),
			PostID:    post.ID,
			Platform:  pl,
			Status:    entity.PublicationStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	_ = store.CreateWithPublications(context.Background(), post, pubs)
	return post
}

func newTestPolicy(store *dispatchStore, publishers map[entity.Platform]PlatformPublisher, accounts AccountProvider, cfg Config) *Policy {
	svc := service.New(store, store, store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(svc, publishers, accounts, passthroughMedia{}, cfg, logger)
}

func TestDispatchPostSuccess(t *testing.T) {
	ctx := context.Background()
	store := newDispatchStore()
	post := seedScheduledPost(store, entity.PlatformInstagram, entity.PlatformPinterest)

	publishers := map[entity.Platform]PlatformPublisher{
		entity.PlatformInstagram: &stubPublisher{fn: func(int) (*PublishOutput, error) {
			return &PublishOutput{ExternalID: "ig-1"}, nil
		}},
		entity.PlatformPinterest: &stubPublisher{fn: func(int) (*PublishOutput, error) {
			return &PublishOutput{ExternalID: "pin-1"}, nil
		}},
	}
	p := newTestPolicy(store, publishers, &stubAccounts{}, Config{})

	if err := p.DispatchPost(ctx, post.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.GetByID(ctx, post.ID)
	if got.Status != entity.PostStatusPublished {
		t.Errorf("post status = %s, want published", got.Status)
	}
	if got.PublishedAt == nil {
		t.Error("published_at should be set")
	}

	pubs, _ := store.GetByPostID(ctx, post.ID)
	for _, pub := range pubs {
		if pub.Status != entity.PublicationStatusPublished {
			t.Errorf("%s publication status = %s, want published", pub.Platform, pub.Status)
		}
		if pub.ExternalID == "" {
			t.Errorf("%s publication missing external id", pub.Platform)
		}
		trail, _ := store.ListByPublicationID(ctx, pub.ID)
		if len(trail) != 1 || trail[0].Outcome != entity.AttemptOutcomePublished {
			t.Errorf("%s publication audit trail = %+v, want one published record", pub.Platform, trail)
		}
	}
}

func TestDispatchPostLosingClaim(t *testing.T) {
	ctx := context.Background()
	store := newDispatchStore()
	post := seedScheduledPost(store, entity.PlatformInstagram)

	// The user cancelled between the due read and the claim
	store.mu.Lock()
	store.posts[post.ID].Status = entity.PostStatusDraft
	store.mu.Unlock()

	publisher := &stubPublisher{fn: func(int) (*PublishOutput, error) {
		t.Error("publisher should not be called after a losing claim")
		return nil, nil
	}}
	p := newTestPolicy(store, map[entity.Platform]PlatformPublisher{
		entity.PlatformInstagram: publisher,
	}, &stubAccounts{}, Config{})

	if err := p.DispatchPost(ctx, post.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.GetByID(ctx, post.ID)
	if got.Status != entity.PostStatusDraft {
		t.Errorf("post status = %s, want draft untouched", got.Status)
	}
}

func TestRetryBudgetExhaustion(t *testing.T) {
	ctx := context.Background()
	store := newDispatchStore()
	post := seedScheduledPost(store, entity.PlatformInstagram)

	publisher := &stubPublisher{fn: func(int) (*PublishOutput, error) {
		return nil, &PublishError{Kind: "rate_limited", Retryable: true, Err: errors.New("429")}
	}}
	cfg := Config{MaxAttempts: 3, BackoffBase: 30 * time.Second}
	p := newTestPolicy(store, map[entity.Platform]PlatformPublisher{
		entity.PlatformInstagram: publisher,
	}, &stubAccounts{}, cfg)

	if err := p.DispatchPost(ctx, post.ID); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	pubs, _ := store.GetByPostID(ctx, post.ID)
	pub := pubs[0]
	if pub.Status != entity.PublicationStatusPending {
		t.Fatalf("after attempt 1: status = %s, want pending", pub.Status)
	}
	if pub.Attempts != 1 {
		t.Fatalf("after attempt 1: attempts = %d, want 1", pub.Attempts)
	}
	if pub.NextAttemptAt == nil {
		t.Fatal("after attempt 1: next_attempt_at should be set")
	}
	wantDelay := 30 * time.Second
	gotDelay := time.Until(*pub.NextAttemptAt)
	if gotDelay < wantDelay-5*time.Second || gotDelay > wantDelay+5*time.Second {
		t.Errorf("backoff after attempt 1 = %v, want about %v", gotDelay, wantDelay)
	}

	// Before the window elapses the attempt claim must refuse
	if err := p.processPost(ctx, post); err != nil {
		t.Fatalf("early pass: %v", err)
	}
	pubs, _ = store.GetByPostID(ctx, post.ID)
	if pubs[0].Attempts != 1 {
		t.Fatalf("early retry consumed the budget: attempts = %d", pubs[0].Attempts)
	}

	// Run the remaining attempts with elapsed windows
	for want := 2; want <= 3; want++ {
		past := time.Now().Add(-time.Second)
		store.mu.Lock()
		store.pubs[pub.ID].NextAttemptAt = &past
		store.mu.Unlock()

		if err := p.processPost(ctx, post); err != nil {
			t.Fatalf("pass %d: %v", want, err)
		}
		pubs, _ = store.GetByPostID(ctx, post.ID)
		if pubs[0].Attempts != want {
			t.Fatalf("after pass %d: attempts = %d", want, pubs[0].Attempts)
		}
	}

	pubs, _ = store.GetByPostID(ctx, post.ID)
	if pubs[0].Status != entity.PublicationStatusFailed {
		t.Errorf("after budget exhaustion: status = %s, want failed", pubs[0].Status)
	}
	if pubs[0].NextAttemptAt != nil {
		t.Error("failed publication should not carry a retry window")
	}

	got, _ := store.GetByID(ctx, post.ID)
	if got.Status != entity.PostStatusFailed {
		t.Errorf("post status = %s, want failed", got.Status)
	}

	trail, _ := store.ListByPublicationID(ctx, pub.ID)
	if len(trail) != 3 {
		t.Fatalf("audit trail has %d records, want 3", len(trail))
	}
	wantOutcomes := []entity.AttemptOutcome{
		entity.AttemptOutcomeRetrying,
		entity.AttemptOutcomeRetrying,
		entity.AttemptOutcomeFailed,
	}
	for i, rec := range trail {
		if rec.Outcome != wantOutcomes[i] {
			t.Errorf("attempt %d outcome = %s, want %s", i+1, rec.Outcome, wantOutcomes[i])
		}
	}
}

func TestNonRetryableFailsImmediately(t *testing.T) {
	ctx := context.Background()
	store := newDispatchStore()
	post := seedScheduledPost(store, entity.PlatformInstagram)

	publisher := &stubPublisher{fn: func(int) (*PublishOutput, error) {
		return nil, &PublishError{Kind: "auth_revoked", Retryable: false, Err: errors.New("token expired")}
	}}
	p := newTestPolicy(store, map[entity.Platform]PlatformPublisher{
		entity.PlatformInstagram: publisher,
	}, &stubAccounts{}, Config{MaxAttempts: 3})

	if err := p.DispatchPost(ctx, post.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pubs, _ := store.GetByPostID(ctx, post.ID)
	if pubs[0].Status != entity.PublicationStatusFailed {
		t.Errorf("status = %s, want failed on first attempt", pubs[0].Status)
	}
	if pubs[0].Attempts != 1 {
		t.Errorf("attempts = %d, want 1", pubs[0].Attempts)
	}
	if publisher.calls != 1 {
		t.Errorf("publisher called %d times, want 1", publisher.calls)
	}

	got, _ := store.GetByID(ctx, post.ID)
	if got.Status != entity.PostStatusFailed {
		t.Errorf("post status = %s, want failed", got.Status)
	}
}

func TestPartialFailureKeepsPlatformsIndependent(t *testing.T) {
	ctx := context.Background()
	store := newDispatchStore()
	post := seedScheduledPost(store, entity.PlatformInstagram, entity.PlatformPinterest)

	publishers := map[entity.Platform]PlatformPublisher{
		entity.PlatformInstagram: &stubPublisher{fn: func(int) (*PublishOutput, error) {
			return &PublishOutput{ExternalID: "ig-ok"}, nil
		}},
		entity.PlatformPinterest: &stubPublisher{fn: func(int) (*PublishOutput, error) {
			return nil, &PublishError{Kind: "validation", Retryable: false, Err: errors.New("board missing")}
		}},
	}
	p := newTestPolicy(store, publishers, &stubAccounts{}, Config{})

	if err := p.DispatchPost(ctx, post.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.GetByID(ctx, post.ID)
	if got.Status != entity.PostStatusFailed {
		t.Errorf("post status = %s, want failed", got.Status)
	}

	pubs, _ := store.GetByPostID(ctx, post.ID)
	byPlatform := make(map[entity.Platform]entity.Publication)
	for _, pub := range pubs {
		byPlatform[pub.Platform] = pub
	}
	if byPlatform[entity.PlatformInstagram].Status != entity.PublicationStatusPublished {
		t.Errorf("instagram publication lost its success: %s", byPlatform[entity.PlatformInstagram].Status)
	}
	if byPlatform[entity.PlatformInstagram].ExternalID != "ig-ok" {
		t.Errorf("instagram external id = %q", byPlatform[entity.PlatformInstagram].ExternalID)
	}
	if byPlatform[entity.PlatformPinterest].Status != entity.PublicationStatusFailed {
		t.Errorf("pinterest publication status = %s, want failed", byPlatform[entity.PlatformPinterest].Status)
	}
}

func TestMissingCredentialsArePermanent(t *testing.T) {
	ctx := context.Background()
	store := newDispatchStore()
	post := seedScheduledPost(store, entity.PlatformInstagram)

	publisher := &stubPublisher{fn: func(int) (*PublishOutput, error) {
		t.Error("publisher should not be reached without credentials")
		return nil, nil
	}}
	p := newTestPolicy(store, map[entity.Platform]PlatformPublisher{
		entity.PlatformInstagram: publisher,
	}, &stubAccounts{err: errors.New("no active connection")}, Config{MaxAttempts: 3})

	if err := p.DispatchPost(ctx, post.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pubs, _ := store.GetByPostID(ctx, post.ID)
	if pubs[0].Status != entity.PublicationStatusFailed {
		t.Errorf("status = %s, want failed without retries", pubs[0].Status)
	}
	if pubs[0].Attempts != 1 {
		t.Errorf("attempts = %d, want 1", pubs[0].Attempts)
	}
}

func TestProcessDuePostsCoversDueAndRetryable(t *testing.T) {
	ctx := context.Background()
	store := newDispatchStore()

	duePost := seedScheduledPost(store, entity.PlatformInstagram)

	// A post already publishing with an elapsed retry window
	retryPost := seedScheduledPost(store, entity.PlatformInstagram)
	past := time.Now().Add(-time.Second)
	store.mu.Lock()
	store.posts[retryPost.ID].Status = entity.PostStatusPublishing
	for _, pub := range store.pubs {
		if pub.PostID == retryPost.ID {
			pub.Attempts = 1
			pub.NextAttemptAt = &past
		}
	}
	store.mu.Unlock()

	publisher := &stubPublisher{fn: func(int) (*PublishOutput, error) {
		return &PublishOutput{ExternalID: "ok"}, nil
	}}
	p := newTestPolicy(store, map[entity.Platform]PlatformPublisher{
		entity.PlatformInstagram: publisher,
	}, &stubAccounts{}, Config{})

	if err := p.ProcessDuePosts(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, id := range []string{duePost.ID, retryPost.ID} {
		got, _ := store.GetByID(ctx, id)
		if got.Status != entity.PostStatusPublished {
			t.Errorf("post %s status = %s, want published", id, got.Status)
		}
	}
}

func TestInterruptedClaimIsRevisited(t *testing.T) {
	ctx := context.Background()
	store := newDispatchStore()
	post := seedScheduledPost(store, entity.PlatformInstagram)

	publisher := &stubPublisher{fn: func(int) (*PublishOutput, error) {
		return &PublishOutput{ExternalID: "ig-late"}, nil
	}}
	p := newTestPolicy(store, map[entity.Platform]PlatformPublisher{
		entity.PlatformInstagram: publisher,
	}, &stubAccounts{}, Config{})

	// The store drops out right after the claim: the post lands in
	// publishing while its publication is still pending with no attempt
	// and no retry window.
	store.mu.Lock()
	store.pubsReadErr = entity.ErrStoreUnavailable
	store.mu.Unlock()
	if err := p.DispatchPost(ctx, post.ID); err == nil {
		t.Fatal("expected the interrupted dispatch to report its error")
	}

	got, _ := store.GetByID(ctx, post.ID)
	if got.Status != entity.PostStatusPublishing {
		t.Fatalf("post status = %s, want publishing after the interrupted claim", got.Status)
	}
	pubs, _ := store.GetByPostID(ctx, post.ID)
	if pubs[0].Status != entity.PublicationStatusPending || pubs[0].NextAttemptAt != nil {
		t.Fatalf("publication = %s next_attempt_at=%v, want pending with no window", pubs[0].Status, pubs[0].NextAttemptAt)
	}

	// A later healthy pass must pick the post back up
	if err := p.ProcessDuePosts(ctx); err != nil {
		t.Fatalf("recovery pass: %v", err)
	}

	got, _ = store.GetByID(ctx, post.ID)
	if got.Status != entity.PostStatusPublished {
		t.Errorf("post status = %s, want published after recovery", got.Status)
	}
	pubs, _ = store.GetByPostID(ctx, post.ID)
	if pubs[0].Status != entity.PublicationStatusPublished {
		t.Errorf("publication status = %s, want published", pubs[0].Status)
	}
}

func TestStalePublishingAttemptIsReclaimed(t *testing.T) {
	ctx := context.Background()
	store := newDispatchStore()
	post := seedScheduledPost(store, entity.PlatformInstagram)

	// A worker died mid-attempt: post and publication both stuck in
	// publishing, last write well past the attempt lease.
	stale := time.Now().Add(-time.Hour)
	store.mu.Lock()
	store.posts[post.ID].Status = entity.PostStatusPublishing
	for _, pub := range store.pubs {
		if pub.PostID == post.ID {
			pub.Status = entity.PublicationStatusPublishing
			pub.UpdatedAt = stale
		}
	}
	store.mu.Unlock()

	publisher := &stubPublisher{fn: func(int) (*PublishOutput, error) {
		return &PublishOutput{ExternalID: "ig-reclaimed"}, nil
	}}
	p := newTestPolicy(store, map[entity.Platform]PlatformPublisher{
		entity.PlatformInstagram: publisher,
	}, &stubAccounts{}, Config{StaleAfter: 10 * time.Minute})

	if err := p.ProcessDuePosts(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.GetByID(ctx, post.ID)
	if got.Status != entity.PostStatusPublished {
		t.Errorf("post status = %s, want published after reclaim", got.Status)
	}
	pubs, _ := store.GetByPostID(ctx, post.ID)
	if pubs[0].Status != entity.PublicationStatusPublished {
		t.Errorf("publication status = %s, want published", pubs[0].Status)
	}
	if publisher.calls != 1 {
		t.Errorf("publisher called %d times, want 1", publisher.calls)
	}
}

func TestFreshPublishingAttemptKeepsItsLease(t *testing.T) {
	ctx := context.Background()
	store := newDispatchStore()
	post := seedScheduledPost(store, entity.PlatformInstagram)

	// Another worker claimed the attempt moments ago
	store.mu.Lock()
	store.posts[post.ID].Status = entity.PostStatusPublishing
	for _, pub := range store.pubs {
		if pub.PostID == post.ID {
			pub.Status = entity.PublicationStatusPublishing
			pub.UpdatedAt = time.Now()
		}
	}
	store.mu.Unlock()

	publisher := &stubPublisher{fn: func(int) (*PublishOutput, error) {
		t.Error("a live attempt must not be taken over")
		return nil, nil
	}}
	p := newTestPolicy(store, map[entity.Platform]PlatformPublisher{
		entity.PlatformInstagram: publisher,
	}, &stubAccounts{}, Config{StaleAfter: 10 * time.Minute})

	if err := p.processPost(ctx, post); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.GetByID(ctx, post.ID)
	if got.Status != entity.PostStatusPublishing {
		t.Errorf("post status = %s, want publishing left to the live worker", got.Status)
	}
}

package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vadim/artflow/internal/domain/post/entity"
	"github.com/vadim/artflow/internal/domain/post/service"
)

// PlatformPublisher defines the interface for one platform's publish call.
// Interfaces are defined here (consumer) not in the upstream packages
// (providers).
type PlatformPublisher interface {
	Publish(ctx context.Context, in PublishInput) (*PublishOutput, error)
}

// PublishInput represents the content handed to a platform publisher
type PublishInput struct {
	ExternalUserID string
	AccessToken    string
	Title          string
	Caption        string
	Hashtags       []string
	MediaURLs      []string
}

// PublishOutput represents the result of a successful platform publish
type PublishOutput struct {
	ExternalID string
	Permalink  string
}

// PublishError carries the platform error classification the retry budget
// depends on. Publishers wrap their failures in it; anything else reaching
// the coordinator is treated as retryable (transient by default, a timeout
// included).
type PublishError struct {
	Kind      string // e.g. "rate_limited", "auth_revoked", "validation"
	Retryable bool
	Err       error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed (%s): %v", e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Credentials are what a connected platform account provides for publishing
type Credentials struct {
	ExternalUserID string
	AccessToken    string
}

// AccountProvider resolves a user's connected account for a platform
type AccountProvider interface {
	GetCredentials(ctx context.Context, userID string, platform entity.Platform) (*Credentials, error)
}

// MediaResolver turns a stored media key into a URL the platform API can fetch
type MediaResolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// Config holds dispatch policy knobs. Defaults live in the config package;
// none of these are hard-coded constants.
type Config struct {
	MaxAttempts    int           // retry budget per publication
	BackoffBase    time.Duration // first retry delay, doubled per attempt
	PublishTimeout time.Duration // per-attempt upstream call bound
	Concurrency    int           // parallel platform attempts per worker
	BatchLimit     int           // due posts fetched per pass
	StaleAfter     time.Duration // attempt lease; a publishing publication untouched this long is reclaimed
}

// Policy is the dispatch coordinator: it turns one due post into
// platform-specific publish attempts and reconciles the outcomes into the
// post's terminal status.
type Policy struct {
	svc        *service.Service
	publishers map[entity.Platform]PlatformPublisher
	accounts   AccountProvider
	media      MediaResolver
	cfg        Config
	logger     *slog.Logger
}

// New creates a new dispatch policy
func New(svc *service.Service, publishers map[entity.Platform]PlatformPublisher, accounts AccountProvider, media MediaResolver, cfg Config, logger *slog.Logger) *Policy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 30 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 60 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 100
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}

	return &Policy{
		svc:        svc,
		publishers: publishers,
		accounts:   accounts,
		media:      media,
		cfg:        cfg,
		logger:     logger,
	}
}

// ProcessDuePosts is one dispatch pass: claim and process every due post,
// then revisit publishing posts whose publications are inside their retry
// window. Safe to run from multiple workers; the store claims arbitrate.
func (p *Policy) ProcessDuePosts(ctx context.Context) error {
	now := time.Now()

	due, err := p.svc.DueForDispatch(ctx, now, p.cfg.BatchLimit)
	if err != nil {
		return fmt.Errorf("listing due posts: %w", err)
	}

	for i := range due {
		if err := p.DispatchPost(ctx, due[i].ID); err != nil {
			p.logger.Error("dispatching post", "post_id", due[i].ID, "error", err)
		}
	}

	retryable, err := p.svc.WithPendingRetries(ctx, now, now.Add(-p.cfg.StaleAfter), p.cfg.BatchLimit)
	if err != nil {
		return fmt.Errorf("listing retryable posts: %w", err)
	}

	for i := range retryable {
		if err := p.processPost(ctx, &retryable[i]); err != nil {
			p.logger.Error("retrying post", "post_id", retryable[i].ID, "error", err)
		}
	}

	return nil
}

// DispatchPost claims one due post and drives its publications. A losing
// claim (another worker got there first, or the user cancelled) is a no-op.
func (p *Policy) DispatchPost(ctx context.Context, postID string) error {
	claimed, err := p.svc.ClaimForDispatch(ctx, postID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	post, err := p.svc.GetPost(ctx, postID)
	if err != nil {
		return err
	}

	return p.processPost(ctx, post)
}

// processPost fans out one attempt per pending publication and reconciles
// the post once nothing is left in flight. Per-platform attempts are
// independent; one platform's failure never touches another's.
func (p *Policy) processPost(ctx context.Context, post *entity.Post) error {
	pubs, err := p.svc.GetPublications(ctx, post.ID)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup

	for i := range pubs {
		pub := pubs[i]
		if pub.Status != entity.PublicationStatusPending && pub.Status != entity.PublicationStatusPublishing {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			p.attempt(ctx, post, pub)
		}()
	}

	wg.Wait()

	status, err := p.svc.FinishDispatch(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("reconciling post: %w", err)
	}
	if status != "" {
		p.logger.Info("post dispatch finished", "post_id", post.ID, "status", status)
	}

	return nil
}

// attempt performs one publish attempt for one publication. A pending
// publication is claimed; one already in publishing is reclaimed only once
// its attempt lease has gone stale, so a live worker keeps its attempt.
func (p *Policy) attempt(ctx context.Context, post *entity.Post, pub entity.Publication) {
	now := time.Now()

	var claimed bool
	var err error
	if pub.Status == entity.PublicationStatusPublishing {
		claimed, err = p.svc.ReclaimAttempt(ctx, pub.ID, now.Add(-p.cfg.StaleAfter))
	} else {
		claimed, err = p.svc.ClaimAttempt(ctx, pub.ID, now)
	}
	if err != nil {
		p.logger.Error("claiming attempt", "publication_id", pub.ID, "error", err)
		return
	}
	if !claimed {
		// Another worker holds the attempt or the backoff window has
		// not elapsed.
		return
	}

	attemptNum := pub.Attempts + 1

	out, err := p.publish(ctx, post, &pub)
	if err == nil {
		if err := p.svc.MarkPublicationPublished(ctx, pub.ID, out.ExternalID); err != nil {
			p.logger.Error("marking publication published", "publication_id", pub.ID, "error", err)
			return
		}
		p.recordAttempt(ctx, pub.ID, attemptNum, entity.AttemptOutcomePublished, "")
		p.logger.Info("publication published",
			"publication_id", pub.ID,
			"platform", pub.Platform,
			"external_id", out.ExternalID,
			"attempt", attemptNum)
		return
	}

	retryable := isRetryable(err)
	if retryable && attemptNum < p.cfg.MaxAttempts {
		backoff := p.cfg.BackoffBase << (attemptNum - 1)
		next := now.Add(backoff)
		if mErr := p.svc.MarkPublicationRetrying(ctx, pub.ID, attemptNum, err.Error(), next); mErr != nil {
			p.logger.Error("marking publication retrying", "publication_id", pub.ID, "error", mErr)
			return
		}
		p.recordAttempt(ctx, pub.ID, attemptNum, entity.AttemptOutcomeRetrying, err.Error())
		p.logger.Warn("publish attempt failed, will retry",
			"publication_id", pub.ID,
			"platform", pub.Platform,
			"attempt", attemptNum,
			"next_attempt_in", backoff,
			"error", err)
		return
	}

	if mErr := p.svc.MarkPublicationFailed(ctx, pub.ID, attemptNum, err.Error()); mErr != nil {
		p.logger.Error("marking publication failed", "publication_id", pub.ID, "error", mErr)
		return
	}
	p.recordAttempt(ctx, pub.ID, attemptNum, entity.AttemptOutcomeFailed, err.Error())
	p.logger.Error("publication failed",
		"publication_id", pub.ID,
		"platform", pub.Platform,
		"attempts", attemptNum,
		"retryable", retryable,
		"error", err)
}

// publish resolves credentials and media, then calls the platform publisher
// bounded by the per-attempt timeout
func (p *Policy) publish(ctx context.Context, post *entity.Post, pub *entity.Publication) (*PublishOutput, error) {
	publisher, ok := p.publishers[pub.Platform]
	if !ok {
		return nil, &PublishError{Kind: "unsupported_platform", Retryable: false, Err: entity.ErrInvalidPlatform}
	}

	creds, err := p.accounts.GetCredentials(ctx, post.UserID, pub.Platform)
	if err != nil {
		return nil, &PublishError{Kind: "auth_missing", Retryable: false, Err: err}
	}

	mediaURLs := make([]string, len(post.Media))
	for i, key := range post.Media {
		url, err := p.media.Resolve(ctx, key)
		if err != nil {
			return nil, &PublishError{Kind: "media_unresolvable", Retryable: false, Err: err}
		}
		mediaURLs[i] = url
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()

	return publisher.Publish(callCtx, PublishInput{
		ExternalUserID: creds.ExternalUserID,
		AccessToken:    creds.AccessToken,
		Title:          post.Title,
		Caption:        post.Content,
		Hashtags:       post.Hashtags,
		MediaURLs:      mediaURLs,
	})
}

func (p *Policy) recordAttempt(ctx context.Context, pubID string, attempt int, outcome entity.AttemptOutcome, errMsg string) {
	if err := p.svc.RecordAttempt(ctx, pubID, attempt, outcome, errMsg); err != nil {
		p.logger.Error("recording dispatch attempt", "publication_id", pubID, "error", err)
	}
}

// isRetryable classifies a publish failure. Explicit classification wins;
// an unclassified error (timeouts included) consumes one retry rather than
// burning the publication outright.
func isRetryable(err error) bool {
	var pubErr *PublishError
	if errors.As(err, &pubErr) {
		return pubErr.Retryable
	}
	return true
}

package app

import (
	"context"
	"errors"
	"strings"

	accountdao "github.com/vadim/artflow/internal/domain/account/dao"
	"github.com/vadim/artflow/internal/domain/post/entity"
	"github.com/vadim/artflow/internal/domain/post/policy"
	"github.com/vadim/artflow/internal/httpx/upstream/instagram"
	"github.com/vadim/artflow/internal/httpx/upstream/pinterest"
)

// instagramPublisherAdapter adapts instagram.Publisher to policy.PlatformPublisher
type instagramPublisherAdapter struct {
	publisher *instagram.Publisher
}

func (a *instagramPublisherAdapter) Publish(ctx context.Context, in policy.PublishInput) (*policy.PublishOutput, error) {
	out, err := a.publisher.Publish(ctx, instagram.PublishInput{
		UserID:      in.ExternalUserID,
		AccessToken: in.AccessToken,
		Caption:     composeCaption(in.Caption, in.Hashtags),
		MediaURLs:   in.MediaURLs,
	})
	if err != nil {
		var apiErr *instagram.APIError
		if errors.As(err, &apiErr) {
			return nil, &policy.PublishError{
				Kind:      apiErr.Kind(),
				Retryable: apiErr.Retryable(),
				Err:       apiErr,
			}
		}
		return nil, err
	}
	return &policy.PublishOutput{ExternalID: out.MediaID}, nil
}

// pinterestPublisherAdapter adapts pinterest.Publisher to policy.PlatformPublisher
type pinterestPublisherAdapter struct {
	publisher *pinterest.Publisher
}

func (a *pinterestPublisherAdapter) Publish(ctx context.Context, in policy.PublishInput) (*policy.PublishOutput, error) {
	out, err := a.publisher.Publish(ctx, pinterest.PublishInput{
		AccessToken: in.AccessToken,
		Title:       in.Title,
		Description: composeCaption(in.Caption, in.Hashtags),
		MediaURLs:   in.MediaURLs,
	})
	if err != nil {
		var apiErr *pinterest.APIError
		if errors.As(err, &apiErr) {
			return nil, &policy.PublishError{
				Kind:      apiErr.Kind(),
				Retryable: apiErr.Retryable(),
				Err:       apiErr,
			}
		}
		return nil, err
	}
	return &policy.PublishOutput{ExternalID: out.PinID}, nil
}

// composeCaption appends the hashtag block below the caption text
func composeCaption(caption string, hashtags []string) string {
	if len(hashtags) == 0 {
		return caption
	}
	tags := make([]string, len(hashtags))
	for i, h := range hashtags {
		if !strings.HasPrefix(h, "#") {
			h = "#" + h
		}
		tags[i] = h
	}
	block := strings.Join(tags, " ")
	if caption == "" {
		return block
	}
	return caption + "\n\n" + block
}

// connectionAccountProvider adapts the connection store to policy.AccountProvider
type connectionAccountProvider struct {
	connections accountdao.ConnectionRepository
}

func (p *connectionAccountProvider) GetCredentials(ctx context.Context, userID string, platform entity.Platform) (*policy.Credentials, error) {
	conn, err := p.connections.GetActive(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	return &policy.Credentials{
		ExternalUserID: conn.ExternalUserID,
		AccessToken:    conn.AccessToken,
	}, nil
}

package instagram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrContainerNotReady is returned when a media container never reaches
// FINISHED within the polling window
var ErrContainerNotReady = errors.New("media container is not ready for publishing")

// Publisher handles the complete publishing workflow for Instagram content
type Publisher struct {
	client *Client
}

// NewPublisher creates a new Instagram publisher
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// PublishInput represents input for publishing content
type PublishInput struct {
	UserID      string
	AccessToken string
	Caption     string
	MediaURLs   []string // ordered, publicly fetchable
}

// PublishOutput represents output from publishing content
type PublishOutput struct {
	MediaID string
}

// Publish publishes a feed post to Instagram.
// Handles the complete 3-step workflow: create container(s) -> wait for
// processing -> publish. A single media URL becomes a plain post, several
// become a carousel.
func (p *Publisher) Publish(ctx context.Context, in PublishInput) (*PublishOutput, error) {
	if len(in.MediaURLs) == 0 {
		return nil, errors.New("at least one media URL is required")
	}

	var containerID string
	var err error

	if len(in.MediaURLs) == 1 {
		containerID, err = p.createMediaContainer(ctx, in, in.MediaURLs[0], in.Caption, false)
	} else {
		containerID, err = p.createCarouselContainer(ctx, in)
	}
	if err != nil {
		return nil, fmt.Errorf("creating media container: %w", err)
	}

	if err := p.waitForContainer(ctx, containerID, in.AccessToken); err != nil {
		return nil, fmt.Errorf("waiting for container: %w", err)
	}

	out, err := p.client.PublishMedia(ctx, PublishMediaInput{
		UserID:      in.UserID,
		AccessToken: in.AccessToken,
		ContainerID: containerID,
	})
	if err != nil {
		return nil, fmt.Errorf("publishing container: %w", err)
	}

	return &PublishOutput{MediaID: out.ID}, nil
}

// createMediaContainer creates one container for a single media URL
func (p *Publisher) createMediaContainer(ctx context.Context, in PublishInput, mediaURL, caption string, isCarouselItem bool) (string, error) {
	containerIn := CreateMediaContainerInput{
		UserID:      in.UserID,
		AccessToken: in.AccessToken,
		Caption:     caption,
		IsCarousel:  isCarouselItem,
	}

	if isVideoURL(mediaURL) {
		containerIn.VideoURL = mediaURL
	} else {
		containerIn.ImageURL = mediaURL
	}

	out, err := p.client.CreateMediaContainer(ctx, containerIn)
	if err != nil {
		return "", err
	}

	return out.ID, nil
}

// createCarouselContainer creates item containers plus the carousel parent
func (p *Publisher) createCarouselContainer(ctx context.Context, in PublishInput) (string, error) {
	children := make([]string, 0, len(in.MediaURLs))
	for _, u := range in.MediaURLs {
		childID, err := p.createMediaContainer(ctx, in, u, "", true)
		if err != nil {
			return "", fmt.Errorf("creating carousel item: %w", err)
		}
		children = append(children, childID)
	}

	out, err := p.client.CreateMediaContainer(ctx, CreateMediaContainerInput{
		UserID:      in.UserID,
		AccessToken: in.AccessToken,
		Caption:     in.Caption,
		Children:    children,
	})
	if err != nil {
		return "", err
	}

	return out.ID, nil
}

// waitForContainer polls until the container is ready to publish.
// Image containers usually finish immediately; video processing takes a while.
func (p *Publisher) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	const (
		pollInterval = 2 * time.Second
		maxPolls     = 15
	)

	for i := 0; i < maxPolls; i++ {
		status, err := p.client.GetContainerStatus(ctx, GetContainerStatusInput{
			ContainerID: containerID,
			AccessToken: accessToken,
		})
		if err != nil {
			return err
		}

		switch status.Status {
		case ContainerStatusFinished:
			return nil
		case ContainerStatusError, ContainerStatusExpired:
			return fmt.Errorf("%w: %s", ErrContainerNotReady, status.ErrorMessage)
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return ErrContainerNotReady
}

// isVideoURL guesses the media kind from the URL path extension
func isVideoURL(u string) bool {
	path := strings.ToLower(u)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch {
	case strings.HasSuffix(path, ".mp4"), strings.HasSuffix(path, ".mov"), strings.HasSuffix(path, ".m4v"):
		return true
	}
	return false
}

package pinterest

import (
	"context"
	"errors"
	"fmt"
)

// Publisher handles the publishing workflow for Pinterest pins
type Publisher struct {
	client *Client
}

// NewPublisher creates a new Pinterest publisher
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// PublishInput represents input for publishing a pin
type PublishInput struct {
	AccessToken string
	Title       string
	Description string
	MediaURLs   []string
}

// PublishOutput represents output from publishing a pin
type PublishOutput struct {
	PinID string
}

// Publish creates a pin from the first media URL. Pinterest has no
// carousel equivalent on this endpoint; additional media is ignored.
func (p *Publisher) Publish(ctx context.Context, in PublishInput) (*PublishOutput, error) {
	if len(in.MediaURLs) == 0 {
		return nil, errors.New("at least one media URL is required")
	}

	boardID, err := p.client.GetDefaultBoard(ctx, GetDefaultBoardInput{AccessToken: in.AccessToken})
	if err != nil {
		return nil, fmt.Errorf("resolving board: %w", err)
	}

	out, err := p.client.CreatePin(ctx, CreatePinInput{
		AccessToken: in.AccessToken,
		BoardID:     boardID,
		Title:       in.Title,
		Description: in.Description,
		MediaURL:    in.MediaURLs[0],
	})
	if err != nil {
		return nil, fmt.Errorf("creating pin: %w", err)
	}

	return &PublishOutput{PinID: out.ID}, nil
}

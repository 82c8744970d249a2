// Package webhook sends completion notifications for background
// generations to a configured endpoint.
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Payload is the notification body.
type Payload struct {
	Event          string    `json:"event"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	ArtifactSetID  string    `json:"artifact_set_id,omitempty"`
	Error          string    `json:"error,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// HTTPService posts notifications with retries. An empty URL disables it.
type HTTPService struct {
	client *resty.Client
	url    string
	log    zerolog.Logger
}

// NewHTTPService creates the webhook sender.
func NewHTTPService(url string, log zerolog.Logger) *HTTPService {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second)

	return &HTTPService{
		client: client,
		url:    url,
		log:    log.With().Str("component", "webhook").Logger(),
	}
}

// NotifyCompleted reports a finished generation.
func (s *HTTPService) NotifyCompleted(ctx context.Context, conversationID, userID, artifactSetID string) error {
	return s.send(ctx, Payload{
		Event:          "generation.completed",
		ConversationID: conversationID,
		UserID:         userID,
		ArtifactSetID:  artifactSetID,
		OccurredAt:     time.Now().UTC(),
	})
}

// NotifyFailed reports a failed generation.
func (s *HTTPService) NotifyFailed(ctx context.Context, conversationID, userID, message string) error {
	return s.send(ctx, Payload{
		Event:          "generation.failed",
		ConversationID: conversationID,
		UserID:         userID,
		Error:          message,
		OccurredAt:     time.Now().UTC(),
	})
}

func (s *HTTPService) send(ctx context.Context, payload Payload) error {
	if s.url == "" {
		s.log.Debug().Str("event", payload.Event).Msg("no webhook URL configured, skipping notification")
		return nil
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Agent-Event", payload.Event).
		SetBody(payload).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode())
	}

	s.log.Info().
		Str("event", payload.Event).
		Str("conversation_id", payload.ConversationID).
		Msg("webhook delivered")
	return nil
}

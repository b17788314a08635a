package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ptpal/internal/config"

	"github.com/rs/zerolog"
)

// TokenSource resolves a recipient to their device push token.
type TokenSource interface {
	FCMToken(ctx context.Context, trainerID string) (string, error)
}

// FCMDispatcher sends push notifications through the FCM legacy HTTP API.
// When no server key is configured it degrades to a logged no-op so local
// development works without credentials.
type FCMDispatcher struct {
	config *config.FCMConfig
	tokens TokenSource
	client *http.Client
	logger zerolog.Logger
}

// NewFCMDispatcher creates a new FCM dispatcher
func NewFCMDispatcher(cfg *config.FCMConfig, tokens TokenSource, logger zerolog.Logger) *FCMDispatcher {
	return &FCMDispatcher{
		config: cfg,
		tokens: tokens,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		logger: logger.With().Str("component", "fcm").Logger(),
	}
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Priority     string            `json:"priority"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (d *FCMDispatcher) Dispatch(ctx context.Context, n *Notification) error {
	if !d.config.IsEnabled() {
		d.logger.Debug().Str("recipient", n.RecipientID).Msg("FCM not configured, skipping push")
		return nil
	}

	token, err := d.tokens.FCMToken(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("resolve fcm token: %w", err)
	}
	if token == "" {
		d.logger.Debug().Str("recipient", n.RecipientID).Msg("recipient has no FCM token")
		return nil
	}

	body := n.Body
	if len(body) > 100 {
		body = body[:97] + "..."
	}

	payload, err := json.Marshal(fcmMessage{
		To:           token,
		Notification: fcmNotification{Title: n.Title, Body: body},
		Data:         n.Data,
		Priority:     "high",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+d.config.ServerKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fcm send: status %d: %s", resp.StatusCode, raw)
	}

	d.logger.Debug().Str("recipient", n.RecipientID).Str("title", n.Title).Msg("push sent")
	return nil
}

// Package mailer wraps the order-confirmation mail endpoint.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	errors "github.com/hexlibris/bookbot/internal/errors"
	"github.com/hexlibris/bookbot/pkg/config"
	"github.com/hexlibris/bookbot/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Sender fires order confirmation notifications.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, name, email, content string) error
}

// Client posts confirmation payloads to the mail-sending endpoint. Calls are
// best-effort from the dialog's perspective; the circuit breaker keeps a
// failing endpoint from being hammered.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *errors.CircuitBreaker
	log        *slog.Logger
}

// New builds a mail client with a bounded request timeout.
func New(cfg config.MailerConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    errors.NewCircuitBreaker(),
		log:        log,
	}
}

type confirmationRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Content string `json:"content"`
}

// SendOrderConfirmation posts the confirmation mail, retrying transport
// failures with bounded backoff.
func (c *Client) SendOrderConfirmation(ctx context.Context, name, email, content string) error {
	payload, err := json.Marshal(confirmationRequest{
		Name:    name,
		Email:   email,
		Content: content,
	})
	if err != nil {
		metrics.RecordConfirmationSend("encode_error")
		return fmt.Errorf("encode confirmation payload: %w", err)
	}

	err = c.breaker.Call(func() error {
		return errors.WithRetry(ctx, func() error {
			return c.post(ctx, payload)
		})
	})
	if err != nil {
		metrics.RecordConfirmationSend("error")
		return err
	}

	metrics.RecordConfirmationSend("ok")
	return nil
}

func (c *Client) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return errors.NewTransportError("mailer", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransportError("mailer", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return errors.NewTransportError("mailer", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body))
	}

	return nil
}

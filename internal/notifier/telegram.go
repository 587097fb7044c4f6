package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const defaultAPIBase = "https://api.telegram.org"

// ErrDeliveryFailed is returned once every send attempt has failed.
var ErrDeliveryFailed = errors.New("telegram delivery failed")

// RetryPolicy bounds how often and how patiently a message is resent.
type RetryPolicy struct {
	Attempts int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultRetryPolicy is three attempts with 60–120s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, MinDelay: 60 * time.Second, MaxDelay: 120 * time.Second}
}

// Delay draws a whole-second pause uniformly from [MinDelay, MaxDelay] using intn.
func (p RetryPolicy) Delay(intn func(n int) int) time.Duration {
	lo := int(p.MinDelay / time.Second)
	hi := int(p.MaxDelay / time.Second)
	if hi <= lo {
		return p.MinDelay
	}
	return time.Duration(lo+intn(hi-lo+1)) * time.Second
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
	Policy   RetryPolicy

	// Intn and Sleep are replaceable in tests.
	Intn  func(n int) int
	Sleep func(ctx context.Context, d time.Duration) error

	logger zerolog.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, policy RetryPolicy, logger zerolog.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  defaultAPIBase,
		Client: &http.Client{
			Timeout:   20 * time.Second,
			Transport: transport,
		},
		Policy: policy,
		Intn:   rand.Intn,
		Sleep:  sleepCtx,
		logger: logger.With().Str("component", "telegram").Logger(),
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Send makes a single delivery attempt.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.BotToken)
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry attempts delivery up to Policy.Attempts times with a random pause between failures.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string) error {
	attempts := t.Policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := t.Send(ctx, text)
		if err == nil {
			t.logger.Info().Int("attempt", attempt).Msg("message sent")
			return nil
		}
		lastErr = err
		t.logger.Warn().Err(err).Int("attempt", attempt).Int("attempts", attempts).Msg("telegram send failed")

		if attempt == attempts {
			break
		}
		delay := t.Policy.Delay(t.Intn)
		t.logger.Info().Dur("delay", delay).Msg("retrying telegram send")
		if err := t.Sleep(ctx, delay); err != nil {
			return fmt.Errorf("%w: interrupted after %d attempts: %w", ErrDeliveryFailed, attempt, err)
		}
	}
	return fmt.Errorf("%w: %d attempts exhausted: %w", ErrDeliveryFailed, attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

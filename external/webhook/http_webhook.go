package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/foxseedlab/gunkan/internal/webhook"
)

const httpSendTimeout = 10 * time.Second

type HTTPSender struct {
	webhookURL string
	loc        *time.Location
	client     *http.Client
}

func NewHTTPSender(webhookURL string, loc *time.Location) webhook.Sender {
	return &HTTPSender{
		webhookURL: webhookURL,
		loc:        loc,
		client:     &http.Client{Timeout: httpSendTimeout},
	}
}

func (s *HTTPSender) SendAlert(ctx context.Context, alert webhook.Alert) error {
	if s.webhookURL == "" {
		return nil
	}

	b, err := json.Marshal(webhook.BuildAlertPayload(alert, s.loc))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

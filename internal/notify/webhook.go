package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Notifier sends operational alerts. Delivery is fire-and-forget: a failed
// send is logged and must never fail the calling operation.
type Notifier interface {
	Send(ctx context.Context, message string)
}

type webhookNotifier struct {
	url  string
	http *http.Client
}

func NewWebhookNotifier(url string) Notifier {
	return &webhookNotifier{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *webhookNotifier) Send(ctx context.Context, message string) {
	if n.url == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		slog.Info(err.Error())
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(payload))
	if err != nil {
		slog.Info(err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Info("alert webhook returned non-2xx status")
	}
}

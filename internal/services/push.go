package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quartierboard/board-api/internal/domain"
	"github.com/quartierboard/board-api/internal/logger"
)

// PushSender delivers notification messages to the push gateway,
// addressing the player IDs stored on subscriptions.
type PushSender struct {
	appID    string
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewPushSender(appID, apiKey, endpoint string) *PushSender {
	return &PushSender{
		appID:    appID,
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type pushRequest struct {
	AppID            string            `json:"app_id"`
	IncludePlayerIDs []string          `json:"include_player_ids"`
	Contents         map[string]string `json:"contents"`
	URL              string            `json:"url,omitempty"`
}

// Notify sends one message to every subscription's device.
func (p *PushSender) Notify(ctx context.Context, subs []domain.Subscription, content, url string) error {
	if p.appID == "" || len(subs) == 0 {
		return nil
	}

	playerIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		if sub.PlayerID != "" {
			playerIDs = append(playerIDs, sub.PlayerID)
		}
	}
	if len(playerIDs) == 0 {
		return nil
	}

	body, err := json.Marshal(pushRequest{
		AppID:            p.appID,
		IncludePlayerIDs: playerIDs,
		Contents:         map[string]string{"en": content},
		URL:              url,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// NotifyAsync fires Notify in the background; delivery is best-effort
// and failures are only logged. The caller should NOT block on this.
func (p *PushSender) NotifyAsync(subs []domain.Subscription, content, url string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := p.Notify(ctx, subs, content, url); err != nil {
			logger.Log.Errorw("push notification failed", "error", err)
		}
	}()
}

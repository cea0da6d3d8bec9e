// Package activities publishes chat "post" commands to the activity API.
package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pscheid92/buzzbot/internal/domain"
)

const maxErrorBody = 512

var ErrNoPostURL = errors.New("activity API returned no post URL")

type activityRequest struct {
	Data activityData `json:"data"`
}

type activityData struct {
	Object activityObject `json:"object"`
}

type activityObject struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type activityResponse struct {
	Data struct {
		Links struct {
			Alternate []struct {
				Href string `json:"href"`
			} `json:"alternate"`
		} `json:"links"`
	} `json:"data"`
}

type Poster struct {
	endpoint   string
	httpClient *http.Client
}

// NewPoster targets <apiURL>/activities/@me/@self.
func NewPoster(apiURL string, timeout time.Duration) *Poster {
	return &Poster{
		endpoint:   strings.TrimRight(apiURL, "/") + "/activities/@me/@self?alt=json",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Post publishes body as a note and returns the URL of the new activity.
func (p *Poster) Post(ctx context.Context, token *domain.UserToken, body string) (string, error) {
	payload, err := json.Marshal(activityRequest{Data: activityData{Object: activityObject{Type: "note", Content: body}}})
	if err != nil {
		return "", fmt.Errorf("failed to encode activity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build activity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach activity API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("activity API responded %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded activityResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode activity response: %w", err)
	}
	if len(decoded.Data.Links.Alternate) == 0 || decoded.Data.Links.Alternate[0].Href == "" {
		return "", ErrNoPostURL
	}
	return decoded.Data.Links.Alternate[0].Href, nil
}

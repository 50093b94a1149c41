package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultIPLookupURL echoes the caller's public address as {"ip": "..."}.
const DefaultIPLookupURL = "https://api.ipify.org?format=json"

type IPLookup interface {
	LookupIP(ctx context.Context) (string, error)
}

// HTTPIPLookup queries a third-party IP echo service.
type HTTPIPLookup struct {
	URL    string
	Client *http.Client
}

func NewHTTPIPLookup(url string) *HTTPIPLookup {
	if url == "" {
		url = DefaultIPLookupURL
	}
	return &HTTPIPLookup{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (l *HTTPIPLookup) LookupIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build ip lookup request: %w", err)
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ip lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ip lookup returned status %d", resp.StatusCode)
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode ip lookup response: %w", err)
	}
	if body.IP == "" {
		return "", fmt.Errorf("ip lookup returned an empty address")
	}
	return body.IP, nil
}

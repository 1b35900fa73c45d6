/**
 * @description
 * This package provides a client for communicating with the auth service.
 * It encapsulates the logic for resolving a verified bearer subject to its
 * role profile (role plus rider/asm/sm identifiers), which the service caches
 * locally as its principal projection.
 */
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrProfileNotFound is returned when the auth service has no profile for the
// subject.
var ErrProfileNotFound = errors.New("auth profile not found")

// Client is a client for the auth service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new auth service client.
func NewClient(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Profile is the role profile the auth service keeps for a subject.
type Profile struct {
	UserID  string  `json:"user_id"`
	Subject string  `json:"subject"`
	Role    string  `json:"role"`
	RiderID *string `json:"rider_id,omitempty"`
	ASMID   *string `json:"asm_id,omitempty"`
	SMID    *string `json:"sm_id,omitempty"`
	Name    *string `json:"name,omitempty"`
}

// GetProfile fetches the role profile for a verified bearer subject.
func (c *Client) GetProfile(ctx context.Context, subject string) (*Profile, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("auth service base url is empty")
	}

	url := fmt.Sprintf("%s/internal/profiles/%s", c.baseURL, subject)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("X-Internal-API-Key", strings.TrimSpace(c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to auth service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("auth service returned error status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &profile, nil
}

// Package segment adapts an external segment-membership service to the
// Runtime Evaluator's SegmentService port. The service's own internals
// are out of scope (spec.md §1); this is a thin HTTP client.
package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client calls a segment service's "segments for contact" endpoint.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

// NewClient builds a Client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{HTTPClient: &http.Client{Timeout: timeout}, BaseURL: baseURL}
}

type segmentsResponse struct {
	Segments []string `json:"segments"`
}

// SegmentsForContact fetches the contact's segment membership as a set.
func (c *Client) SegmentsForContact(ctx context.Context, contactID, countryISO string) (map[string]struct{}, error) {
	endpoint := fmt.Sprintf("%s/contacts/%s/segments?country=%s",
		c.BaseURL, url.PathEscape(contactID), url.QueryEscape(countryISO))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("segment service returned status %d", resp.StatusCode)
	}

	var body segmentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	segments := make(map[string]struct{}, len(body.Segments))
	for _, s := range body.Segments {
		segments[s] = struct{}{}
	}
	return segments, nil
}

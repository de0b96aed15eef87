// Package loki pushes verification events to Grafana Loki's push API.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"agrovision-auth/internal/events"
)

// Job is the job label on every stream this package writes.
const Job = "otpauth"

var ErrNoBaseURL = errors.New("loki: base URL is empty")

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Labels map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// Label values may only hold these characters; anything else becomes '_'.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:.]`)

// Client pushes single log lines to one Loki instance.
type Client struct {
	pushURL string
	http    *http.Client
}

// NewClient returns a client for the Loki at baseURL (e.g. http://localhost:3100).
// httpClient may be nil to use a client with a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{pushURL: strings.TrimSuffix(baseURL, "/") + "/loki/api/v1/push", http: httpClient}, nil
}

// PushEventJSON pushes one serialized events.Event. Its type, source, and outcome become stream
// labels and created_at the entry timestamp. A line that does not decode is pushed as-is at the
// current time.
func (c *Client) PushEventJSON(ctx context.Context, raw []byte) error {
	labels := map[string]string{}
	ts := time.Now().UTC()
	var ev events.Event
	if err := json.Unmarshal(raw, &ev); err == nil {
		labels["event_type"] = ev.Type
		labels["source"] = ev.Source
		labels["outcome"] = ev.Outcome
		if !ev.CreatedAt.IsZero() {
			ts = ev.CreatedAt
		}
	}
	return c.Push(ctx, ts, string(raw), labels)
}

// Push sends line at ts with labels plus job=otpauth. Empty label values are dropped.
func (c *Client) Push(ctx context.Context, ts time.Time, line string, labels map[string]string) error {
	set := map[string]string{"job": Job}
	for k, v := range labels {
		if v = labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_"); v != "" {
			set[k] = v
		}
	}
	payload, err := json.Marshal(pushRequest{Streams: []stream{{
		Labels: set,
		Values: [][2]string{{strconv.FormatInt(ts.UnixNano(), 10), line}},
	}}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pushURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("loki: push: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}

package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	maxErrorBodySize = 1 << 20 // 1 MiB
)

// DefaultBackoff is the retry schedule for transient failures. One attempt
// per entry; the final entry's wait is only consumed by Retry-After handling.
var DefaultBackoff = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

// Client is the retrying HTTP core shared by every upstream fetcher. Header
// carries the static auth headers for the target API.
type Client struct {
	HTTP    *http.Client
	Header  http.Header
	Backoff []time.Duration
}

func New(header http.Header) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: defaultTimeout},
		Header:  header,
		Backoff: DefaultBackoff,
	}
}

func (c *Client) GetJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.Do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) PostJSON(ctx context.Context, endpoint string, in, out any) error {
	body, err := c.Do(ctx, http.MethodPost, endpoint, in)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) PutJSON(ctx context.Context, endpoint string, in, out any) error {
	body, err := c.Do(ctx, http.MethodPut, endpoint, in)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string) error {
	_, err := c.Do(ctx, http.MethodDelete, endpoint, nil)
	return err
}

// Do issues one logical request with the retry schedule applied to
// connection failures, 5xx responses, and 429s. 403 returns a
// PermissionError immediately; other 4xx return a ValidationError.
func (c *Client) Do(ctx context.Context, method, endpoint string, in any) ([]byte, error) {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	backoff := c.Backoff
	if len(backoff) == 0 {
		backoff = DefaultBackoff
	}

	var payload []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		payload = encoded
	}

	var lastErr error
	for attempt := 0; attempt < len(backoff); attempt++ {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return nil, err
		}
		for key, values := range c.Header {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
		if payload != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", "application/json")
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &TransientError{URL: endpoint, Err: err}
			if attempt == len(backoff)-1 {
				return nil, lastErr
			}
			if err := sleep(ctx, backoff[attempt]); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}

		switch {
		case resp.StatusCode == http.StatusForbidden:
			return nil, &PermissionError{URL: endpoint, Message: extractAPIErrorMessage(body)}

		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = &TransientError{Status: resp.StatusCode, URL: endpoint, Message: extractAPIErrorMessage(body)}
			if attempt == len(backoff)-1 {
				return nil, lastErr
			}
			wait, ok := retryAfterDuration(resp.Header.Get("Retry-After"))
			if !ok {
				wait = backoff[attempt]
			}
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}

		case resp.StatusCode >= 500:
			lastErr = &TransientError{Status: resp.StatusCode, URL: endpoint, Message: extractAPIErrorMessage(body)}
			if attempt == len(backoff)-1 {
				return nil, lastErr
			}
			if err := sleep(ctx, backoff[attempt]); err != nil {
				return nil, err
			}

		case resp.StatusCode >= 400:
			return nil, &ValidationError{Status: resp.StatusCode, URL: endpoint, Message: extractAPIErrorMessage(body)}

		default:
			return body, nil
		}
	}
	return nil, lastErr
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func retryAfterDuration(header string) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func extractAPIErrorMessage(body []byte) string {
	var payload struct {
		Errors  []string `json:"errors"`
		Error   string   `json:"error"`
		Message string   `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Errors) > 0 {
			if first := strings.TrimSpace(payload.Errors[0]); first != "" {
				return first
			}
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return ""
	}
	if strings.HasPrefix(msg, "<!DOCTYPE html") || strings.HasPrefix(msg, "<html") {
		return ""
	}
	msg = strings.Join(strings.Fields(msg), " ")
	const maxLen = 300
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "..."
	}
	return msg
}

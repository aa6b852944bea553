package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 10 << 20

// StatusError is returned when an upstream API answers with a non-2xx status
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned error status: %d, body: %s", e.Service, e.StatusCode, e.Body)
}

// doJSON sends in (when non-nil) as a JSON body and decodes a JSON response into out
func doJSON(ctx context.Context, client *http.Client, service, method, url string, header http.Header, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		req.Header[key] = values
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Service: service, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseRate accepts a JSON number or a numeric string (comma or dot decimal
// separator) and reports false for anything else, including non-positive values
func parseRate(v interface{}) (float64, bool) {
	var rate float64
	switch value := v.(type) {
	case float64:
		rate = value
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return 0, false
		}
		rate = f
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		rate = f
	default:
		return 0, false
	}

	if rate <= 0 {
		return 0, false
	}
	return rate, true
}

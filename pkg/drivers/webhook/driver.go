// Package webhook provides the HTTP webhook driver.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/autoflow/pkg/drivers"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/protocol"
)

const maxResponseBytes = 1 << 20

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the status is worth retrying.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type Driver struct {
	client *http.Client
}

// New creates the driver. A nil client uses a client without a global
// timeout; per request timeouts come from the node's timeout parameter.
func New(client *http.Client) *Driver {
	if client == nil {
		client = &http.Client{}
	}

	return &Driver{client: client}
}

func (d *Driver) Type() string {
	return models.NodeTypeWebhook
}

func (d *Driver) Execute(ctx context.Context, req protocol.Request) protocol.Result {
	url := drivers.String(req.Params, "url")
	if url == "" {
		return protocol.Fatal("missing required field 'url'")
	}

	method := strings.ToUpper(drivers.String(req.Params, "method"))
	if method == "" {
		method = http.MethodPost
	}

	if !validMethods[method] {
		return protocol.Fatal(fmt.Sprintf("invalid HTTP method: %s", method))
	}

	timeout := drivers.Int(req.Params, "timeout", 30)
	if timeout < 1 || timeout > 300 {
		return protocol.Fatal("timeout must be between 1 and 300 seconds")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	result, err := d.performRequest(ctx, method, url, drivers.String(req.Params, "body"), drivers.StringMap(req.Params, "headers"))
	if err != nil {
		httpErr := &HTTPError{}
		if errors.As(err, &httpErr) && !httpErr.Retryable() {
			return protocol.Fatal(err.Error())
		}

		return protocol.Retryable(err.Error())
	}

	return protocol.Success(result)
}

// performRequest executes a single HTTP request.
func (d *Driver) performRequest(ctx context.Context, method, url, body string, headers map[string]string) (map[string]any, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, &HTTPError{StatusCode: http.StatusBadRequest, Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"headers":     resp.Header,
		"body":        string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		result["json"] = jsonBody
	}

	return result, nil
}

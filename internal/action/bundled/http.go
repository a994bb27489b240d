package bundled

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vk/grana/internal/action"
	"github.com/vk/grana/internal/ctxlog"
)

// HTTP performs a single request and yields status_code and body outcomes.
type HTTP struct {
	// Client defaults to http.DefaultClient when nil.
	Client *http.Client
}

// Run implements action.Runner.
func (h HTTP) Run(ctx context.Context, inv *action.Invocation) error {
	url, ok := inv.StringParam("url")
	if !ok {
		return action.Failf("http: 'url' parameter is required")
	}
	method, ok := inv.StringParam("method")
	if !ok {
		method = http.MethodGet
	}
	var body io.Reader
	if payload, ok := inv.StringParam("body"); ok {
		body = strings.NewReader(payload)
	}

	ctxlog.FromContext(ctx).Info("making HTTP request", "action", inv.Name, "method", method, "url", url)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return action.Failf("http: failed to create request: %v", err)
	}
	if headers, ok := inv.StringMapParam("headers"); ok {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return action.Failf("http: request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return action.Failf("http: failed to read response body: %v", err)
	}
	ctxlog.FromContext(ctx).Info("received HTTP response", "action", inv.Name, "status", resp.Status)

	inv.Emit.YieldOutcome("status_code", strconv.Itoa(resp.StatusCode))
	inv.Emit.YieldOutcome("body", string(payload))
	if resp.StatusCode >= http.StatusBadRequest {
		return action.Failf("http: server responded with %s", resp.Status)
	}
	return nil
}

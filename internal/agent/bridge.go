// Package agent forwards chat requests to the externally hosted
// conversational-agent runtime. The bridge is stateless; its one contract is
// that a body-carrying request leaves this process with the caller's
// identity present under config.configurable.user_id.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobpilot/internal/session"
)

// identityField is the key the agent runtime reads the caller from.
const identityField = "user_id"

// Bridge forwards requests to the agent runtime.
type Bridge struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewBridge constructs a bridge for the given upstream base URL.
func NewBridge(baseURL string, timeout time.Duration, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Forward sends one request upstream and returns the raw response for the
// caller to stream back. Body-carrying methods get the identity injected;
// reads and deletes pass through untouched. An unresolved identity or an
// unparseable body forwards the original bytes unmodified rather than
// rejecting the request.
func (b *Bridge) Forward(ctx context.Context, id session.Identity, method, path string, header http.Header, body []byte) (*http.Response, error) {
	outBody := body
	if methodCarriesBody(method) && id.Resolved() && len(body) > 0 {
		outBody = injectIdentity(body, id, b.logger)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bytes.NewReader(outBody))
	if err != nil {
		return nil, fmt.Errorf("build agent request: %w", err)
	}
	copyForwardHeaders(req.Header, header)
	if len(outBody) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forward to agent: %w", err)
	}
	return resp, nil
}

func methodCarriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// injectIdentity ensures config.configurable.user_id is present in the JSON
// body. A pre-existing value is never overwritten. Any decode or re-encode
// failure returns the original bytes.
func injectIdentity(body []byte, id session.Identity, logger *slog.Logger) []byte {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Debug("agent body is not json, forwarding unmodified", slog.Any("error", err))
		return body
	}

	cfg, ok := payload["config"].(map[string]any)
	if !ok {
		cfg = map[string]any{}
		payload["config"] = cfg
	}
	configurable, ok := cfg["configurable"].(map[string]any)
	if !ok {
		configurable = map[string]any{}
		cfg["configurable"] = configurable
	}
	if _, present := configurable[identityField]; !present {
		configurable[identityField] = strconv.FormatUint(uint64(id.UserID), 10)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return out
}

// hop-by-hop headers per RFC 9110 that must not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func copyForwardHeaders(dst, src http.Header) {
	for key, values := range src {
		dst[key] = append([]string(nil), values...)
	}
	for _, key := range hopHeaders {
		dst.Del(key)
	}
	// The upstream authenticates the service, not the end user.
	dst.Del("Authorization")
	dst.Del("Cookie")
	dst.Del("Content-Length")
}

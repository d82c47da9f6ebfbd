package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobpilot/internal/agent"
	"jobpilot/internal/api/middleware"
)

// maxAgentBodyBytes bounds buffered request bodies on the passthrough.
const maxAgentBodyBytes = 1 << 20

// AgentHandler relays chat requests to the agent bridge and streams the
// upstream response back.
type AgentHandler struct {
	bridge *agent.Bridge
	logger *slog.Logger
}

// NewAgentHandler constructs the handler.
func NewAgentHandler(bridge *agent.Bridge, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{bridge: bridge, logger: logger}
}

// Proxy forwards the request under /v1/agent/*path to the agent runtime.
// An anonymous caller is forwarded as-is, not rejected.
func (h *AgentHandler) Proxy(c *gin.Context) {
	id := middleware.IdentityFromContext(c)

	var body []byte
	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAgentBodyBytes+1))
		if err != nil {
			BadRequest(c, "failed to read request body")
			return
		}
		if len(raw) > maxAgentBodyBytes {
			Error(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		body = raw
	}

	upstreamPath := c.Param("path")
	if c.Request.URL.RawQuery != "" {
		upstreamPath += "?" + c.Request.URL.RawQuery
	}

	resp, err := h.bridge.Forward(c.Request.Context(), id, c.Request.Method, upstreamPath, c.Request.Header, body)
	if err != nil {
		middleware.LoggerFromContext(c).Error("agent forwarding failed", slog.Any("error", err))
		Error(c, http.StatusBadGateway, "agent unavailable")
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, value := range values {
			c.Writer.Header().Add(key, value)
		}
	}
	c.Status(resp.StatusCode)

	// Stream: the agent runtime may send incremental chunks.
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		middleware.LoggerFromContext(c).Info("agent response stream interrupted", slog.Any("error", err))
	}
}

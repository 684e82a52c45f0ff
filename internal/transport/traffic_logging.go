package transport

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
)

const maxLoggedPayload = 2048

// trafficLogger logs each request and response with its payload at debug
// level. Tokens are never logged.
type trafficLogger struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func withTrafficLogging(hc *http.Client, logger *slog.Logger) *http.Client {
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	wrapped := *hc
	wrapped.Transport = &trafficLogger{next: next, logger: logger}
	return &wrapped
}

func (t *trafficLogger) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if !t.logger.Enabled(ctx, slog.LevelDebug) {
		return t.next.RoundTrip(req)
	}

	requestID := req.Header.Get("X-Request-ID")
	t.logger.Debug("api traffic", "stage", "request", "method", req.Method, "path", req.URL.RequestURI(),
		"request_id", requestID, "authenticated", req.Header.Get("Authorization") != "", "payload", requestPayload(req))

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Debug("api traffic", "stage", "response", "method", req.Method, "path", req.URL.RequestURI(),
			"request_id", requestID, "error", err)
		return nil, err
	}

	data, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if readErr != nil {
		return nil, readErr
	}
	t.logger.Debug("api traffic", "stage", "response", "method", req.Method, "path", req.URL.RequestURI(),
		"request_id", requestID, "status", resp.StatusCode, "bytes", len(data), "payload", formatPayload(data))
	return resp, nil
}

func requestPayload(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return ""
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return ""
	}
	// Login bodies carry the password.
	if req.URL.Path == "/auth/login" {
		return "<redacted>"
	}
	return formatPayload(data)
}

func formatPayload(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > maxLoggedPayload {
		return string(data[:maxLoggedPayload]) + "..."
	}
	return string(data)
}

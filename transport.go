package exnest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/exnestai/exnest-go/internal/logging"
	"github.com/google/uuid"
)

// rawResult is one fully-received buffered exchange.
type rawResult struct {
	status int
	body   []byte
}

func buildURL(cfg *Config, spec *requestSpec) string {
	u := strings.TrimSuffix(cfg.BaseURL, "/") + spec.path
	if len(spec.query) > 0 {
		u += "?" + spec.query.Encode()
	}
	return u
}

// applyHeaders attaches the standard headers from the config snapshot at call
// time, so a rotated credential is honored on the next request.
func applyHeaders(r *http.Request, cfg *Config, stream bool) {
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	r.Header.Set("User-Agent", cfg.UserAgent)
	r.Header.Set("X-Request-ID", uuid.NewString())

	if stream {
		r.Header.Set("Accept", "text/event-stream")
		r.Header.Set("Cache-Control", "no-cache")
	} else {
		r.Header.Set("Accept", "application/json")
		r.Header.Set("Accept-Encoding", acceptedEncodings)
	}
}

// send performs one buffered HTTP exchange. Low-level failures come back as a
// *transportError; a received non-2xx response comes back as a
// *backendStatusError carrying the body, because the backend's own envelope
// is authoritative.
func (c *Client) send(ctx context.Context, cfg *Config, spec *requestSpec) (*rawResult, error) {
	timeout := spec.timeout
	if timeout <= 0 {
		timeout = cfg.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if spec.body != nil {
		bodyReader = bytes.NewReader(spec.body)
	}
	req, err := http.NewRequestWithContext(reqCtx, spec.method, buildURL(cfg, spec), bodyReader)
	if err != nil {
		return nil, &ValidationError{Field: "request", Reason: err.Error()}
	}
	applyHeaders(req, cfg, false)
	debugLogRequest(cfg, req, spec.body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}

	decoded, err := decodeResponseBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, &transportError{err: err}
	}
	body, err := io.ReadAll(decoded)
	if errClose := decoded.Close(); errClose != nil {
		logging.Errorf("transport: close response body error: %v", errClose)
	}
	if err != nil {
		return nil, &transportError{err: err}
	}

	debugLogResponse(cfg, resp.StatusCode, body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &backendStatusError{status: resp.StatusCode, body: body}
	}
	return &rawResult{status: resp.StatusCode, body: body}, nil
}

// openStream performs one streaming exchange and returns the response with a
// live body. The caller owns closing it. A received non-2xx response is
// drained and returned as a *backendStatusError, same as the buffered path.
func (c *Client) openStream(ctx context.Context, cfg *Config, spec *requestSpec) (*http.Response, error) {
	var bodyReader io.Reader
	if spec.body != nil {
		bodyReader = bytes.NewReader(spec.body)
	}
	req, err := http.NewRequestWithContext(ctx, spec.method, buildURL(cfg, spec), bodyReader)
	if err != nil {
		return nil, &ValidationError{Field: "request", Reason: err.Error()}
	}
	applyHeaders(req, cfg, spec.stream)
	debugLogRequest(cfg, req, spec.body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if errClose := resp.Body.Close(); errClose != nil {
			logging.Errorf("transport: close response body error: %v", errClose)
		}
		debugLogResponse(cfg, resp.StatusCode, body)
		return nil, &backendStatusError{status: resp.StatusCode, body: body}
	}
	return resp, nil
}

// debugLogRequest logs the outgoing request when the debug flag is on.
// Logging never blocks or fails the call; credentials are masked.
func debugLogRequest(cfg *Config, req *http.Request, body []byte) {
	if !cfg.Debug {
		return
	}
	entry := logging.WithFields(logging.Fields{
		"method":        req.Method,
		"url":           req.URL.String(),
		"authorization": logging.MaskAuthorizationHeader(req.Header.Get("Authorization")),
		"request_id":    req.Header.Get("X-Request-ID"),
	})
	if len(body) > 0 {
		entry = entry.WithField("body", string(body))
	}
	entry.Debug("request")
}

func debugLogResponse(cfg *Config, status int, body []byte) {
	if !cfg.Debug {
		return
	}
	logging.WithFields(logging.Fields{
		"status": status,
		"body":   string(body),
	}).Debug("response")
}

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 8
	transport.ResponseHeaderTimeout = 0
	return &http.Client{Transport: transport}
}

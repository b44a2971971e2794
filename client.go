// Package exnest is the Go client SDK for the Exnest text/chat generation
// gateway. The Client executes buffered and streamed requests with bounded
// linear-backoff retries and returns every outcome in one canonical Response
// shape, whatever envelope variant the backend answered with.
package exnest

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/exnestai/exnest-go/internal/logging"
	"github.com/exnestai/exnest-go/internal/sse"
)

// Client talks to the Exnest gateway. It is safe for concurrent use; calls
// in flight keep the configuration snapshot they started with.
type Client struct {
	cfg        atomic.Pointer[Config]
	httpClient *http.Client
	sleep      sleepFunc
}

// New creates a Client from cfg, applying defaults for unset fields. The API
// key is required.
func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	applyLogSettings(&cfg)

	c := &Client{
		httpClient: newHTTPClient(),
		sleep:      sleepWithContext,
	}
	c.cfg.Store(&cfg)
	return c, nil
}

// NewFromEnv creates a Client configured from EXNEST_* environment variables
// (and a .env file when present).
func NewFromEnv() (*Client, error) {
	return New(ConfigFromEnv())
}

func applyLogSettings(cfg *Config) {
	if cfg.Debug {
		logging.SetLevel(slog.LevelDebug)
	}
	if cfg.LoggingToFile {
		if err := logging.ConfigureLogOutput(true, cfg.LogDir); err != nil {
			logging.Warnf("client: %v", err)
		}
	}
}

func (c *Client) snapshot() *Config {
	return c.cfg.Load()
}

// Reconfigure publishes a new configuration snapshot. In-flight requests are
// unaffected; the next request picks up the change.
func (c *Client) Reconfigure(u Update) {
	for {
		current := c.cfg.Load()
		next := u.apply(*current)
		if c.cfg.CompareAndSwap(current, &next) {
			applyLogSettings(&next)
			return
		}
	}
}

// replace swaps in a whole new configuration snapshot after validation.
func (c *Client) replace(cfg Config) error {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return err
	}
	applyLogSettings(&cfg)
	c.cfg.Store(&cfg)
	return nil
}

// ConfigView returns the active configuration with the credential masked.
func (c *Client) ConfigView() ConfigView {
	return c.snapshot().view()
}

// Execute runs one buffered request through the retry controller and the
// normalizer. The returned error is non-nil only for caller-side faults:
// invalid input (*ValidationError) or cancellation. Every other failure is
// reported inside the Response with Success=false and a populated Error.
func (c *Client) Execute(ctx context.Context, spec *requestSpec) (*Response, error) {
	cfg := c.snapshot()

	result, err := runWithRetry(ctx, c, cfg, "execute", func(ctx context.Context) (*rawResult, error) {
		return c.send(ctx, cfg, spec)
	})
	if err != nil {
		return c.terminalFailure(err, spec)
	}
	return normalizeBody(result.body, result.status, spec.openAICompatible), nil
}

// terminalFailure converts a retry-loop error into the caller-facing outcome.
func (c *Client) terminalFailure(err error, spec *requestSpec) (*Response, error) {
	switch e := err.(type) {
	case *ValidationError:
		return nil, e
	case *backendStatusError:
		return normalizeBody(e.body, e.status, spec.openAICompatible), nil
	case *errRetriesExhausted:
		return networkFailure(e), nil
	default:
		// Cancellation, wrapped by the retry controller.
		return nil, err
	}
}

// ExecuteStream runs one streaming request. Events arrive on the returned
// channel in wire order; the channel closes when the stream terminates. A
// mid-stream transport fault restarts the whole stream (no resume), so
// chunks delivered before the fault may repeat. Terminal failures arrive as
// a final event with Err set and Terminal true.
func (c *Client) ExecuteStream(ctx context.Context, spec *requestSpec) (<-chan StreamEvent, error) {
	cfg := c.snapshot()
	out := make(chan StreamEvent, 8)

	go func() {
		defer close(out)

		var lastErr error
		for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
			if attempt > 0 {
				if err := c.sleep(ctx, retryDelay(cfg, attempt)); err != nil {
					return
				}
				logging.Debugf("stream: attempt %d/%d restarting after %v", attempt+1, cfg.MaxRetries+1, lastErr)
			}

			finished, err := c.streamOnce(ctx, cfg, spec, out)
			if finished {
				return
			}
			if err == nil {
				return
			}
			if ctx.Err() != nil {
				return
			}
			if !retryable(err) {
				c.emitTerminal(ctx, out, err, spec)
				return
			}
			lastErr = err
		}

		c.emitTerminal(ctx, out, &errRetriesExhausted{attempts: cfg.MaxRetries + 1, last: lastErr}, spec)
	}()

	return out, nil
}

// streamOnce opens the stream and drains it into out. finished=true means
// the stream terminated cleanly (sentinel or EOF) and no retry applies.
func (c *Client) streamOnce(ctx context.Context, cfg *Config, spec *requestSpec, out chan<- StreamEvent) (finished bool, err error) {
	resp, err := c.openStream(ctx, cfg, spec)
	if err != nil {
		return false, err
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			logging.Errorf("stream: close response body error: %v", errClose)
		}
	}()

	dec := sse.NewDecoder(resp.Body)
	for {
		select {
		case <-ctx.Done():
			return true, nil
		default:
		}

		payload, ok := dec.Next()
		if !ok {
			break
		}
		if !emitEvent(ctx, out, eventFromFrame(payload)) {
			return true, nil
		}
	}
	if scanErr := dec.Err(); scanErr != nil {
		return false, &transportError{err: scanErr}
	}
	return true, nil
}

// eventFromFrame decodes one SSE payload. A well-formed backend error frame
// is surfaced as an event carrying Err and the stream continues.
func eventFromFrame(payload []byte) StreamEvent {
	event := StreamEvent{Raw: payload}
	if frameErr := parseFrameError(payload); frameErr != nil {
		event.Err = frameErr
		return event
	}
	chunk := new(StreamChunk)
	if err := unmarshalChunk(payload, chunk); err != nil {
		logging.Debugf("stream: unparseable chunk shape: %v", err)
		return event
	}
	event.Chunk = chunk
	return event
}

func emitEvent(ctx context.Context, out chan<- StreamEvent, event StreamEvent) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// emitTerminal publishes the uniform canonical failure for a stream that
// cannot continue.
func (c *Client) emitTerminal(ctx context.Context, out chan<- StreamEvent, err error, spec *requestSpec) {
	var apiErr *APIError
	switch e := err.(type) {
	case *backendStatusError:
		resp := normalizeBody(e.body, e.status, spec.openAICompatible)
		apiErr = resp.Error
		if apiErr == nil {
			apiErr = &APIError{
				Code:     ErrCodeMalformed,
				Type:     ErrTypeClient,
				Message:  "backend rejected the stream",
				Category: CategorizeStatus(e.status),
			}
		}
	default:
		failure := networkFailure(err)
		apiErr = failure.Error
	}
	emitEvent(ctx, out, StreamEvent{Err: apiErr, Terminal: true})
}

func retryDelay(cfg *Config, attempt int) time.Duration {
	return time.Duration(attempt) * cfg.RetryDelay
}

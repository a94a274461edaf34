package check

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tmater/boostprobe/internal/payload"
	"github.com/tmater/boostprobe/internal/proto"
)

const (
	// DefaultTimeout bounds a single probe when the target sets none.
	DefaultTimeout = 5 * time.Second

	maxBodyExcerpt = 4 << 10
)

// Target is the endpoint a Prober sends boosts to.
type Target struct {
	BaseURL string
	Path    string
	APIKey  string
	Timeout time.Duration
}

// URL joins the base URL and endpoint path.
func (t Target) URL() string {
	return strings.TrimRight(t.BaseURL, "/") + t.Path
}

// Prober sends one boost per case and classifies the response.
// It holds no per-case state and may be reused across runs.
type Prober struct {
	target  Target
	client  *http.Client
	builder payload.Builder
}

// Option customises a Prober.
type Option func(*Prober)

// WithHTTPClient replaces the default client. The client's own timeout is kept.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) { p.client = c }
}

// WithBuilder sets the payload builder, mostly to pin the clock in tests.
func WithBuilder(b payload.Builder) Option {
	return func(p *Prober) { p.builder = b }
}

// NewProber creates a Prober for target.
func NewProber(target Target, opts ...Option) *Prober {
	if target.Timeout <= 0 {
		target.Timeout = DefaultTimeout
	}
	p := &Prober{
		target: target,
		client: &http.Client{Timeout: target.Timeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Target returns the endpoint configuration the prober was built with.
func (p *Prober) Target() Target {
	return p.target
}

// Run executes c and returns its result. Transport failures are recorded in
// the result as INDETERMINATE; Run never returns an error.
func (p *Prober) Run(ctx context.Context, c proto.ProbeCase) proto.ProbeResult {
	result := proto.ProbeResult{
		Case:      c,
		Timestamp: time.Now(),
	}

	body, err := payload.Encode(p.builder.Build(c.SizeKB))
	if err != nil {
		result.Actual = proto.OutcomeIndeterminate
		result.Detail = fmt.Sprintf("encode payload: %s", err)
		log.Printf("probe: encode failed case=%s error=%s", c.Label(), err)
		return result
	}
	result.PayloadSize = len(body)

	log.Printf("probe: sending case=%s size_kb=%d payload_bytes=%d url=%s", c.Label(), c.SizeKB, len(body), p.target.URL())

	ctx, cancel := context.WithTimeout(ctx, p.target.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.target.URL(), bytes.NewReader(body))
	if err != nil {
		result.Actual = proto.OutcomeIndeterminate
		result.Detail = fmt.Sprintf("build request: %s", err)
		log.Printf("probe: bad request case=%s error=%s", c.Label(), err)
		return result
	}
	req.Header.Set("x-api-key", p.target.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	result.Latency = time.Since(start)

	if err != nil {
		result.Actual = Classify(0, err)
		result.Detail = fmt.Sprintf("request failed: %s", err)
		log.Printf("probe: request failed case=%s error=%s", c.Label(), err)
		return result
	}
	defer resp.Body.Close()

	excerpt, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt))
	result.Body = strings.TrimSpace(string(excerpt))
	result.StatusCode = resp.StatusCode
	result.Actual = Classify(resp.StatusCode, nil)
	result.Matched = Matches(c.Expect, result.Actual)

	switch {
	case result.Actual == proto.OutcomeIndeterminate:
		result.Detail = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	case !result.Matched:
		result.Detail = fmt.Sprintf("expected %s, got %s (status %d)", c.Expect, result.Actual, resp.StatusCode)
	}
	if readErr != nil {
		log.Printf("probe: reading response body case=%s error=%s", c.Label(), readErr)
	}

	log.Printf("probe: done case=%s status=%d actual=%s matched=%v latency=%s", c.Label(), resp.StatusCode, result.Actual, result.Matched, result.Latency)
	return result
}

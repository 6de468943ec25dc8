// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/paperflow/internal/logger"
)

// RetryBaseDelay controls the base duration for exponential backoff when a
// Policy does not set one. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

// DefaultUserAgent is sent when a stage has no configured User-Agent.
const DefaultUserAgent = "paperflow/0.1"

// DefaultMaxRetries is the retry budget callers use when not configured.
const DefaultMaxRetries = 3

// Policy bounds how a request is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero (or less) sends the request once.
	MaxRetries int

	// BaseDelay is the first backoff; it doubles on every retry.
	// Zero uses RetryBaseDelay.
	BaseDelay time.Duration

	// RetryServerErrors also retries transport errors and HTTP 5xx.
	// When false only HTTP 429 is retried.
	RetryServerErrors bool

	Log *logger.Logger
}

// Do executes req under policy p. A Retry-After header in seconds overrides
// the computed backoff. On each retried response the body is drained and
// closed before sleeping. If the context is cancelled during a backoff wait
// Do returns ctx.Err(). After exhausting retries the last response (or
// transport error) is returned so the caller can classify it.
func Do(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	maxRetries := max(p.MaxRetries, 0)
	base := p.BaseDelay
	if base <= 0 {
		base = RetryBaseDelay
	}
	log := logger.OrNop(p.Log)

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)

		retryable := false
		switch {
		case err != nil:
			retryable = p.RetryServerErrors && ctx.Err() == nil
		case resp.StatusCode == http.StatusTooManyRequests:
			retryable = true
		case resp.StatusCode >= 500:
			retryable = p.RetryServerErrors
		}

		if !retryable || attempt >= maxRetries {
			return resp, err
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * base
		if resp != nil {
			if ra := retryAfter(resp); ra > 0 {
				backoff = ra
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			log.Debug("retrying request", "url", req.URL.Redacted(), "status", resp.StatusCode,
				"attempt", attempt+1, "max", maxRetries, "backoff", backoff)
		} else {
			log.Debug("retrying request", "url", req.URL.Redacted(), "error", err,
				"attempt", attempt+1, "max", maxRetries, "backoff", backoff)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// retryAfter reads a Retry-After (or Zotero's Backoff) header given in seconds.
func retryAfter(resp *http.Response) time.Duration {
	for _, h := range []string{"Retry-After", "Backoff"} {
		if v := resp.Header.Get(h); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return 0
}

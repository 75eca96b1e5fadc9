// Package github is a resilient GitHub REST v3 client plus the dependents page scraper
package github

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"ghrepostats/internal/platform/config"
	"ghrepostats/internal/platform/config/credentials"
	perr "ghrepostats/internal/platform/errors"
	"ghrepostats/internal/platform/logger"
)

const (
	baseURLDefault   = "https://api.github.com"
	webURLDefault    = "https://github.com"
	defaultTimeout   = 30 * time.Second
	defaultUA        = "ghrepostats"
	defaultMaxRetry  = 5
	defaultRetryBase = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second

	acceptJSON  = "application/vnd.github+json"
	acceptStars = "application/vnd.github.star+json"
	acceptHTML  = "text/html"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	WebURL    string
	UserAgent string
	Timeout   time.Duration

	// Token authenticates API calls; empty means anonymous and a very low quota
	Token string

	// Retry config for transient, rate limited and still-computing responses
	MaxRetries int
	RetryBase  time.Duration
}

// OptionsFrom builds Options from resolved settings and credentials
func OptionsFrom(s config.GitHubSettings, cred credentials.Credentials) Options {
	return Options{
		BaseURL:    s.BaseURL,
		WebURL:     s.WebURL,
		Timeout:    s.Timeout,
		Token:      cred.Token,
		MaxRetries: s.MaxRetries,
		RetryBase:  s.RetryBase,
	}
}

// Client is a minimal GitHub REST client with retries and rate limit handling
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.WebURL == "" {
		o.WebURL = webURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	o.WebURL = strings.TrimRight(o.WebURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("github"),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// sleepCtx waits for d or until ctx is done; rate limit resets can be most of an hour away
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// resolve turns an API path into a URL; absolute URLs (Link headers, web pages) pass through
func (c *Client) resolve(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return c.opts.BaseURL + target
}

// Do issues a GET-style request with auth headers, retries, and rate limit handling.
// The token is only sent to the API host, never to the web host.
func (c *Client) Do(ctx context.Context, method, target, accept string) (*http.Response, error) {
	url := c.resolve(target)
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "github new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", accept)
		if c.opts.Token != "" && strings.HasPrefix(url, c.opts.BaseURL) {
			req.Header.Set("Authorization", "token "+c.opts.Token)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github do failed")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("github transport error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return nil, err
			}
			attempts++
			continue
		}

		rem, reset, retryAfter := parseRateHeaders(resp.Header)
		c.log.Debug().
			Str("method", method).
			Str("url", url).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Int("rate_remaining", rem).
			Time("rate_reset", reset).
			Int("retry_after_s", retryAfter).
			Msg("github http response")

		switch {
		case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusAccepted, resp.StatusCode == http.StatusNoContent:
			return resp, nil
		case resp.StatusCode == http.StatusNotFound:
			_ = drainAndClose(resp.Body)
			return nil, &GHStatusError{Status: resp.StatusCode, Err: perr.NotFoundf("github %s not found", target)}
		case resp.StatusCode == http.StatusUnauthorized:
			_ = drainAndClose(resp.Body)
			return nil, &GHStatusError{Status: resp.StatusCode, Err: perr.Newf(perr.ErrorCodeUnauthorized, "github rejected the credentials")}
		case isRateLimitResponse(resp.StatusCode, resp.Header):
			// Respect Retry-After and X-RateLimit-Reset when present
			wait := computeWait(rem, reset, retryAfter, c.now())
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, &GHStatusError{Status: resp.StatusCode, Err: perr.Newf(perr.ErrorCodeTooManyRequests, "github rate limited")}
			}
			c.log.Warn().Dur("sleep", wait).Msg("github rate limited backing off")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			attempts++
			continue
		case resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusGatewayTimeout:
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, &GHStatusError{Status: resp.StatusCode, Err: perr.Newf(perr.ErrorCodeUnavailable, "github transient server error")}
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("github transient error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return nil, err
			}
			attempts++
			continue
		default:
			// read a small tail for diagnostics then return
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, &GHStatusError{
				Status: resp.StatusCode,
				Body:   string(body),
				Err:    perr.Newf(perr.ErrorCodeUnknown, "github unexpected status %d body %s", resp.StatusCode, string(body)),
			}
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}

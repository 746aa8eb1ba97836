// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
	"github.com/opencontainers/go-digest"
)

const defaultUserAgent = "buildpkg"

type (
	// Client downloads files over HTTP.
	Client struct {
		httpClient *http.Client
		userAgent  string
		timeout    time.Duration
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// StatusError is returned when the server answers with a non-2xx status.
	StatusError struct {
		URL        string
		StatusCode int
	}

	// Result describes a completed download.
	Result struct {
		Path   string
		Size   int64
		Digest digest.Digest
	}
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// WithTimeout bounds each download, including reading the body. Zero means
// no limit beyond the caller's context.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// NewClient creates a Client using http.DefaultClient and no timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Download fetches rawURL into dest, creating parent directories. When
// expectedSHA256 is non-empty the body must hash to it, otherwise dest is left
// untouched and a *ChecksumError is returned.
func (c *Client) Download(ctx context.Context, rawURL, dest, expectedSHA256 string) (*Result, error) {
	var want digest.Digest
	if expectedSHA256 != "" {
		d, err := ParseSHA256(expectedSHA256)
		if err != nil {
			return nil, err
		}
		want = d
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	slog.Info("downloading", "url", redactURL(rawURL), "dest", dest)

	resp, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: redactURL(rawURL), StatusCode: resp.StatusCode}
	}

	res, err := writeAtomically(resp.Body, dest, redactURL(rawURL), want)
	if err != nil {
		var ce *ChecksumError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}

	slog.Debug("download complete", "dest", dest, "bytes", res.Size, "digest", res.Digest.String())
	return res, nil
}

// doRequest creates and executes a GET request with the client's headers.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// writeAtomically streams body into a pending file next to dest while hashing
// it. The pending file replaces dest only after the body was read completely
// and, when want is set, the digest matched.
func writeAtomically(body io.Reader, dest, source string, want digest.Digest) (_ *Result, err error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	pending, err := renameio.TempFile(dir, dest)
	if err != nil {
		return nil, err
	}
	defer func() {
		// No-op after a successful CloseAtomicallyReplace.
		if cleanupErr := pending.Cleanup(); cleanupErr != nil && err == nil {
			err = cleanupErr
		}
	}()

	digester := digest.SHA256.Digester()
	n, err := io.Copy(io.MultiWriter(pending, digester.Hash()), body)
	if err != nil {
		return nil, err
	}

	got := digester.Digest()
	if want != "" {
		if err := verify(source, want, got); err != nil {
			return nil, err
		}
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return nil, err
	}
	return &Result{Path: dest, Size: n, Digest: got}, nil
}

// redactURL strips credentials, query and fragment so tokens never reach logs.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	nberrors "github.com/gitify-app/updater/client/errors"
	"github.com/gitify-app/updater/version"
)

const (
	userAgent   = "gitify-updater/%s"
	maxPrealloc = 4 << 20

	DefaultTimeout          = 30 * time.Second
	DefaultProgressInterval = 250 * time.Millisecond
	DefaultArtifactLimit    = 512 << 20
)

var errStalled = errors.New("download stalled")

// Client performs bounded HTTP transfers into memory
type Client struct {
	httpClient       *http.Client
	timeout          time.Duration
	progressInterval time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithProgressInterval sets the minimum time between two progress reports
func WithProgressInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.progressInterval = d
		}
	}
}

// NewClient returns a Client whose requests wait at most timeout for response headers
// and for each chunk of the response body
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	c := &Client{
		httpClient:       &http.Client{Transport: transport},
		timeout:          timeout,
		progressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-request timeout of the client
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Fetch reads a small document, e.g. a release manifest. The whole request is bounded by the client timeout.
func (c *Client) Fetch(ctx context.Context, url string, limit int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.DownloadToMemory(ctx, url, limit, nil)
}

// DownloadToMemory streams the body of url into memory, reporting progress through the callback.
// The transfer fails when the body exceeds limit or when no data arrives within the client timeout.
func (c *Client) DownloadToMemory(ctx context.Context, url string, limit int64, progress ProgressFunc) ([]byte, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nberrors.Wrap(nberrors.TransportError, err, "failed to create HTTP request")
	}

	req.Header.Set("User-Agent", fmt.Sprintf(userAgent, version.Version()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err, "failed to perform HTTP request")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, nberrors.Errorf(nberrors.TransportError, "unexpected HTTP status: %d", resp.StatusCode)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	if limit > 0 && total > limit {
		return nil, nberrors.Errorf(nberrors.TransportError, "artifact size %s exceeds limit %s",
			humanize.IBytes(uint64(total)), humanize.IBytes(uint64(limit)))
	}

	stall := time.AfterFunc(c.timeout, func() {
		cancel(errStalled)
	})
	defer stall.Stop()

	var body io.Reader = &stallReader{r: resp.Body, timer: stall, timeout: c.timeout}
	pr := NewProgressReader(body, total, c.progressInterval, progress)
	body = pr
	if limit > 0 {
		// one extra byte detects bodies longer than the limit
		body = io.LimitReader(body, limit+1)
	}

	buf := make([]byte, 0, initialBufferSize(total))
	data, err := readAll(body, buf)
	if err != nil {
		return nil, transportError(ctx, err, "failed to read response body")
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, nberrors.Errorf(nberrors.TransportError, "artifact exceeds limit %s", humanize.IBytes(uint64(limit)))
	}
	pr.Finish()

	log.Debugf("downloaded %s from %s", humanize.IBytes(uint64(len(data))), url)
	return data, nil
}

func transportError(ctx context.Context, err error, msg string) error {
	if cause := context.Cause(ctx); errors.Is(cause, errStalled) {
		return nberrors.Wrap(nberrors.TransportError, cause, "%s", msg)
	}
	return nberrors.Wrap(nberrors.TransportError, err, "%s", msg)
}

// initialBufferSize trusts the announced length only up to maxPrealloc, the rest grows as bytes arrive
func initialBufferSize(announced int64) int64 {
	return max(0, min(announced, maxPrealloc))
}

// readAll is io.ReadAll appending into a preallocated buffer
func readAll(r io.Reader, b []byte) ([]byte, error) {
	for {
		if len(b) == cap(b) {
			b = append(b, 0)[:len(b)]
		}
		n, err := r.Read(b[len(b):cap(b)])
		b = b[:len(b)+n]
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return b, err
		}
	}
}

// stallReader pushes the stall deadline forward on every successful read
type stallReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (s *stallReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		s.timer.Reset(s.timeout)
	}
	return n, err
}

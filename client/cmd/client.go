package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/gitify-app/updater/client/internal/updatemanager"
	"github.com/gitify-app/updater/client/internal/updatemanager/event"
)

const (
	requestTimeout   = 30 * time.Second
	maxEventLineSize = 1 << 20
)

// errRestarting is returned when the daemon dropped the connection during an install,
// which is what a successful install looks like from the outside
var errRestarting = errors.New("daemon is restarting into the new version")

// apiError is an error response of the daemon API
type apiError struct {
	StatusCode int
	Message    string `json:"message"`
	Kind       string `json:"kind"`
}

func (e *apiError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
	}
	return e.Message
}

// streamEvent is an event as received from the daemon event stream
type streamEvent struct {
	ID        string          `json:"id"`
	Name      event.Name      `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func (e *streamEvent) decode(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

// apiClient talks to the local API of the updater daemon
type apiClient struct {
	baseURL string
	client  *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		// installs and event streams are bounded by the caller context
		client: &http.Client{},
	}
}

func (c *apiClient) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodPost, "/api/update/check")
	if err != nil {
		return err
	}
	return drain(resp)
}

func (c *apiClient) install(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/update/install")
	if err != nil {
		if isConnectionDropped(err) {
			return errRestarting
		}
		return err
	}
	return drain(resp)
}

func (c *apiClient) status(ctx context.Context) (updatemanager.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var status updatemanager.Status
	resp, err := c.do(ctx, http.MethodGet, "/api/update/status")
	if err != nil {
		return status, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}

// streamEvents follows the daemon event stream. connected, if set, runs once the stream is open.
// handle returns true to end the stream.
func (c *apiClient) streamEvents(ctx context.Context, history bool, connected func() error, handle func(*streamEvent) (bool, error)) error {
	path := "/api/update/events"
	if history {
		path += "?history=true"
	}

	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if connected != nil {
		if err := connected(); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLineSize)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case line == "":
			if data.Len() == 0 {
				continue
			}
			var e streamEvent
			if err := json.Unmarshal([]byte(data.String()), &e); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			data.Reset()

			done, err := handle(&e)
			if err != nil || done {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return io.ErrUnexpectedEOF
}

// setLogLevel changes the daemon log level and returns the previous one
func (c *apiClient) setLogLevel(ctx context.Context, level string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	current, err := c.logLevel(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]string{"level": level})
	if err != nil {
		return "", err
	}
	resp, err := c.doWithBody(ctx, http.MethodPut, "/api/debug/log-level", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return current, drain(resp)
}

func (c *apiClient) logLevel(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/debug/log-level")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var level struct {
		Level string `json:"level"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&level); err != nil {
		return "", fmt.Errorf("decode log level: %w", err)
	}
	return level.Level, nil
}

func (c *apiClient) do(ctx context.Context, method, path string) (*http.Response, error) {
	return c.doWithBody(ctx, method, path, nil)
}

func (c *apiClient) doWithBody(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		apiErr := &apiError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}
	return resp, nil
}

func drain(resp *http.Response) error {
	defer resp.Body.Close()
	_, err := io.Copy(io.Discard, resp.Body)
	return err
}

func isConnectionDropped(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET)
}

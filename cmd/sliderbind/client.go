package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/vango-dev/sliderbind/internal/errors"
	"github.com/vango-dev/sliderbind/pkg/protocol"
	"github.com/vango-dev/sliderbind/pkg/snapshot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// apiClient talks to the HTTP API of a running server.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string, timeout time.Duration) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) sessionURL(sessionID, path string) string {
	return c.base + "/api/sessions/" + url.PathEscape(sessionID) + path
}

func (c *apiClient) do(ctx context.Context, method, target string, body []byte, want int) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, errors.New("SB201").Wrap(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.FromError(err, "SB201").
			WithSuggestion("Check that `sliderbind serve` is running at " + c.base)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.New("SB201").Wrap(err)
	}
	if resp.StatusCode != want {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, errors.New("SB201").Wrap(fmt.Errorf("%s %s: %s: %s", method, target, resp.Status, msg))
	}
	return data, nil
}

// state fetches the live state of a session.
func (c *apiClient) state(ctx context.Context, sessionID string) (*snapshot.Snapshot, []byte, error) {
	data, err := c.do(ctx, http.MethodGet, c.sessionURL(sessionID, "/state"), nil, http.StatusOK)
	if err != nil {
		return nil, nil, err
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, nil, errors.New("SB201").Wrap(err)
	}
	return snap, data, nil
}

// push queues an input message on a session.
func (c *apiClient) push(ctx context.Context, sessionID string, msg *protocol.InputMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.New("SB400").Wrap(err)
	}
	_, err = c.do(ctx, http.MethodPost, c.sessionURL(sessionID, "/inputs"), body, http.StatusAccepted)
	return err
}

// saveSnapshot asks the server to snapshot a session and returns the key.
func (c *apiClient) saveSnapshot(ctx context.Context, sessionID string) (string, error) {
	data, err := c.do(ctx, http.MethodPost, c.sessionURL(sessionID, "/snapshots"), nil, http.StatusCreated)
	if err != nil {
		return "", err
	}
	var out struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", errors.New("SB201").Wrap(err)
	}
	return out.Key, nil
}

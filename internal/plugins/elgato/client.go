// Package elgato implements the Elgato Key Light plugin: an HTTP client for
// the device's local JSON API, a debounced brightness controller, and the
// Plugin adapter the registry dispatches to. Grounded on
// original_source/src-tauri/src/{elgato_key_light,key_light_controller}.rs
// and plugins/elgato/*.rs, with the debounce/cache shape borrowed from the
// teacher's hardware/led.Controller (state + onChange + background worker).
package elgato

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	requestTimeout = 2 * time.Second
	retryCount     = 2
	retryDelay     = 100 * time.Millisecond
)

// Light is the device's reported/desired state for a single light panel.
type Light struct {
	On          int `json:"on"`
	Brightness  int `json:"brightness"`
	Temperature int `json:"temperature"`
}

type lightsBody struct {
	Lights []Light `json:"lights"`
}

// Client talks to one Key Light's HTTP API at http://{ip}:{port}/elgato/lights.
type Client struct {
	httpClient *http.Client
	ip         string
	port       int
}

// NewClient returns a Client for the light at ip:port.
func NewClient(ip string, port int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		ip:         ip,
		port:       port,
	}
}

func (c *Client) url() string {
	return fmt.Sprintf("http://%s:%d/elgato/lights", c.ip, c.port)
}

// Get reads the light's current state.
func (c *Client) Get(ctx context.Context) (Light, error) {
	var body lightsBody
	err := c.doWithRetry(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(), nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("elgato: GET %s: status %d", c.url(), resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&body)
	})
	if err != nil || len(body.Lights) == 0 {
		return Light{}, err
	}
	return body.Lights[0], nil
}

// Set writes a new desired state to the light.
func (c *Client) Set(ctx context.Context, l Light) error {
	payload, err := json.Marshal(lightsBody{Lights: []Light{l}})
	if err != nil {
		return err
	}
	return c.doWithRetry(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url(), bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("elgato: PUT %s: status %d", c.url(), resp.StatusCode)
		}
		return nil
	})
}

// doWithRetry runs fn, retrying up to retryCount times with retryDelay
// spacing, per spec.md §6's Key Light wire protocol.
func (c *Client) doWithRetry(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		if err := fn(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

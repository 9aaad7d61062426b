package obs

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	coalesceWindow = 80 * time.Millisecond
	pollInterval   = 20 * time.Millisecond
)

type audioKey struct {
	host, password, input string
	port                  int
}

// audioController coalesces rapid encoder rotation on one OBS audio input
// into a single SetInputVolume RPC per coalesce window, mirroring the
// Elgato brightness controller's shape (itself grounded on the teacher's
// hardware/led.Controller) and its ticker-poll worker loop: a persistent
// goroutine flushes the pending delta once it has sat for at least
// coalesceWindow, so continuous rotation still flushes roughly every 80ms
// instead of only once rotation stops.
type audioController struct {
	pool *Pool

	mu           sync.Mutex
	pending      float64
	haveLevel    bool
	level        float64 // linear multiplier, 0.0-1.0
	firstDeltaAt time.Time

	// Connection parameters for the flush RPC, set on first adjust() call
	// and stable thereafter — one audioController exists per (host, port,
	// password, input) per plugin.go's audioControllerFor keying.
	host, password, inputName string
	port                      int
}

func newAudioController(pool *Pool) *audioController {
	c := &audioController{pool: pool}
	go c.runCoalesceLoop()
	return c
}

// runCoalesceLoop flushes any pending volume delta once it has been
// waiting at least coalesceWindow, polling every pollInterval.
func (c *audioController) runCoalesceLoop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for range ticker.C {
		c.mu.Lock()
		if c.pending == 0 || time.Since(c.firstDeltaAt) < coalesceWindow {
			c.mu.Unlock()
			continue
		}
		delta := c.pending
		c.pending = 0
		c.firstDeltaAt = time.Time{}
		c.level = clamp01(c.level + delta)
		level := c.level
		host, port, password, inputName := c.host, c.port, c.password, c.inputName
		c.mu.Unlock()
		_ = c.pool.Call(context.Background(), host, port, password, "SetInputVolume",
			inputVolumeParams{InputName: inputName, InputVolumeMul: level})
	}
}

type inputVolumeParams struct {
	InputName          string  `json:"inputName"`
	InputVolumeMul     float64 `json:"inputVolumeMul"`
}

type getInputVolumeParams struct {
	InputName string `json:"inputName"`
}

type getInputVolumeResponse struct {
	InputVolumeMul float64 `json:"inputVolumeMul"`
}

func (c *audioController) adjust(ctx context.Context, host string, port int, password, inputName string, delta float64) error {
	c.mu.Lock()
	c.host, c.port, c.password, c.inputName = host, port, password, inputName
	if !c.haveLevel {
		conn, err := c.pool.Get(ctx, host, port, password)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		raw, err := conn.Request(ctx, "GetInputVolume", getInputVolumeParams{InputName: inputName})
		c.pool.Put(host, port, password, conn)
		if err == nil {
			var resp getInputVolumeResponse
			if json.Unmarshal(raw, &resp) == nil {
				c.level = resp.InputVolumeMul
				c.haveLevel = true
			}
		}
	}
	if c.pending == 0 {
		c.firstDeltaAt = time.Now()
	}
	c.pending += delta
	c.mu.Unlock()
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package obs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/vincent99/deckmanagerd/internal/logging"
)

const (
	maxPoolSize     = 5
	idleRecycleTime = 30 * time.Second
)

var log = logging.For("plugin.obs")

// endpointKey identifies one OBS instance's websocket endpoint.
type endpointKey struct {
	host     string
	port     int
	password string
}

func (k endpointKey) String() string { return fmt.Sprintf("%s:%d", k.host, k.port) }

// Pool hands out authenticated connections to OBS instances, capping the
// number of pooled idle connections per endpoint and recycling ones idle longer
// than idleRecycleTime. Grounded on spec.md §6's "connection pooling (<=5,
// recycle if idle >30s)".
type Pool struct {
	mu    sync.Mutex
	conns map[endpointKey][]*Conn
}

// NewPool returns an empty connection pool.
func NewPool() *Pool {
	return &Pool{conns: make(map[endpointKey][]*Conn)}
}

// Get returns a live connection to the endpoint, reusing a pooled one if
// available and not stale, otherwise dialing a new one.
func (p *Pool) Get(ctx context.Context, host string, port int, password string) (*Conn, error) {
	key := endpointKey{host: host, port: port, password: password}

	p.mu.Lock()
	conns := p.conns[key]
	for len(conns) > 0 {
		c := conns[len(conns)-1]
		conns = conns[:len(conns)-1]
		p.conns[key] = conns
		if c.IdleFor() > idleRecycleTime {
			c.Close()
			continue
		}
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	c, err := Dial(ctx, host, port, password)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Put returns a connection to the pool for reuse, or closes it instead if
// the endpoint already holds maxPoolSize pooled connections.
func (p *Pool) Put(host string, port int, password string, c *Conn) {
	key := endpointKey{host: host, port: port, password: password}
	p.mu.Lock()
	defer p.mu.Unlock()
	conns := p.conns[key]
	if len(conns) >= maxPoolSize {
		log.WithField("endpoint", key.String()).Debug("obs: pool at capacity, closing surplus connection")
		c.Close()
		return
	}
	p.conns[key] = append(conns, c)
}

// Call is a convenience wrapper: get a connection, issue one request,
// return it to the pool.
func (p *Pool) Call(ctx context.Context, host string, port int, password, requestType string, params any) error {
	c, err := p.Get(ctx, host, port, password)
	if err != nil {
		return err
	}
	_, err = c.Request(ctx, requestType, params)
	p.Put(host, port, password, c)
	return err
}

// CallRaw is Call, but returns the response payload instead of discarding
// it — used by status queries that feed alt-image selection.
func (p *Pool) CallRaw(ctx context.Context, host string, port int, password, requestType string, params any) (json.RawMessage, error) {
	c, err := p.Get(ctx, host, port, password)
	if err != nil {
		return nil, err
	}
	raw, err := c.Request(ctx, requestType, params)
	p.Put(host, port, password, c)
	return raw, err
}

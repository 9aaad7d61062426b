package obs

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestPoolGetDialsThenReusesConnection(t *testing.T) {
	calls := 0
	srv, host, port := newFakeOBSServer(t, "", func(string, json.RawMessage) (any, bool) {
		calls++
		return nil, true
	})
	defer srv.Close()

	p := NewPool()
	c1, err := p.Get(context.Background(), host, port, "")
	if err != nil {
		t.Fatal(err)
	}
	p.Put(host, port, "", c1)

	c2, err := p.Get(context.Background(), host, port, "")
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Error("Get() after Put() should return the same pooled connection")
	}
}

func TestPoolGetRecyclesStaleConnection(t *testing.T) {
	srv, host, port := newFakeOBSServer(t, "", func(string, json.RawMessage) (any, bool) { return nil, true })
	defer srv.Close()

	p := NewPool()
	c1, err := p.Get(context.Background(), host, port, "")
	if err != nil {
		t.Fatal(err)
	}
	// Backdate lastUsed past idleRecycleTime to simulate staleness without
	// sleeping 30 real seconds.
	c1.mu.Lock()
	c1.lastUsed = time.Now().Add(-idleRecycleTime - time.Second)
	c1.mu.Unlock()
	p.Put(host, port, "", c1)

	c2, err := p.Get(context.Background(), host, port, "")
	if err != nil {
		t.Fatal(err)
	}
	if c1 == c2 {
		t.Error("Get() should have recycled the stale connection and dialed a fresh one")
	}
}

func TestPoolPutClosesSurplusAtCapacity(t *testing.T) {
	srv, host, port := newFakeOBSServer(t, "", func(string, json.RawMessage) (any, bool) { return nil, true })
	defer srv.Close()

	p := NewPool()
	var conns []*Conn
	for i := 0; i < maxPoolSize; i++ {
		c, err := p.Get(context.Background(), host, port, "")
		if err != nil {
			t.Fatal(err)
		}
		conns = append(conns, c)
	}
	for _, c := range conns {
		p.Put(host, port, "", c)
	}

	surplus, err := Dial(context.Background(), host, port, "")
	if err != nil {
		t.Fatal(err)
	}
	p.Put(host, port, "", surplus)

	key := endpointKey{host: host, port: port}
	if got := len(p.conns[key]); got != maxPoolSize {
		t.Errorf("pool size = %d, want capped at %d", got, maxPoolSize)
	}
}

func TestPoolCallIssuesRequestAndReturnsConnection(t *testing.T) {
	srv, host, port := newFakeOBSServer(t, "", func(requestType string, _ json.RawMessage) (any, bool) {
		return nil, requestType == "ToggleStream"
	})
	defer srv.Close()

	p := NewPool()
	if err := p.Call(context.Background(), host, port, "", "ToggleStream", nil); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	key := endpointKey{host: host, port: port}
	if got := len(p.conns[key]); got != 1 {
		t.Errorf("pool size after Call() = %d, want 1 (connection returned)", got)
	}
}

func TestPoolCallRawReturnsResponsePayload(t *testing.T) {
	srv, host, port := newFakeOBSServer(t, "", func(string, json.RawMessage) (any, bool) {
		return map[string]bool{"outputActive": true}, true
	})
	defer srv.Close()

	p := NewPool()
	raw, err := p.CallRaw(context.Background(), host, port, "", "GetStreamStatus", nil)
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		OutputActive bool `json:"outputActive"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OutputActive {
		t.Error("CallRaw() response decoded outputActive=false, want true")
	}
}

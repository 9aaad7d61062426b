package statemanager

import (
	"context"
	"testing"
	"time"
)

func TestParseVolumeLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantOK  bool
	}{
		{"Volume: 0.45", 0.45, true},
		{"Volume: 0.45 [MUTED]", 0.45, true},
		{"garbage output", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseVolumeLevel(c.in)
		if ok != c.wantOK {
			t.Errorf("ParseVolumeLevel(%q) ok = %v, want %v", c.in, ok, c.wantOK)
			continue
		}
		if ok && got != c.want {
			t.Errorf("ParseVolumeLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestManagerStateDefaultsToZeroValue(t *testing.T) {
	m := New(nil, nil)
	st := m.State()
	if st.IsMuted || st.IsMicMuted || st.IsPlaying {
		t.Errorf("State() before any poll = %+v, want zero value", st)
	}
}

func TestManagerCheckNowIsNonBlockingAndCoalesces(t *testing.T) {
	m := New(nil, nil)
	// Buffered 1: first CheckNow succeeds, a second before it's drained is a
	// no-op rather than blocking.
	m.CheckNow()
	m.CheckNow()
	select {
	case <-m.checkNow:
	default:
		t.Fatal("expected a pending checkNow signal")
	}
	select {
	case <-m.checkNow:
		t.Fatal("expected only one coalesced checkNow signal")
	default:
	}
}

func TestManagerRunStopsOnContextCancel(t *testing.T) {
	m := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

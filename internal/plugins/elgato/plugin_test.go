package elgato

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/vincent99/deckmanagerd/internal/capability"
)

func newKeyLightCap(t *testing.T, srv *httptest.Server, action capability.KeyLightAction) capability.Capability {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return capability.Capability{
		Type:           capability.ElgatoKeyLight,
		IP:             u.Hostname(),
		Port:           port,
		KeyLightAction: action,
	}
}

func TestPluginOwnsOnlyElgatoKeyLight(t *testing.T) {
	p := New()
	if !p.Owns(capability.ElgatoKeyLight) {
		t.Error("Owns(ElgatoKeyLight) = false, want true")
	}
	if p.Owns(capability.Mute) {
		t.Error("Owns(Mute) = true, want false")
	}
}

func TestPluginApplyButtonToggle(t *testing.T) {
	srv, ls, _ := newLightServer(t, Light{On: 0})
	defer srv.Close()
	p := New()
	cap := newKeyLightCap(t, srv, capability.KeyLightToggle)

	if err := p.ApplyButton(context.Background(), cap); err != nil {
		t.Fatalf("ApplyButton() error = %v", err)
	}
	l, _ := ls.snapshot()
	if l.On != 1 {
		t.Errorf("light.On = %d, want 1 after toggling", l.On)
	}
}

func TestPluginApplyButtonSetBrightnessIsNoop(t *testing.T) {
	srv, ls, _ := newLightServer(t, Light{On: 1, Brightness: 50})
	defer srv.Close()
	p := New()
	cap := newKeyLightCap(t, srv, capability.KeyLightSetBrightness)

	if err := p.ApplyButton(context.Background(), cap); err != nil {
		t.Fatalf("ApplyButton() error = %v", err)
	}
	_, sets := ls.snapshot()
	if sets != 0 {
		t.Errorf("sets = %d, want 0 (SetBrightness is an encoder-only action)", sets)
	}
}

func TestPluginApplyEncoderAdjustsBrightness(t *testing.T) {
	srv, ls, _ := newLightServer(t, Light{On: 1, Brightness: 50})
	defer srv.Close()
	p := New()
	cap := newKeyLightCap(t, srv, capability.KeyLightSetBrightness)

	if err := p.ApplyEncoder(context.Background(), cap, 1); err != nil {
		t.Fatalf("ApplyEncoder() error = %v", err)
	}

	time.Sleep(coalesceWindow + 100*time.Millisecond)
	l, _ := ls.snapshot()
	if l.Brightness != 50+capability.DefaultKeyLightBrightnessStep {
		t.Errorf("light.Brightness = %d, want %d", l.Brightness, 50+capability.DefaultKeyLightBrightnessStep)
	}
}

func TestPluginApplyEncoderIgnoresNonBrightnessAction(t *testing.T) {
	srv, ls, _ := newLightServer(t, Light{On: 1, Brightness: 50})
	defer srv.Close()
	p := New()
	cap := newKeyLightCap(t, srv, capability.KeyLightToggle)

	if err := p.ApplyEncoder(context.Background(), cap, 1); err != nil {
		t.Fatalf("ApplyEncoder() error = %v", err)
	}
	_, sets := ls.snapshot()
	if sets != 0 {
		t.Errorf("sets = %d, want 0 (encoder rotation only drives SetBrightness)", sets)
	}
}

func TestPluginIsActiveReflectsLightState(t *testing.T) {
	srv, _, _ := newLightServer(t, Light{On: 1})
	defer srv.Close()
	p := New()
	cap := newKeyLightCap(t, srv, capability.KeyLightToggle)

	if !p.IsActive(cap) {
		t.Error("IsActive() = false, want true for an On light")
	}
}

func TestPluginStatesAggregatesAddressedControllers(t *testing.T) {
	srvA, _, _ := newLightServer(t, Light{On: 1})
	defer srvA.Close()
	srvB, _, _ := newLightServer(t, Light{On: 0})
	defer srvB.Close()

	p := New()
	capA := newKeyLightCap(t, srvA, capability.KeyLightToggle)
	capB := newKeyLightCap(t, srvB, capability.KeyLightToggle)

	if states := p.States(); len(states) != 0 {
		t.Fatalf("States() before addressing any light = %v, want empty", states)
	}

	p.IsActive(capA)
	p.IsActive(capB)

	states := p.States()
	if len(states) != 2 {
		t.Fatalf("States() = %v, want two entries", states)
	}
	keyA := capA.IP + ":" + strconv.Itoa(capA.Port)
	keyB := capB.IP + ":" + strconv.Itoa(capB.Port)
	if !states[keyA] {
		t.Errorf("States()[%s] = false, want true", keyA)
	}
	if states[keyB] {
		t.Errorf("States()[%s] = true, want false", keyB)
	}
}

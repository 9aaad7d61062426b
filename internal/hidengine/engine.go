// Package hidengine is C10: the HID engine. It owns the device handle,
// drives the outer connect/reconnect loop and inner read/decode/dispatch/
// render loop, and performs swipe-triggered page navigation. Grounded on
// other_examples/417510a1_kortschak-ardilla (enumerate/open/reconnect,
// per-model geometry, chunked image writes) and
// other_examples/315a1ade_SKAARHOJ-go-streamdeck (karalabe/hid usage,
// per-device geometry struct), generalized from a fixed Stream-Deck PID
// table to the one vendor/layout spec.md names.
package hidengine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vincent99/deckmanagerd/internal/binding"
	"github.com/vincent99/deckmanagerd/internal/inputdecoder"
	"github.com/vincent99/deckmanagerd/internal/logging"
	"github.com/vincent99/deckmanagerd/internal/plugin"
	"github.com/vincent99/deckmanagerd/internal/render"
)

var log = logging.For("hidengine")

// EventEmitter is implemented by the command surface: every logical input
// event and every page change is forwarded to the GUI via a named event,
// per spec.md §4.10 step 4e(i) and the page-navigation paragraph.
type EventEmitter interface {
	EmitEvent(name string, payload any)
}

// PresenceMonitor reports whether a matching device is currently attached
// to the bus, satisfied by internal/hotplug.Monitor; used only to let a
// hot-plug signal shortcut the connect-wait loop.
type PresenceMonitor interface {
	Present() bool
}

// Engine is the HID engine. One instance per process — spec.md's
// "first device enumerated wins", no multi-device federation.
type Engine struct {
	bindings  *binding.Table
	registry  *plugin.Registry
	renderer  *render.Renderer
	emitter   EventEmitter
	presence  PresenceMonitor
	vendorID  uint16
	productID uint16 // 0 means "any product from vendorID"

	// swipeMinDistance overrides the device's default gesture threshold
	// when non-zero (appconfig.SwipeConfig).
	swipeMinDistance int

	page         int32 // atomic
	imageSync    atomic.Bool
	deviceInfoMu sync.RWMutex
	deviceInfo   DeviceInfo
}

// New returns an Engine. presence may be nil if no hot-plug monitor is
// configured, in which case the connect loop relies solely on polling.
// vendorID/productID select which USB device the outer loop enumerates
// for, per appconfig's HIDConfig (productID 0 matches any product from
// vendorID). swipeMinDistance overrides the device's built-in gesture
// threshold when non-zero.
func New(bindings *binding.Table, registry *plugin.Registry, renderer *render.Renderer, emitter EventEmitter, presence PresenceMonitor, vendorID, productID uint16, swipeMinDistance int) *Engine {
	return &Engine{
		bindings: bindings, registry: registry, renderer: renderer, emitter: emitter, presence: presence,
		vendorID: vendorID, productID: productID,
		swipeMinDistance: swipeMinDistance,
	}
}

// CurrentPage returns the active page index.
func (e *Engine) CurrentPage() int {
	return int(atomic.LoadInt32(&e.page))
}

// PageCount returns max_bound_page + 1, recomputed from the live binding
// table (spec.md §4.12's get_page_count semantics).
func (e *Engine) PageCount() int {
	max := 0
	for _, b := range e.bindings.All() {
		if b.Page > max {
			max = b.Page
		}
	}
	return max + 1
}

// SetCurrentPage sets the active page and requests an image sync, per
// spec.md §4.12's set_current_page.
func (e *Engine) SetCurrentPage(page int) {
	if page < 0 {
		page = 0
	}
	atomic.StoreInt32(&e.page, int32(page))
	e.RequestImageSync()
}

// RequestImageSync sets the level-triggered image-sync flag consumed by
// the inner loop's next iteration.
func (e *Engine) RequestImageSync() {
	e.imageSync.Store(true)
}

// DeviceInfo returns the last-connected device's identity.
func (e *Engine) DeviceInfo() DeviceInfo {
	e.deviceInfoMu.RLock()
	defer e.deviceInfoMu.RUnlock()
	return e.deviceInfo
}

func (e *Engine) setDeviceInfo(info DeviceInfo) {
	e.deviceInfoMu.Lock()
	e.deviceInfo = info
	e.deviceInfoMu.Unlock()
}

// Run drives the outer connect/reconnect loop until ctx is canceled.
func (e *Engine) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := e.connectOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Debug("hidengine: device not found, retrying")
			continue
		}

		e.setDeviceInfo(conn.info)
		log.WithField("product", conn.info.Product).Info("hidengine: device connected")
		e.emitConnection(true, conn.info.Product)

		layout := conn.geom.layout
		if e.swipeMinDistance > 0 {
			layout.SwipeMinDistance = e.swipeMinDistance
		}
		decoder := inputdecoder.New(layout)
		e.RequestImageSync()
		e.runInner(ctx, conn, decoder)
		conn.Close()
		e.setDeviceInfo(DeviceInfo{})
		e.emitConnection(false, "")

		if ctx.Err() != nil {
			return
		}
		log.Warn("hidengine: device lost, reconnecting")
	}
}

// connectOnce blocks until a device is found or ctx is canceled.
func (e *Engine) connectOnce(ctx context.Context) (*connection, error) {
	hint := func() bool {
		return e.presence != nil && e.presence.Present()
	}
	type result struct {
		conn *connection
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		c, err := waitAndOpen(e.vendorID, e.productID, hint)
		resCh <- result{c, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resCh:
		return r.conn, r.err
	}
}

// runInner is the device-specific read/decode/dispatch/render loop
// (spec.md §4.10 step 4). It returns when the device read fails, signaling
// the outer loop to reconnect.
func (e *Engine) runInner(ctx context.Context, conn *connection, decoder *inputdecoder.Decoder) {
	report := make([]byte, conn.geom.reportSize)

	for {
		if ctx.Err() != nil {
			return
		}

		if e.imageSync.CompareAndSwap(true, false) {
			e.renderPage(conn, e.CurrentPage())
		}

		n, err := conn.readReport(report)
		if err != nil {
			return
		}
		if n == 0 {
			continue // read timeout elapsed, nothing available
		}

		page := e.CurrentPage()
		pageBindings := e.bindings.ForPage(page)

		for _, ev := range decoder.Decode(report[:n]) {
			e.handleEvent(ctx, page, pageBindings, ev)
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, page int, pageBindings []binding.Binding, ev inputdecoder.Event) {
	e.emitEvent(ev)

	switch ev.Kind {
	case inputdecoder.EventSwipe:
		if ev.Direction == inputdecoder.SwipeLeft || ev.Direction == inputdecoder.SwipeRight {
			e.navigatePage(ev.Direction)
			return
		}
		// The decoder emits swipe events only for a classified Left or
		// Right swipe, so this dispatch against the Swipe input ref is not
		// reached: a touch that fails classification produces no event and
		// no Swipe binding fires.
		e.dispatchInput(ctx, page, pageBindings, binding.Swipe, ev)
		return
	case inputdecoder.EventButton:
		e.dispatchInput(ctx, page, pageBindings, binding.Button(ev.Index), ev)
	case inputdecoder.EventEncoderPress:
		if ev.Pressed {
			e.dispatchInput(ctx, page, pageBindings, binding.EncoderPress(ev.Index), ev)
		}
	case inputdecoder.EventEncoder:
		e.dispatchInput(ctx, page, pageBindings, binding.Encoder(ev.Index), ev)
	}
}

// buttonEventPayload, encoderEventPayload, etc. are the JSON shapes of the
// named events in spec.md §6's "Event surface to GUI" list.
type buttonEventPayload struct {
	Index   int  `json:"index"`
	Pressed bool `json:"pressed"`
}

type encoderEventPayload struct {
	Index int `json:"index"`
	Delta int `json:"delta"`
}

type swipeEventPayload struct {
	Direction inputdecoder.SwipeDirection `json:"direction"`
}

// pageEventPayload carries both the new page and the page count, per
// spec.md §6's `streamdeck:page{page, page_count}`.
type pageEventPayload struct {
	Page      int `json:"page"`
	PageCount int `json:"page_count"`
}

// ConnectionEventPayload carries the device's connect/disconnect state,
// per spec.md §6's `streamdeck:connection{connected, model}`.
type ConnectionEventPayload struct {
	Connected bool   `json:"connected"`
	Model     string `json:"model"`
}

// dispatchInput finds the binding (if any) matching ref among the
// already-cloned pageBindings and dispatches in a fresh goroutine, per
// spec.md §4.10 step 4e(ii): "dispatch to the registry in a fresh
// background thread so a slow remote plugin never stalls HID polling".
func (e *Engine) dispatchInput(ctx context.Context, page int, pageBindings []binding.Binding, ref binding.InputRef, ev inputdecoder.Event) {
	var match *binding.Binding
	for i := range pageBindings {
		if pageBindings[i].Input.Equal(ref) {
			match = &pageBindings[i]
			break
		}
	}
	if match == nil {
		return
	}

	// Button and encoder-press events only act on the press edge, not the
	// release, except for button release which still needs to exist for
	// renderer state but not for dispatch.
	if ev.Kind == inputdecoder.EventButton && !ev.Pressed {
		return
	}

	b := *match
	cap := b.Capability
	go func() {
		var err error
		if ev.Kind == inputdecoder.EventEncoder {
			err = e.registry.ApplyEncoder(context.Background(), cap, ev.Delta)
		} else {
			err = e.registry.ApplyButton(context.Background(), cap)
		}
		if err != nil {
			log.WithError(err).WithField("capability", cap.Type).Warn("hidengine: dispatch failed")
			return
		}
		e.RequestImageSync()
	}()
}

func (e *Engine) navigatePage(dir inputdecoder.SwipeDirection) {
	cur := e.CurrentPage()
	maxPage := e.PageCount() // = max_bound_page + 1
	next := cur
	if dir == inputdecoder.SwipeRight {
		next = cur + 1
	} else {
		next = cur - 1
	}
	if next < 0 {
		next = 0
	}
	if next > maxPage {
		next = maxPage
	}
	if next == cur {
		return
	}
	atomic.StoreInt32(&e.page, int32(next))
	if e.emitter != nil {
		e.emitter.EmitEvent("streamdeck:page", pageEventPayload{Page: next, PageCount: e.PageCount()})
	}
	e.RequestImageSync()
}

// emitEvent forwards one decoded input event to the GUI under its named
// event, per spec.md §6's event surface list.
func (e *Engine) emitEvent(ev inputdecoder.Event) {
	if e.emitter == nil {
		return
	}
	switch ev.Kind {
	case inputdecoder.EventButton:
		e.emitter.EmitEvent("streamdeck:button", buttonEventPayload{Index: ev.Index, Pressed: ev.Pressed})
	case inputdecoder.EventEncoder:
		e.emitter.EmitEvent("streamdeck:encoder", encoderEventPayload{Index: ev.Index, Delta: ev.Delta})
	case inputdecoder.EventEncoderPress:
		e.emitter.EmitEvent("streamdeck:encoder-press", buttonEventPayload{Index: ev.Index, Pressed: ev.Pressed})
	case inputdecoder.EventSwipe:
		e.emitter.EmitEvent("streamdeck:swipe", swipeEventPayload{Direction: ev.Direction})
	}
}

// emitConnection emits the connect/disconnect event for the GUI's device
// status indicator.
func (e *Engine) emitConnection(connected bool, model string) {
	if e.emitter == nil {
		return
	}
	e.emitter.EmitEvent("streamdeck:connection", ConnectionEventPayload{Connected: connected, Model: model})
}

// renderPage renders every key and the encoder strip for page and pushes
// them to the device, per spec.md §4.10's rendering paragraph.
func (e *Engine) renderPage(conn *connection, page int) {
	for i := 0; i < conn.geom.buttonCount; i++ {
		b, ok := e.bindings.Lookup(page, binding.Button(i))
		if !ok {
			_ = conn.clearKey(i)
			continue
		}
		active := e.registry.IsActive(b.Capability)
		img := e.renderer.Render(&b, active)
		if err := conn.pushKeyImage(i, img); err != nil {
			log.WithError(err).Debug("hidengine: push key image failed")
			return
		}
	}

	for i := 0; i < conn.geom.encoderCount; i++ {
		e.renderEncoderStrip(conn, page, i)
	}
}

// renderEncoderStrip resolves the press-vs-rotation image precedence rule
// (spec.md §9: "press takes precedence") for encoder index i and pushes
// it, or clears the section if neither binding has artwork.
func (e *Engine) renderEncoderStrip(conn *connection, page, index int) {
	target := conn.geom.buttonCount + index
	press, havePress := e.bindings.Lookup(page, binding.EncoderPress(index))
	rotate, haveRotate := e.bindings.Lookup(page, binding.Encoder(index))

	var chosen *binding.Binding
	switch {
	case havePress && hasArtwork(press):
		chosen = &press
	case haveRotate && hasArtwork(rotate):
		chosen = &rotate
	}

	if chosen == nil {
		_ = conn.clearKey(target)
		return
	}
	active := e.registry.IsActive(chosen.Capability)
	img := e.renderer.Render(chosen, active)
	if err := conn.pushKeyImage(target, img); err != nil {
		log.WithError(err).Debug("hidengine: push encoder strip failed")
	}
}

func hasArtwork(b binding.Binding) bool {
	return b.ButtonImage != nil || b.Icon != nil
}

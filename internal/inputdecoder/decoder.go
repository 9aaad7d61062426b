// Package inputdecoder turns raw HID input reports into logical input
// events: button press/release edges, encoder rotation deltas, encoder
// push-switch edges, and touch-strip swipe gestures. Grounded directly on
// the teacher's server/hub.go quadTable/knobState/handleChange idiom
// (edge-diff a bit vector, decode two-bit quadrature into detents),
// generalized from three fixed knobs wired to GPIO-expander bits to N
// encoders and M buttons read from a HID report's byte layout.
package inputdecoder

// EventKind tags which field of Event is populated.
type EventKind string

const (
	EventButton       EventKind = "button"
	EventEncoder      EventKind = "encoder"
	EventEncoderPress EventKind = "encoder_press"
	EventSwipe        EventKind = "swipe"
)

// SwipeDirection names the two swipe gestures the touch strip recognizes.
// The strip is one-dimensional in its gesture vocabulary: vertical motion
// never produces its own direction, it only disqualifies a swipe that
// isn't straight enough.
type SwipeDirection string

const (
	SwipeLeft  SwipeDirection = "left"
	SwipeRight SwipeDirection = "right"
)

// Event is one decoded logical input event.
type Event struct {
	Kind      EventKind
	Index     int            // meaningful for Button, Encoder, EncoderPress
	Pressed   bool           // meaningful for Button, EncoderPress
	Delta     int            // meaningful for Encoder: signed detent count
	Direction SwipeDirection // meaningful for Swipe
}

// Layout describes where buttons, encoders, and the touch strip live in a
// fixed-size HID input report. Bit/byte offsets are device-specific and
// supplied by the HID engine from the connected device's descriptor.
type Layout struct {
	ButtonCount  int
	ButtonOffset int // byte offset of the first button bit

	EncoderCount   int
	EncoderOffset  int // byte offset of the first encoder's 2-bit quadrature field
	EncoderPressOffset int // byte offset of the first encoder push-switch bit

	// Touch strip: two bytes (x, y) per sample, non-zero while touched.
	TouchXOffset int
	TouchYOffset int

	SwipeMinDistance int // minimum signed horizontal travel to count as a swipe
}

// quadTable maps (prev<<2)|cur to a step direction for all 16 possible
// 2-bit quadrature transitions, identical to the teacher's table.
var quadTable = [16]int{
	0, +1, -1, 0,
	-1, 0, 0, +1,
	+1, 0, 0, -1,
	0, -1, +1, 0,
}

// knobState accumulates quadrature steps and emits once per detent.
type knobState struct {
	prev        uint8
	accumulated int
}

func (k *knobState) update(cur uint8) int {
	k.accumulated += quadTable[(k.prev<<2)|cur]
	k.prev = cur
	if k.accumulated >= 2 {
		k.accumulated = 0
		return +1
	}
	if k.accumulated <= -2 {
		k.accumulated = 0
		return -1
	}
	return 0
}

type touchState struct {
	active bool
	startX int
	startY int
	lastX  int
	lastY  int
}

// Decoder holds the per-input state needed to turn report-to-report edges
// into events: previous button bits, per-encoder quadrature accumulators,
// and the in-progress touch-strip gesture.
type Decoder struct {
	layout Layout

	prevButtons    []bool
	prevEncPress   []bool
	knobs          []knobState
	touch          touchState
}

// New returns a Decoder for the given report layout.
func New(layout Layout) *Decoder {
	return &Decoder{
		layout:       layout,
		prevButtons:  make([]bool, layout.ButtonCount),
		prevEncPress: make([]bool, layout.EncoderCount),
		knobs:        make([]knobState, layout.EncoderCount),
	}
}

func bit(report []byte, byteOffset, bitOffset int) bool {
	idx := byteOffset + bitOffset/8
	if idx >= len(report) {
		return false
	}
	return report[idx]>>(uint(bitOffset)%8)&1 == 1
}

// Decode compares report against the previously decoded report and returns
// every logical event that occurred. Safe to call from a single reader
// goroutine only — Decoder is not itself synchronized, matching spec.md's
// "HID read loop owns decoding" concurrency model.
func (d *Decoder) Decode(report []byte) []Event {
	var events []Event

	for i := 0; i < d.layout.ButtonCount; i++ {
		pressed := bit(report, d.layout.ButtonOffset, i)
		if pressed != d.prevButtons[i] {
			events = append(events, Event{Kind: EventButton, Index: i, Pressed: pressed})
			d.prevButtons[i] = pressed
		}
	}

	for i := 0; i < d.layout.EncoderCount; i++ {
		pressed := bit(report, d.layout.EncoderPressOffset, i)
		if pressed != d.prevEncPress[i] {
			events = append(events, Event{Kind: EventEncoderPress, Index: i, Pressed: pressed})
			d.prevEncPress[i] = pressed
		}

		byteIdx := d.layout.EncoderOffset + i
		var cur uint8
		if byteIdx < len(report) {
			cur = report[byteIdx] & 0x3
		}
		if delta := d.knobs[i].update(cur); delta != 0 {
			events = append(events, Event{Kind: EventEncoder, Index: i, Delta: delta})
		}
	}

	if ev, ok := d.decodeTouch(report); ok {
		events = append(events, ev)
	}

	return events
}

// decodeTouch tracks a touch-down/move/up sequence on the strip and, on
// release, classifies it as a swipe. The touch position goes to (0, 0) the
// instant the strip is released, so the release sample itself carries no
// usable position — distance is measured from the touch-down point to the
// last sample where the strip was still touched.
func (d *Decoder) decodeTouch(report []byte) (Event, bool) {
	if d.layout.TouchXOffset == 0 && d.layout.TouchYOffset == 0 {
		return Event{}, false
	}
	x := int(byteAt(report, d.layout.TouchXOffset))
	y := int(byteAt(report, d.layout.TouchYOffset))
	touching := x != 0 || y != 0

	if touching {
		if !d.touch.active {
			d.touch = touchState{active: true, startX: x, startY: y}
		}
		d.touch.lastX, d.touch.lastY = x, y
		return Event{}, false
	}

	if d.touch.active {
		dx := d.touch.lastX - d.touch.startX
		dy := d.touch.lastY - d.touch.startY
		d.touch.active = false
		return classifySwipe(dx, dy, d.layout.SwipeMinDistance)
	}

	return Event{}, false
}

// classifySwipe is a closed, three-outcome classifier: straightness is
// judged against dx's own magnitude, not an independently configured
// perpendicular limit, so a swipe that travels further vertically than
// horizontally is never straight enough regardless of absolute distance.
func classifySwipe(dx, dy, minDist int) (Event, bool) {
	ady := abs(dy)
	if ady > abs(dx) {
		return Event{}, false
	}
	switch {
	case dx > minDist:
		return Event{Kind: EventSwipe, Direction: SwipeRight}, true
	case dx < -minDist:
		return Event{Kind: EventSwipe, Direction: SwipeLeft}, true
	default:
		return Event{}, false
	}
}

func byteAt(report []byte, offset int) byte {
	if offset < 0 || offset >= len(report) {
		return 0
	}
	return report[offset]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

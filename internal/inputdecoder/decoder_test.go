package inputdecoder

import "testing"

func testLayout() Layout {
	return Layout{
		ButtonCount:        4,
		ButtonOffset:       0,
		EncoderCount:       2,
		EncoderOffset:      1,
		EncoderPressOffset: 8,
		TouchXOffset:       3,
		TouchYOffset:       4,
		SwipeMinDistance:   50,
	}
}

func TestDecodeButtonEdges(t *testing.T) {
	d := New(testLayout())

	events := d.Decode([]byte{0b0001, 0, 0, 0, 0, 0, 0, 0, 0})
	if len(events) != 1 || events[0].Kind != EventButton || events[0].Index != 0 || !events[0].Pressed {
		t.Fatalf("press events = %+v, want single press of button 0", events)
	}

	// No change: no events.
	if events := d.Decode([]byte{0b0001, 0, 0, 0, 0, 0, 0, 0, 0}); len(events) != 0 {
		t.Fatalf("unchanged report produced events: %+v", events)
	}

	events = d.Decode([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0})
	if len(events) != 1 || events[0].Kind != EventButton || events[0].Pressed {
		t.Fatalf("release events = %+v, want single release of button 0", events)
	}
}

func TestDecodeEncoderPressEdge(t *testing.T) {
	d := New(testLayout())
	events := d.Decode([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0b01})
	if len(events) != 1 || events[0].Kind != EventEncoderPress || events[0].Index != 0 || !events[0].Pressed {
		t.Fatalf("events = %+v, want encoder 0 press", events)
	}
}

// encoderByte packs a 2-bit quadrature value for a single encoder into its
// report byte.
func encoderReport(layout Layout, encoderIdx int, quad uint8) []byte {
	report := make([]byte, 9)
	report[layout.EncoderOffset+encoderIdx] = quad & 0x3
	return report
}

func TestDecodeEncoderRotationClockwise(t *testing.T) {
	layout := testLayout()
	d := New(layout)

	// Standard quadrature sequence for one clockwise detent: 0 -> 1 -> 3 -> 2.
	seq := []uint8{0, 1, 3, 2}
	var deltas []int
	for _, q := range seq {
		for _, ev := range d.Decode(encoderReport(layout, 0, q)) {
			if ev.Kind == EventEncoder {
				deltas = append(deltas, ev.Delta)
			}
		}
	}
	if len(deltas) != 1 || deltas[0] != 1 {
		t.Fatalf("deltas = %v, want a single +1 detent", deltas)
	}
}

func TestDecodeEncoderRotationCounterClockwise(t *testing.T) {
	layout := testLayout()
	d := New(layout)

	seq := []uint8{0, 2, 3, 1}
	var deltas []int
	for _, q := range seq {
		for _, ev := range d.Decode(encoderReport(layout, 0, q)) {
			if ev.Kind == EventEncoder {
				deltas = append(deltas, ev.Delta)
			}
		}
	}
	if len(deltas) != 1 || deltas[0] != -1 {
		t.Fatalf("deltas = %v, want a single -1 detent", deltas)
	}
}

func touchReport(layout Layout, x, y byte) []byte {
	report := make([]byte, 9)
	report[layout.TouchXOffset] = x
	report[layout.TouchYOffset] = y
	return report
}

func TestDecodeSwipeRight(t *testing.T) {
	layout := testLayout()
	d := New(layout)

	d.Decode(touchReport(layout, 10, 10))  // touch down
	d.Decode(touchReport(layout, 100, 12)) // dragging right, roughly level
	events := d.Decode(touchReport(layout, 0, 0)) // release

	if len(events) != 1 || events[0].Kind != EventSwipe || events[0].Direction != SwipeRight {
		t.Fatalf("events = %+v, want a single right swipe", events)
	}
}

// TestDecodeSwipeRightWithSubstantialVerticalDrift checks that straightness
// is judged against dx's own magnitude, not an independently configured
// perpendicular limit: dy=150 exceeds any plausible fixed "straight"
// tolerance but is still less than dx=200, so this must classify Right.
func TestDecodeSwipeRightWithSubstantialVerticalDrift(t *testing.T) {
	layout := testLayout()
	d := New(layout)

	d.Decode(touchReport(layout, 10, 10))
	d.Decode(touchReport(layout, 210, 160)) // dx=200, dy=150
	events := d.Decode(touchReport(layout, 0, 0))

	if len(events) != 1 || events[0].Kind != EventSwipe || events[0].Direction != SwipeRight {
		t.Fatalf("events = %+v, want a single right swipe", events)
	}
}

func TestDecodeTouchMostlyVerticalIsNotASwipe(t *testing.T) {
	layout := testLayout()
	d := New(layout)

	d.Decode(touchReport(layout, 50, 200))
	d.Decode(touchReport(layout, 52, 100)) // dx=2, dy=100: dy exceeds |dx|
	events := d.Decode(touchReport(layout, 0, 0))

	if len(events) != 0 {
		t.Fatalf("events = %+v, want no swipe for a mostly-vertical drag", events)
	}
}

func TestDecodeTouchBelowThresholdIsNotASwipe(t *testing.T) {
	layout := testLayout()
	d := New(layout)

	d.Decode(touchReport(layout, 50, 50))
	events := d.Decode(touchReport(layout, 0, 0)) // moved only a few units

	if len(events) != 0 {
		t.Fatalf("events = %+v, want no swipe for a sub-threshold drag", events)
	}
}

// TestDecodeTouchEqualDiagonalStillCountsAsSwipe documents the boundary of
// the straightness check: dy is compared to |dx|, so equal travel on both
// axes (dy == |dx|, not dy > |dx|) does not disqualify the gesture.
func TestDecodeTouchEqualDiagonalStillCountsAsSwipe(t *testing.T) {
	layout := testLayout()
	d := New(layout)

	d.Decode(touchReport(layout, 10, 10))
	d.Decode(touchReport(layout, 100, 100)) // equal travel on both axes
	events := d.Decode(touchReport(layout, 0, 0))

	if len(events) != 1 || events[0].Kind != EventSwipe || events[0].Direction != SwipeRight {
		t.Fatalf("events = %+v, want a single right swipe (dy == |dx| is still straight)", events)
	}
}

func TestDecodeTouchSteeperThanDiagonalIsNotASwipe(t *testing.T) {
	layout := testLayout()
	d := New(layout)

	d.Decode(touchReport(layout, 10, 10))
	d.Decode(touchReport(layout, 100, 110)) // dx=90, dy=100: dy exceeds |dx|
	events := d.Decode(touchReport(layout, 0, 0))

	if len(events) != 0 {
		t.Fatalf("events = %+v, want no swipe once dy exceeds |dx|", events)
	}
}

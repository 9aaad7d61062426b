// Package binding models the logical input surface of the keypad and the
// binding table that maps each input to a capability invocation.
package binding

import (
	"fmt"
)

// InputKind tags which variant of InputRef is populated. The wire and file
// representations both carry this as the discriminant, matching the
// original Rust `InputRef` enum's serde tagging.
type InputKind string

const (
	KindButton       InputKind = "button"
	KindEncoder      InputKind = "encoder"
	KindEncoderPress InputKind = "encoder_press"
	KindSwipe        InputKind = "swipe"
)

// InputRef identifies one physical input on the device: a button, an
// encoder's rotation, an encoder's push-switch, or the touch-strip swipe
// gesture. Button/Encoder/EncoderPress carry a zero-based Index; Swipe does
// not (the device has exactly one touch strip).
type InputRef struct {
	Kind  InputKind `json:"kind"`
	Index int       `json:"index,omitempty"`
}

// Button returns the InputRef for the button at index.
func Button(index int) InputRef { return InputRef{Kind: KindButton, Index: index} }

// Encoder returns the InputRef for the encoder at index.
func Encoder(index int) InputRef { return InputRef{Kind: KindEncoder, Index: index} }

// EncoderPress returns the InputRef for the push-switch of encoder index.
func EncoderPress(index int) InputRef { return InputRef{Kind: KindEncoderPress, Index: index} }

// Swipe is the single InputRef for the touch-strip swipe gesture.
var Swipe = InputRef{Kind: KindSwipe}

// Equal reports whether two InputRefs name the same physical input. Mirrors
// the original `inputs_match` helper: two InputRefs match only if they
// share a kind, and (for kinds that carry one) the same index.
func (r InputRef) Equal(other InputRef) bool {
	if r.Kind != other.Kind {
		return false
	}
	if r.Kind == KindSwipe {
		return true
	}
	return r.Index == other.Index
}

func (r InputRef) String() string {
	if r.Kind == KindSwipe {
		return string(KindSwipe)
	}
	return fmt.Sprintf("%s[%d]", r.Kind, r.Index)
}

// Validate checks the InputRef is one of the known kinds.
func (r InputRef) Validate() error {
	switch r.Kind {
	case KindButton, KindEncoder, KindEncoderPress, KindSwipe:
		return nil
	default:
		return fmt.Errorf("binding: unknown input kind %q", r.Kind)
	}
}


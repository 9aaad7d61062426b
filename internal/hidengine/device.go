package hidengine

import (
	"github.com/vincent99/deckmanagerd/internal/inputdecoder"
)

// DefaultVendorID is Elgato's registered USB vendor ID (0fd9), the only
// vendor spec.md names, used when appconfig's HIDConfig.VendorID is unset.
// Grounded on other_examples/417510a1_kortschak-ardilla__deck.go's
// vidElGato constant.
const DefaultVendorID uint16 = 0x0fd9

// geometry describes one device model's physical layout: input report
// decoding offsets plus output image dimensions. Grounded on
// other_examples/417510a1_kortschak-ardilla's per-PID `device` descriptor
// table (rows/cols/bufLen/imgReportLen) and
// other_examples/315a1ade_SKAARHOJ-go-streamdeck's per-model geometry
// struct, collapsed here to the single layout spec.md describes (rotary
// encoders + push-buttons + touch strip + per-key LCDs).
type geometry struct {
	name string

	buttonCount  int
	encoderCount int

	keyWidth, keyHeight int // per-key LCD pixel dimensions
	stripWidth, stripHeight int // encoder LCD strip pixel dimensions

	reportSize int
	layout     inputdecoder.Layout

	imageHeaderSize int // bytes reserved for the per-chunk image-write header
	maxChunkPayload int // bytes of image data per HID output report
}

// defaultGeometry models an 8-button / 4-encoder / touch-strip keypad with
// 96x96 per-key panels, matching the class of device spec.md describes.
// Unlike the reference Stream Deck drivers (which hardcode one PID's
// layout), there's exactly one supported layout here — spec.md names no
// second device kind, so there is nothing to switch on yet.
func defaultGeometry() geometry {
	const buttons, encoders = 8, 4
	return geometry{
		name:         "keypad",
		buttonCount:  buttons,
		encoderCount: encoders,
		keyWidth:     96,
		keyHeight:    96,
		stripWidth:   800,
		stripHeight:  100,
		reportSize:   512,
		layout: inputdecoder.Layout{
			ButtonCount:           buttons,
			ButtonOffset:          1,
			EncoderCount:          encoders,
			EncoderOffset:         2,
			EncoderPressOffset:    6,
			TouchXOffset:     7,
			TouchYOffset:     8,
			SwipeMinDistance: 50,
		},
		imageHeaderSize: 8,
		maxChunkPayload: 1016,
	}
}

package hidengine

import (
	"fmt"
	"time"

	"github.com/karalabe/hid"
)

const (
	connectPollInterval = 100 * time.Millisecond
	connectMaxWait      = 2 * time.Second
	readTimeout         = 50 * time.Millisecond
)

// DeviceInfo is the connected device's identity, returned verbatim by the
// command surface's get_device_info call.
type DeviceInfo struct {
	VendorID     uint16 `json:"vendor_id"`
	ProductID    uint16 `json:"product_id"`
	Serial       string `json:"serial"`
	Manufacturer string `json:"manufacturer"`
	Product      string `json:"product"`
	ButtonCount  int    `json:"button_count"`
	EncoderCount int    `json:"encoder_count"`
}

// connection wraps an open HID handle plus the geometry it was opened
// with, so a reconnect can pick a (possibly different) geometry for
// whatever device answers next.
type connection struct {
	dev  *hid.Device
	info DeviceInfo
	geom geometry
}

func (c *connection) Close() {
	if c.dev != nil {
		c.dev.Close()
	}
}

// presenceHint reports whether a hot-plug signal indicates a device, used
// to let that signal shortcut the remaining poll interval.
type presenceHint func() bool

// waitAndOpen enumerates devices for vendorID/productID (productID 0
// matches any product from vendorID), blocking up to connectMaxWait and
// polling every connectPollInterval (interruptible by hint returning true
// early), then opens the first match. Grounded on
// other_examples/417510a1_kortschak-ardilla's hid.Enumerate+Open pairing
// and its Reconnect retry-on-timer idiom, adapted from a fixed El Gato PID
// table to the single geometry this engine supports.
func waitAndOpen(vendorID, productID uint16, hint presenceHint) (*connection, error) {
	deadline := time.Now().Add(connectMaxWait)
	for {
		infos, err := hid.Enumerate(vendorID, productID)
		if err == nil && len(infos) > 0 {
			return open(infos[0])
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("hidengine: no device found for vendor %04x", vendorID)
		}
		if hint != nil && hint() {
			// Hot-plug signaled a new device; try enumerating immediately
			// instead of waiting out the rest of this poll tick.
			continue
		}
		time.Sleep(connectPollInterval)
	}
}

func open(info hid.DeviceInfo) (*connection, error) {
	dev, err := info.Open()
	if err != nil {
		return nil, fmt.Errorf("hidengine: open %04x:%04x: %w", info.VendorID, info.ProductID, err)
	}
	geom := defaultGeometry()
	return &connection{
		dev: dev,
		geom: geom,
		info: DeviceInfo{
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Serial:       info.Serial,
			Manufacturer: info.Manufacturer,
			Product:      info.Product,
			ButtonCount:  geom.buttonCount,
			EncoderCount: geom.encoderCount,
		},
	}, nil
}

// readReport reads one input report with the engine's fixed timeout. A
// zero-byte read with no error means the timeout elapsed with nothing
// available and is not itself an error condition.
func (c *connection) readReport(buf []byte) (int, error) {
	return c.dev.ReadTimeout(buf, int(readTimeout/time.Millisecond))
}

// writeChunk writes one raw HID output report. The vendor wire format for
// composing a key image out of chunked reports is explicitly out of
// scope (spec.md §1's "Vendor USB protocol details... the engine relies
// on a 'send key image' primitive") — this is that primitive's transport
// half; chunk framing lives in render_push.go.
func (c *connection) writeChunk(buf []byte) error {
	_, err := c.dev.Write(buf)
	return err
}

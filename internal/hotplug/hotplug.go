// Package hotplug watches udev for add/remove events on the configured
// HID vendor, so the HID engine's reconnect loop can wake immediately
// instead of waiting out its full poll interval. Grounded on the
// enumerate/monitor idiom in
// other_examples/00855aa7_ardnew-softusb's hid-monitor (device connect/
// disconnect event loop), adapted from a raw USB HAL to udev netlink
// events via github.com/jochenvg/go-udev, the pack's only udev dependency.
package hotplug

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jochenvg/go-udev"

	"github.com/vincent99/deckmanagerd/internal/logging"
)

var log = logging.For("hotplug")

// Monitor tracks whether at least one USB device matching vendorID is
// currently present, updated from udev add/remove netlink signals.
type Monitor struct {
	vendorID uint16
	present  atomic.Bool
}

// New returns a Monitor filtering on vendorID (a USB vendor ID such as
// the deck's VID). Call Run in its own goroutine.
func New(vendorID uint16) *Monitor {
	return &Monitor{vendorID: vendorID}
}

// Present reports whether a matching device is currently attached. The
// HID engine's connect loop polls this at its configured interval
// alongside its own enumerate-by-VID attempt, so a missed/coalesced
// netlink signal never wedges reconnection — enumeration is still the
// source of truth, this is just a wakeup hint.
func (m *Monitor) Present() bool {
	return m.present.Load()
}

// Run subscribes to the udev "usb" subsystem and updates m.present on
// every add/remove event whose idVendor attribute matches, until ctx is
// canceled. A udev connection failure (e.g. non-Linux, no udev running)
// is logged and Run returns; the HID engine falls back to enumeration on
// its own poll interval in that case.
func (m *Monitor) Run(ctx context.Context) {
	u := udev.Udev{}
	monitor := u.NewMonitorFromNetlink("udev")
	if err := monitor.FilterAddMatchSubsystem("usb"); err != nil {
		log.WithError(err).Warn("hotplug: cannot filter udev subsystem, monitor disabled")
		return
	}

	ch, done, err := monitor.DeviceChan(ctx)
	if err != nil {
		log.WithError(err).Warn("hotplug: cannot start udev monitor, monitor disabled")
		return
	}
	defer func() { <-done }()

	// Seed present from a one-shot enumeration so the flag isn't false
	// until the next hotplug event fires.
	m.present.Store(m.enumerateMatches(&u))

	for {
		select {
		case <-ctx.Done():
			return
		case dev, ok := <-ch:
			if !ok {
				return
			}
			m.handleEvent(dev)
		}
	}
}

func (m *Monitor) enumerateMatches(u *udev.Udev) bool {
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("usb"); err != nil {
		return false
	}
	devices, err := e.Devices()
	if err != nil {
		return false
	}
	for _, d := range devices {
		if vendorMatches(d.PropertyValue("ID_VENDOR_ID"), m.vendorID) {
			return true
		}
	}
	return false
}

func (m *Monitor) handleEvent(dev *udev.Device) {
	if !vendorMatches(dev.PropertyValue("ID_VENDOR_ID"), m.vendorID) {
		return
	}
	switch dev.Action() {
	case "add":
		m.present.Store(true)
		log.Info("hotplug: matching device added")
	case "remove":
		m.present.Store(false)
		log.Info("hotplug: matching device removed")
	}
}

func vendorMatches(idVendor string, want uint16) bool {
	idVendor = strings.TrimSpace(idVendor)
	if idVendor == "" {
		return false
	}
	v, err := strconv.ParseUint(idVendor, 16, 16)
	if err != nil {
		return false
	}
	return uint16(v) == want
}

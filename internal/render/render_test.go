package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/vincent99/deckmanagerd/internal/binding"
	"github.com/vincent99/deckmanagerd/internal/capability"
	"github.com/vincent99/deckmanagerd/internal/imagecache"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	cache, err := imagecache.New(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	// font is nil: FontSource.DrawLabel no-ops on a nil receiver, so label
	// rendering is exercised for its early-return path without a font fixture.
	return New(cache, nil, 72, 72)
}

func writePNGFixture(t *testing.T, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "icon.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderNilBindingProducesBlankCanvas(t *testing.T) {
	r := newTestRenderer(t)
	img := r.Render(nil, false)
	if img.Width != 72 || img.Height != 72 {
		t.Fatalf("KeyImage size = %dx%d, want 72x72", img.Width, img.Height)
	}
	c := img.Pix.At(0, 0)
	if c != blankColor {
		t.Errorf("blank canvas pixel = %v, want %v", c, blankColor)
	}
}

func TestRenderDrawsIconOverBlankBackground(t *testing.T) {
	path := writePNGFixture(t, color.RGBA{0, 200, 0, 255})
	r := newTestRenderer(t)
	b := &binding.Binding{
		Page:       0,
		Input:      binding.Button(0),
		Capability: capability.Capability{Type: capability.Mute},
		ButtonImage: &path,
	}

	img := r.Render(b, false)
	center := img.Pix.At(36, 36)
	rgba := color.RGBAModel.Convert(center).(color.RGBA)
	if rgba.G < 100 {
		t.Errorf("center pixel = %+v, want the icon's green fill drawn over the background", rgba)
	}
}

func TestRenderUsesAltImageWhenPressed(t *testing.T) {
	normal := writePNGFixture(t, color.RGBA{200, 0, 0, 255})
	pressed := writePNGFixture(t, color.RGBA{0, 0, 200, 255})
	r := newTestRenderer(t)
	b := &binding.Binding{
		Page:           0,
		Input:          binding.Button(0),
		Capability:     capability.Capability{Type: capability.Mute},
		ButtonImage:    &normal,
		ButtonImageAlt: &pressed,
	}

	unpressedImg := r.Render(b, false)
	pressedImg := r.Render(b, true)

	unpressedPx := color.RGBAModel.Convert(unpressedImg.Pix.At(36, 36)).(color.RGBA)
	pressedPx := color.RGBAModel.Convert(pressedImg.Pix.At(36, 36)).(color.RGBA)

	if unpressedPx.R < 100 {
		t.Errorf("unpressed center = %+v, want the normal (red) icon", unpressedPx)
	}
	if pressedPx.B < 100 {
		t.Errorf("pressed center = %+v, want the alt (blue) icon", pressedPx)
	}
}

func TestRenderFallsBackToBlankOnMissingIconFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist.png")
	r := newTestRenderer(t)
	b := &binding.Binding{
		Page:        0,
		Input:       binding.Button(0),
		Capability:  capability.Capability{Type: capability.Mute},
		ButtonImage: &missing,
	}

	img := r.Render(b, false)
	if img.Width != 72 || img.Height != 72 {
		t.Fatalf("KeyImage size = %dx%d, want 72x72 even with a missing icon source", img.Width, img.Height)
	}
}

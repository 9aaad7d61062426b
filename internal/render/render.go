package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/vincent99/deckmanagerd/internal/binding"
	"github.com/vincent99/deckmanagerd/internal/imagecache"
)

// KeyImage is what the HID engine pushes for one button/encoder: an RGBA
// buffer sized exactly to the device's per-key panel dimensions.
type KeyImage struct {
	Width, Height int
	Pix           *image.RGBA
}

// Renderer composes a Binding's icon, color override, and label into a
// device-ready key image. It owns the icon byte cache and the label font,
// and is safe for concurrent use by the HID engine's render loop and the
// command surface's sync_button_images handler.
type Renderer struct {
	cache *imagecache.Cache
	font  *FontSource
	w, h  int
}

// New returns a Renderer that produces width x height key images.
func New(cache *imagecache.Cache, font *FontSource, width, height int) *Renderer {
	return &Renderer{cache: cache, font: font, w: width, h: height}
}

// blankColor is the background for a key with no binding.
var blankColor = color.RGBA{16, 16, 16, 255}

// Render produces the key image for b, or a blank placeholder if b is nil
// (no binding for this input) or its icon fails to load.
func (r *Renderer) Render(b *binding.Binding, pressed bool) *KeyImage {
	canvas := image.NewRGBA(image.Rect(0, 0, r.w, r.h))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{blankColor}, image.Point{}, draw.Src)

	if b == nil {
		return &KeyImage{Width: r.w, Height: r.h, Pix: canvas}
	}

	iconSource := b.ButtonImage
	if pressed && b.ButtonImageAlt != nil {
		iconSource = b.ButtonImageAlt
	}
	colorOverride := ""
	if c := b.IconColor; c != nil {
		colorOverride = *c
	}
	if pressed && b.IconColorAlt != nil {
		colorOverride = *b.IconColorAlt
	}
	if colorOverride == "" && b.Icon != nil {
		iconSource = b.Icon
	}

	if iconSource != nil {
		decode := func(data []byte) (image.Image, error) {
			icon, err := LoadIcon(data, r.w, r.h, colorOverride)
			if err != nil {
				return nil, err
			}
			return ResizeToFit(icon, r.w, r.h), nil
		}
		// targetSize uses the wider of the two key dimensions, since
		// spec.md's cache key carries a single "target_size_px" and every
		// key on a given device shares one panel geometry (r.w, r.h).
		targetSize := r.w
		if r.h > targetSize {
			targetSize = r.h
		}
		if resized, err := r.cache.GetImage(*iconSource, colorOverride, targetSize, decode); err == nil {
			draw.Draw(canvas, canvas.Bounds(), resized, image.Point{}, draw.Over)
		}
	}

	if b.ShowLabel == nil || *b.ShowLabel {
		if b.Label != nil {
			labelColor := color.Color(color.White)
			if colorOverride != "" {
				labelColor = parseHexColor(colorOverride)
			}
			r.font.DrawLabel(canvas, *b.Label, labelColor)
		}
	}

	return &KeyImage{Width: r.w, Height: r.h, Pix: canvas}
}

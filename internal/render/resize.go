package render

import (
	"image"
	"image/draw"

	"github.com/disintegration/gift"
)

// ResizeToFit scales img to fit within width x height using Lanczos-3
// resampling, then letterboxes it onto a transparent canvas of exactly
// width x height so every rendered icon is pixel-identical in size
// regardless of its source aspect ratio. Grounded on
// other_examples/315a1ade_SKAARHOJ-go-streamdeck's use of
// github.com/disintegration/gift for key-image resizing.
func ResizeToFit(img image.Image, width, height int) image.Image {
	srcBounds := img.Bounds()
	sw, sh := srcBounds.Dx(), srcBounds.Dy()
	if sw == 0 || sh == 0 {
		return image.NewRGBA(image.Rect(0, 0, width, height))
	}

	scale := minFloat(float64(width)/float64(sw), float64(height)/float64(sh))
	dw := maxInt(1, int(float64(sw)*scale))
	dh := maxInt(1, int(float64(sh)*scale))

	g := gift.New(gift.Resize(dw, dh, gift.LanczosResampling))
	resized := image.NewRGBA(g.Bounds(srcBounds))
	g.Draw(resized, img)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	offsetX := (width - dw) / 2
	offsetY := (height - dh) / 2
	draw.Draw(canvas, image.Rect(offsetX, offsetY, offsetX+dw, offsetY+dh), resized, image.Point{}, draw.Over)
	return canvas
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

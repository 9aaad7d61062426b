package render

import (
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	labelFontSize    = 11.0
	labelShadowDX    = 1
	labelShadowDY    = 1
	labelBottomInset = 4
)

// FontSource holds the TrueType font, loaded from a file, used for key
// labels. There is no font-rendering precedent anywhere in the retrieved
// example pack, so github.com/golang/freetype is named explicitly here
// rather than grounded — see DESIGN.md.
type FontSource struct {
	font *truetype.Font
}

// LoadFont parses a TrueType font file from path.
func LoadFont(path string) (*FontSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := freetype.ParseFont(data)
	if err != nil {
		return nil, err
	}
	return &FontSource{font: f}, nil
}

// DrawLabel overlays text, centered horizontally and anchored near the
// bottom of img, with a one-pixel drop shadow for legibility over
// arbitrary icon art. Text wider than img is truncated with an ellipsis.
func (fs *FontSource) DrawLabel(img draw.Image, text string, textColor color.Color) {
	if fs == nil || text == "" {
		return
	}
	bounds := img.Bounds()
	face := truetype.NewFace(fs.font, &truetype.Options{Size: labelFontSize, DPI: 72})
	defer face.Close()

	text = truncateToWidth(face, text, bounds.Dx()-4)
	textWidth := measure(face, text)
	x := bounds.Min.X + (bounds.Dx()-textWidth)/2
	y := bounds.Max.Y - labelBottomInset

	drawString(img, face, text, x+labelShadowDX, y+labelShadowDY, color.Black)
	drawString(img, face, text, x, y, textColor)
}

func measure(face font.Face, s string) int {
	var width fixed.Int26_6
	for _, r := range s {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		width += adv
	}
	return width.Round()
}

// truncateToWidth shortens s with a trailing ellipsis until it fits
// within maxWidth pixels at face's metrics.
func truncateToWidth(face font.Face, s string, maxWidth int) string {
	if measure(face, s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if measure(face, candidate) <= maxWidth {
			return candidate
		}
	}
	return "…"
}

func drawString(dst draw.Image, face font.Face, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

const sampleSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="32" height="32">
  <rect width="32" height="32" fill="#ff0000" stroke="none"/>
</svg>`

const recolorableSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="32" height="32">
  <rect width="32" height="32" fill="currentColor" stroke="black"/>
  <circle cx="16" cy="16" r="4" fill="#000"/>
</svg>`

const noStrokeSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="32" height="32">
  <rect width="32" height="32" fill="#000000"/>
</svg>`

func TestIsSVGDetectsXMLAndSVGProlog(t *testing.T) {
	if !isSVG([]byte(sampleSVG)) {
		t.Error("isSVG() = false for an <?xml ...> document, want true")
	}
	if !isSVG([]byte("  \n<svg><rect/></svg>")) {
		t.Error("isSVG() = false for a bare <svg> root with leading whitespace, want true")
	}
	if isSVG([]byte{0x89, 'P', 'N', 'G'}) {
		t.Error("isSVG() = true for PNG magic bytes, want false")
	}
}

func TestRecolorSVGLeavesExplicitColorsAlone(t *testing.T) {
	out := recolorSVG([]byte(sampleSVG), "#00ff00")
	s := string(out)
	if !bytes.Contains(out, []byte(`fill="#ff0000"`)) {
		t.Errorf("recolorSVG should leave an explicit, non-black fill untouched: %s", s)
	}
	if !bytes.Contains(out, []byte(`stroke="none"`)) {
		t.Errorf("recolorSVG should leave stroke=\"none\" untouched: %s", s)
	}
}

func TestRecolorSVGReplacesRecolorableValues(t *testing.T) {
	out := recolorSVG([]byte(recolorableSVG), "#00ff00")
	s := string(out)
	if bytes.Contains(out, []byte(`fill="currentColor"`)) {
		t.Errorf("recolorSVG should replace fill=\"currentColor\": %s", s)
	}
	if bytes.Contains(out, []byte(`stroke="black"`)) {
		t.Errorf("recolorSVG should replace stroke=\"black\": %s", s)
	}
	if bytes.Contains(out, []byte(`fill="#000"`)) {
		t.Errorf("recolorSVG should replace fill=\"#000\": %s", s)
	}
	if n := bytes.Count(out, []byte(`"#00ff00"`)); n != 3 {
		t.Errorf("recolorSVG replaced %d recolorable values with #00ff00, want 3: %s", n, s)
	}
}

func TestRecolorSVGInsertsStrokeOnRootWhenMissing(t *testing.T) {
	out := recolorSVG([]byte(noStrokeSVG), "#00ff00")
	s := string(out)
	if !strings.Contains(s, `<svg xmlns="http://www.w3.org/2000/svg" width="32" height="32" stroke="#00ff00">`) {
		t.Errorf("recolorSVG should insert a stroke attribute on the root <svg> tag: %s", s)
	}
}

func TestDecodeSVGRastersizesToRequestedDimensions(t *testing.T) {
	img, err := decodeSVG([]byte(sampleSVG), 40, 24)
	if err != nil {
		t.Fatalf("decodeSVG() error = %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 40 || b.Dy() != 24 {
		t.Errorf("decoded image size = %dx%d, want 40x24", b.Dx(), b.Dy())
	}
}

func TestLoadIconDecodesSVG(t *testing.T) {
	img, err := LoadIcon([]byte(sampleSVG), 16, 16, "")
	if err != nil {
		t.Fatalf("LoadIcon() error = %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Errorf("LoadIcon() size = %v, want 16x16", img.Bounds())
	}
}

func TestLoadIconDecodesRasterPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := LoadIcon(buf.Bytes(), 8, 8, "")
	if err != nil {
		t.Fatalf("LoadIcon() error = %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
		t.Errorf("LoadIcon() raster size = %v, want 8x8", img.Bounds())
	}
}

func TestLoadIconRejectsGarbageBytes(t *testing.T) {
	if _, err := LoadIcon([]byte("not an image"), 8, 8, ""); err == nil {
		t.Error("LoadIcon() on garbage bytes = nil error, want error")
	}
}

func TestParseHexColorSixDigit(t *testing.T) {
	c := parseHexColor("#336699")
	want := color.RGBA{0x33, 0x66, 0x99, 255}
	if c != want {
		t.Errorf("parseHexColor(#336699) = %+v, want %+v", c, want)
	}
}

func TestParseHexColorThreeDigitExpands(t *testing.T) {
	c := parseHexColor("#369")
	want := color.RGBA{0x33, 0x66, 0x99, 255}
	if c != want {
		t.Errorf("parseHexColor(#369) = %+v, want %+v", c, want)
	}
}

func TestParseHexColorMalformedDefaultsToWhite(t *testing.T) {
	c := parseHexColor("not-a-color")
	if c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("parseHexColor(garbage) = %+v, want opaque white", c)
	}
}

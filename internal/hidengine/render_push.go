package hidengine

import (
	"encoding/binary"
	"image/jpeg"

	"bytes"

	"github.com/vincent99/deckmanagerd/internal/render"
)

// pushKeyImage encodes img as JPEG and writes it to the device across as
// many chunked output reports as needed, per spec.md's "send key image"
// primitive — the exact vendor framing is explicitly out of scope
// (§1: "Vendor USB protocol details for composing PNG/JPEG frames"), so
// this uses a minimal, plausible chunk header (target index, sequence
// number, payload length, last-chunk flag) in the spirit of
// other_examples/417510a1_kortschak-ardilla's SetImage page-chunking loop.
func (c *connection) pushKeyImage(target int, img *render.KeyImage) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img.Pix, &jpeg.Options{Quality: 90}); err != nil {
		return err
	}
	return c.pushChunked(target, buf.Bytes())
}

func (c *connection) pushChunked(target int, data []byte) error {
	header := c.geom.imageHeaderSize
	payloadCap := c.geom.maxChunkPayload
	reportLen := header + payloadCap

	seq := 0
	for offset := 0; offset < len(data) || (offset == 0 && len(data) == 0); {
		chunk := data[offset:]
		n := len(chunk)
		if n > payloadCap {
			n = payloadCap
		}
		last := offset+n >= len(data)

		pkt := make([]byte, reportLen)
		pkt[0] = 0x02 // report id, by convention for image-write reports
		pkt[1] = byte(target)
		if last {
			pkt[2] = 1
		}
		binary.LittleEndian.PutUint16(pkt[3:5], uint16(n))
		binary.LittleEndian.PutUint16(pkt[5:7], uint16(seq))
		copy(pkt[header:], chunk[:n])

		if err := c.writeChunk(pkt); err != nil {
			return err
		}

		offset += n
		seq++
		if last {
			break
		}
	}
	return nil
}

// clearKey writes a single blank (all-zero) image to target, used when no
// binding occupies that key on the current page.
func (c *connection) clearKey(target int) error {
	return c.pushChunked(target, nil)
}

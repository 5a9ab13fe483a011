package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 22

var iconOnce struct {
	sync.Once
	data []byte
}

// iconBytes renders the tray icon: a filmstrip with a cut through it.
// Drawing it at startup keeps binary blobs out of the source tree.
func iconBytes() []byte {
	iconOnce.Do(func() {
		iconOnce.data = renderIcon()
	})
	return iconOnce.data
}

func renderIcon() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))

	film := color.NRGBA{R: 0x2b, G: 0x2b, B: 0x2b, A: 0xff}
	hole := color.NRGBA{R: 0xe8, G: 0xe8, B: 0xe8, A: 0xff}
	cut := color.NRGBA{R: 0xd9, G: 0x4f, B: 0x30, A: 0xff}

	// Film body with sprocket holes along top and bottom.
	for y := 4; y < iconSize-4; y++ {
		for x := 0; x < iconSize; x++ {
			img.SetNRGBA(x, y, film)
		}
	}
	for x := 2; x < iconSize-1; x += 5 {
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				img.SetNRGBA(x+dx, 5+dy, hole)
				img.SetNRGBA(x+dx, iconSize-7+dy, hole)
			}
		}
	}

	// Diagonal cut line.
	for y := 2; y < iconSize-2; y++ {
		x := iconSize - 2 - y
		img.SetNRGBA(x, y, cut)
		img.SetNRGBA(x+1, y, cut)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding an in-memory NRGBA never fails; an empty icon just
		// falls back to the platform default.
		return nil
	}
	return buf.Bytes()
}

package ui

import (
	"bytes"
	"image/png"
	"testing"
)

func TestIconBytesIsValidPNG(t *testing.T) {
	data := iconBytes()
	if len(data) == 0 {
		t.Fatal("empty icon")
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != iconSize || bounds.Dy() != iconSize {
		t.Fatalf("bounds = %v", bounds)
	}
}

func TestIconBytesCached(t *testing.T) {
	a := iconBytes()
	b := iconBytes()
	if &a[0] != &b[0] {
		t.Fatal("icon should be rendered once")
	}
}

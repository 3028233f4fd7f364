// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// PNG returns bytes that sniff as image/png. Different seeds give different content.
func PNG(seed int) []byte {
	var b bytes.Buffer
	b.Write(pngSignature)
	b.Write([]byte{0, 0, 0, 13})
	b.WriteString("IHDR")
	fmt.Fprintf(&b, "seed-%08d", seed)
	return b.Bytes()
}

// JPEG returns bytes that sniff as image/jpeg.
func JPEG() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")...)
}

// Text returns bytes that sniff as text/plain.
func Text() []byte {
	return []byte("this is definitely not a photo\n")
}

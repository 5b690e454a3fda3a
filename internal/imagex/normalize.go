// Package imagex converts arbitrary photo uploads into a canonical encoded
// form: bounded dimensions, JPEG encoding, fixed quality. Normalization is
// total — any input that cannot be decoded is passed through unchanged so
// that some bytes always reach storage.
package imagex

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/gift"
	"golang.org/x/image/webp"
)

const (
	// DefaultMaxSide bounds the longest side of a normalized image, in pixels.
	DefaultMaxSide = 1600
	// DefaultQuality is the JPEG quality used for re-encoding.
	DefaultQuality = 80
)

// decodable lists the raster media types the chain attempts to decode.
// Camera-proprietary formats (HEIC and friends) are passed through.
var decodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Options tune the normalization chain. Zero values select the defaults.
type Options struct {
	MaxSide int
	Quality int
}

func (o Options) withDefaults() Options {
	if o.MaxSide <= 0 {
		o.MaxSide = DefaultMaxSide
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Result is the outcome of a normalization attempt. Reencoded reports
// whether the canonical JPEG path was taken; when false, Data holds the
// original bytes and MediaType the declared input type.
type Result struct {
	Data      []byte
	MediaType string
	Reencoded bool
}

// Ext returns the storage file extension for the result's media type,
// with "jpeg" collapsed to "jpg".
func (r Result) Ext() string {
	return ExtForMediaType(r.MediaType)
}

// ExtForMediaType derives a file extension from a media type such as
// "image/jpeg". Unknown or malformed types map to "bin".
func ExtForMediaType(mediaType string) string {
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "":
		return "bin"
	}
	if i := strings.IndexByte(mediaType, '/'); i >= 0 && i+1 < len(mediaType) {
		return mediaType[i+1:]
	}
	return "bin"
}

// Normalize runs the ordered fallback chain on one file:
//
//  1. unknown media type → passthrough;
//  2. registered decode (image.Decode), scale to MaxSide, JPEG re-encode;
//  3. direct format decode selected by sniffed magic bytes, same scale/encode;
//  4. passthrough of the original bytes.
//
// It never fails: a normalization problem must not block the upload.
func Normalize(data []byte, mediaType string, opts Options) Result {
	opts = opts.withDefaults()

	passthrough := Result{Data: data, MediaType: mediaType}

	if !decodable[mediaType] {
		return passthrough
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		img, err = decodeBySniffedFormat(data)
		if err != nil {
			return passthrough
		}
	}

	encoded, err := scaleAndEncode(img, opts)
	if err != nil {
		return passthrough
	}

	return Result{Data: encoded, MediaType: "image/jpeg", Reencoded: true}
}

// decodeBySniffedFormat ignores the declared media type and picks a decoder
// from the payload's magic bytes. Mislabeled camera output is the usual
// reason the registered decode fails.
func decodeBySniffedFormat(data []byte) (image.Image, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return jpeg.Decode(bytes.NewReader(data))
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return png.Decode(bytes.NewReader(data))
	case bytes.HasPrefix(data, []byte("GIF8")):
		return gif.Decode(bytes.NewReader(data))
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return webp.Decode(bytes.NewReader(data))
	}
	return nil, image.ErrFormat
}

func scaleAndEncode(img image.Image, opts Options) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	longest := w
	if h > longest {
		longest = h
	}

	if longest > opts.MaxSide {
		scale := float64(opts.MaxSide) / float64(longest)
		nw := int(float64(w)*scale + 0.5)
		nh := int(float64(h)*scale + 0.5)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}

		g := gift.New(gift.Resize(nw, nh, gift.LanczosResampling))
		dst := image.NewRGBA(g.Bounds(img.Bounds()))
		g.Draw(dst, img)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

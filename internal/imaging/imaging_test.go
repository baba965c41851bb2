package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/erazemk/trznica/internal/model"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func createNoisyPNG(w, h int) []byte {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func decodeResult(t *testing.T, r *Result) image.Image {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(r.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output, got %s", format)
	}
	return img
}

func TestCompressJPEG(t *testing.T) {
	result, err := DefaultOptions().Compress(createTestJPEG(100, 100))
	if err != nil {
		t.Fatalf("Compress JPEG: %v", err)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
	if result.Quality != 70 {
		t.Errorf("expected quality 70 for a small image, got %d", result.Quality)
	}
}

func TestCompressPNGAndGIF(t *testing.T) {
	result, err := DefaultOptions().Compress(createTestPNG(100, 100))
	if err != nil {
		t.Fatalf("Compress PNG: %v", err)
	}
	decodeResult(t, result)

	var buf bytes.Buffer
	gif.Encode(&buf, image.NewPaletted(image.Rect(0, 0, 20, 20), color.Palette{color.Black, color.White}), nil)
	result, err = DefaultOptions().Compress(buf.Bytes())
	if err != nil {
		t.Fatalf("Compress GIF: %v", err)
	}
	decodeResult(t, result)
}

func TestCompressDownscalesToWidth(t *testing.T) {
	result, err := DefaultOptions().Compress(createTestJPEG(1600, 400))
	if err != nil {
		t.Fatalf("Compress large image: %v", err)
	}

	bounds := decodeResult(t, result).Bounds()
	if bounds.Dx() != 800 || bounds.Dy() != 200 {
		t.Errorf("expected 800x200, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCompressTallImageKeepsWidth(t *testing.T) {
	result, err := DefaultOptions().Compress(createTestJPEG(300, 1200))
	if err != nil {
		t.Fatalf("Compress tall image: %v", err)
	}
	bounds := decodeResult(t, result).Bounds()
	if bounds.Dx() != 300 || bounds.Dy() != 1200 {
		t.Errorf("narrow image should not be resized: got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCompressLowersQuality(t *testing.T) {
	opts := DefaultOptions()
	opts.TargetBytes = 1024

	result, err := opts.Compress(createNoisyPNG(200, 200))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if result.Quality != opts.MinQuality {
		t.Errorf("expected quality to bottom out at %d, got %d", opts.MinQuality, result.Quality)
	}
}

func TestCompressRejects(t *testing.T) {
	if _, err := DefaultOptions().Compress([]byte("not an image")); !errors.Is(err, ErrNotImage) {
		t.Errorf("expected ErrNotImage, got %v", err)
	}

	// Truncated GIF: right magic, broken body.
	if _, err := DefaultOptions().Compress([]byte("GIF89a...")); err == nil {
		t.Error("expected error for broken GIF")
	}
}

func TestDataURI(t *testing.T) {
	r := &Result{Data: []byte{0xff, 0xd8}}
	uri := r.DataURI()
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected prefix: %q", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	if err != nil || !bytes.Equal(raw, r.Data) {
		t.Errorf("data URI does not round-trip: %v", err)
	}
}

func memFile(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func TestAttachRejectsOversizedBatch(t *testing.T) {
	var files []File
	for i := 0; i < 6; i++ {
		files = append(files, memFile("a.jpg", createTestJPEG(10, 10)))
	}

	images, skipped, err := DefaultOptions().Attach(nil, files)
	if !model.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(images) != 0 || len(skipped) != 0 {
		t.Errorf("expected nothing accepted, got %d images and %d skipped", len(images), len(skipped))
	}

	pending := []string{"data:1", "data:2", "data:3"}
	images, _, err = DefaultOptions().Attach(pending, files[:3])
	if err == nil {
		t.Error("expected 3 pending + 3 new to be rejected")
	}
	if len(images) != 3 {
		t.Errorf("expected pending list unchanged, got %d", len(images))
	}
}

func TestAttachSkipsBadFiles(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxUpload = 4096

	big := memFile("big.jpg", createTestJPEG(10, 10))
	big.Size = opts.MaxUpload + 1

	files := []File{
		memFile("ok.jpg", createTestJPEG(10, 10)),
		big,
		memFile("notes.txt", []byte("hello world")),
		memFile("ok.png", createTestPNG(10, 10)),
	}

	images, skipped, err := opts.Attach([]string{"data:existing"}, files)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if len(images) != 3 {
		t.Errorf("expected existing + 2 new images, got %d", len(images))
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped files, got %d", len(skipped))
	}

	var ie *model.ImageError
	if !errors.As(skipped[0], &ie) || ie.File != "big.jpg" || !errors.Is(ie, ErrTooLarge) {
		t.Errorf("expected big.jpg too large, got %v", skipped[0])
	}
	if !errors.As(skipped[1], &ie) || ie.File != "notes.txt" || !errors.Is(ie, ErrNotImage) {
		t.Errorf("expected notes.txt not an image, got %v", skipped[1])
	}
}

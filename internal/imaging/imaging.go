// Package imaging compresses uploaded listing photos into JPEG data URIs.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"

	"golang.org/x/image/draw"

	// Decoders for accepted upload formats.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/erazemk/trznica/internal/model"
)

// Options controls compression. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	MaxWidth    int   `yaml:"max_width"`
	Quality     int   `yaml:"quality"`
	MinQuality  int   `yaml:"min_quality"`
	QualityStep int   `yaml:"quality_step"`
	TargetBytes int   `yaml:"target_bytes"`
	MaxUpload   int64 `yaml:"max_upload"`
	MaxImages   int   `yaml:"max_images"`
}

// DefaultOptions returns the stock settings: 800 px wide, quality 70 stepping
// down by 10 to 30 while the result is over 500 KB, 10 MB uploads, 5 images.
func DefaultOptions() Options {
	return Options{
		MaxWidth:    800,
		Quality:     70,
		MinQuality:  30,
		QualityStep: 10,
		TargetBytes: 500 * 1024,
		MaxUpload:   10 * 1024 * 1024,
		MaxImages:   model.MaxImages,
	}
}

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Errors for rejected files.
var (
	ErrTooLarge    = errors.New("file is larger than the upload limit")
	ErrNotImage    = errors.New("file is not an image")
	ErrUnsupported = errors.New("unsupported image format")
)

// Result is one compressed image.
type Result struct {
	Data    []byte
	Quality int
}

// DataURI returns the image as a data: URI.
func (r *Result) DataURI() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// Compress validates the format by sniffing bytes, downscales to the maximum
// width, and re-encodes as JPEG, lowering quality until the result fits the
// target size or the minimum quality is reached.
func (o Options) Compress(data []byte) (*Result, error) {
	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !strings.HasPrefix(detected, "image/") {
		return nil, ErrNotImage
	}
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, o.MaxWidth)

	quality := o.Quality
	for {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encoding JPEG: %w", err)
		}
		if buf.Len() <= o.TargetBytes || quality <= o.MinQuality || o.QualityStep <= 0 {
			return &Result{Data: buf.Bytes(), Quality: quality}, nil
		}
		quality = max(o.MinQuality, quality-o.QualityStep)
	}
}

// downscale resizes the image to maxWidth, preserving aspect ratio.
// Uses high-quality Catmull-Rom interpolation.
// Returns the original image if already within bounds.
func downscale(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if maxWidth <= 0 || w <= maxWidth {
		return img
	}

	newW := maxWidth
	newH := int(float64(h) * float64(maxWidth) / float64(w))
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// File is one uploaded file.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Attach compresses files and appends them to pending. A batch that would
// take pending over the image limit is rejected whole. Otherwise files are
// processed in order; a file that is too large, not an image, or fails to
// encode is skipped and reported as an *model.ImageError.
func (o Options) Attach(pending []string, files []File) ([]string, []error, error) {
	if len(pending)+len(files) > o.MaxImages {
		return pending, nil, model.Invalid("images", fmt.Sprintf("at most %d images", o.MaxImages))
	}

	out := append([]string(nil), pending...)
	var skipped []error
	for _, f := range files {
		uri, err := o.attachOne(f)
		if err != nil {
			skipped = append(skipped, &model.ImageError{File: f.Name, Err: err})
			continue
		}
		out = append(out, uri)
	}
	return out, skipped, nil
}

func (o Options) attachOne(f File) (string, error) {
	if f.Size > o.MaxUpload {
		return "", ErrTooLarge
	}

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer rc.Close()

	// Read one byte past the limit so a lying Size is still caught.
	data, err := io.ReadAll(io.LimitReader(rc, o.MaxUpload+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > o.MaxUpload {
		return "", ErrTooLarge
	}

	res, err := o.Compress(data)
	if err != nil {
		return "", err
	}
	return res.DataURI(), nil
}

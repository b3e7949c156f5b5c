package imageprocessor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/webp" // register WebP decoding

	"github.com/sumimedical/suministros-backend/internal/pkg/config"
	"github.com/sumimedical/suministros-backend/internal/pkg/mediapath"
)

// Result holds the absolute paths of the derived artifacts plus the
// properties of the stored original. All three artifacts share one
// timestamp token.
type Result struct {
	Token         string
	OriginalPath  string
	ThumbnailPath string
	WebPPath      string
	Width         int
	Height        int
	Format        string
	FileSize      int64
}

// Processor derives the {original, miniatura, webp} artifact set from a
// source image. It knows nothing about products or the database: callers
// hand it a blob and a target base directory.
type Processor struct {
	opts config.Processor
}

func New(opts config.Processor) *Processor {
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = config.DefaultThumbnailSize
	}
	if opts.ThumbnailQuality <= 0 || opts.ThumbnailQuality > 100 {
		opts.ThumbnailQuality = config.DefaultThumbnailQuality
	}
	if opts.WebPQuality <= 0 || opts.WebPQuality > 100 {
		opts.WebPQuality = config.DefaultWebPQuality
	}
	if len(opts.AcceptedFormats) == 0 {
		opts.AcceptedFormats = []string{"jpeg", "png", "webp"}
	}
	return &Processor{opts: opts}
}

// Process decodes the source and writes the three variants under baseDir.
// Every artifact is written atomically (temp file + rename); on any failure
// or cancellation the artifacts written so far are removed before returning.
func (p *Processor) Process(ctx context.Context, src io.Reader, filenameHint, baseDir string) (*Result, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: reading source %s: %v", ErrIOFailure, filenameHint, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrDecodeFailure, filenameHint)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if err == image.ErrFormat {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filenameHint)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailure, filenameHint, err)
	}
	if !p.formatAccepted(format) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filenameHint, format)
	}

	for _, dir := range []string{
		filepath.Join(baseDir, mediapath.OriginalesSubdir),
		filepath.Join(baseDir, mediapath.MiniaturasSubdir),
		filepath.Join(baseDir, mediapath.WebPSubdir),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: creating directory %s: %v", ErrIOFailure, dir, err)
		}
	}

	token := mediapath.NewToken(time.Now())
	result := &Result{Token: token, Format: format}

	// Downscale the original when it exceeds the configured limit,
	// otherwise the stored original is the untouched source bytes.
	originalBytes := data
	maxDim := p.opts.OriginalMaxDim
	if maxDim > 0 && (img.Bounds().Dx() > maxDim || img.Bounds().Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		originalBytes, err = p.encodeAs(img, format)
		if err != nil {
			return nil, err
		}
		log.Info(fmt.Sprintf("[Processor] Downscaled %s to %dx%d", filenameHint, img.Bounds().Dx(), img.Bounds().Dy()))
	}
	result.Width = img.Bounds().Dx()
	result.Height = img.Bounds().Dy()
	result.FileSize = int64(len(originalBytes))

	var written []string
	cleanup := func() {
		for _, path := range written {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Error(fmt.Sprintf("[Processor] Failed to remove partial artifact %s: %v", path, err))
			}
		}
	}

	writeArtifact := func(path string, encode func(io.Writer) error) error {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		if err := atomicWrite(path, encode); err != nil {
			cleanup()
			return fmt.Errorf("%w: %s: %v", ErrIOFailure, path, err)
		}
		written = append(written, path)
		return nil
	}

	result.OriginalPath = filepath.Join(baseDir, mediapath.OriginalesSubdir, mediapath.OriginalName(token, extensionFor(format)))
	if err := writeArtifact(result.OriginalPath, func(w io.Writer) error {
		_, err := w.Write(originalBytes)
		return err
	}); err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, p.opts.ThumbnailSize, p.opts.ThumbnailSize, imaging.Lanczos)
	result.ThumbnailPath = filepath.Join(baseDir, mediapath.MiniaturasSubdir, mediapath.MiniaturaName(token))
	if err := writeArtifact(result.ThumbnailPath, func(w io.Writer) error {
		return imaging.Encode(w, thumb, imaging.JPEG, imaging.JPEGQuality(p.opts.ThumbnailQuality))
	}); err != nil {
		return nil, err
	}

	result.WebPPath = filepath.Join(baseDir, mediapath.WebPSubdir, mediapath.WebPName(token))
	if err := writeArtifact(result.WebPPath, func(w io.Writer) error {
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(p.opts.WebPQuality))
		if err != nil {
			return err
		}
		return webp.Encode(w, img, options)
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (p *Processor) formatAccepted(format string) bool {
	for _, f := range p.opts.AcceptedFormats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// encodeAs re-encodes a downscaled original in its source format.
func (p *Processor) encodeAs(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
			return nil, fmt.Errorf("%w: re-encoding original: %v", ErrIOFailure, err)
		}
	case "png":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("%w: re-encoding original: %v", ErrIOFailure, err)
		}
	case "webp":
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(p.opts.WebPQuality))
		if err != nil {
			return nil, fmt.Errorf("%w: re-encoding original: %v", ErrIOFailure, err)
		}
		if err := webp.Encode(&buf, img, options); err != nil {
			return nil, fmt.Errorf("%w: re-encoding original: %v", ErrIOFailure, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return buf.Bytes(), nil
}

func extensionFor(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "webp":
		return ".webp"
	default:
		return "." + format
	}
}

// atomicWrite writes through a temp file in the same directory and renames
// it into place, so readers never observe a half-written artifact.
func atomicWrite(path string, encode func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

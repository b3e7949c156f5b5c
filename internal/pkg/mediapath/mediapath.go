// Package mediapath implements the stable media tree contract:
//
//	<media_root>/productos/<kind-segment>/imagenes/<PRODUCT_CODE>/
//	    originales/original_<YYYYMMDD_HHMMSS>.<ext>
//	    miniaturas/miniatura_<YYYYMMDD_HHMMSS>.jpg
//	    webp/webp_<YYYYMMDD_HHMMSS>.webp
//
// The timestamp token is shared by all variants of one upload and is the
// grouping key used during reconciliation.
package mediapath

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sumimedical/suministros-backend/app/models"
)

// Directory segments
const (
	ProductosDir   = "productos"
	OfertadosDir   = "productosofertados"
	DisponiblesDir = "productosdisponibles"
	ImagenesDir    = "imagenes"
)

// Variant subdirectories and filename prefixes
const (
	OriginalesSubdir = "originales"
	MiniaturasSubdir = "miniaturas"
	WebPSubdir       = "webp"

	OriginalPrefix  = "original_"
	MiniaturaPrefix = "miniatura_"
	WebPPrefix      = "webp_"
)

// TokenLayout is the time layout of the timestamp token.
const TokenLayout = "20060102_150405"

var tokenRegex = regexp.MustCompile(`\d{8}_\d{6}`)

var ErrUnknownKind = errors.New("mediapath: unknown product kind")

// KindSegment maps a product kind to its directory segment under productos/.
func KindSegment(kind string) (string, error) {
	switch kind {
	case models.KindOfertado:
		return OfertadosDir, nil
	case models.KindDisponible:
		return DisponiblesDir, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// KindFromSegment is the inverse of KindSegment, used when scanning the tree.
func KindFromSegment(segment string) (string, error) {
	switch segment {
	case OfertadosDir:
		return models.KindOfertado, nil
	case DisponiblesDir:
		return models.KindDisponible, nil
	default:
		return "", fmt.Errorf("%w: segment %q", ErrUnknownKind, segment)
	}
}

// ProductDir returns the absolute base directory of a product's images.
func ProductDir(mediaRoot, kind, code string) (string, error) {
	segment, err := KindSegment(kind)
	if err != nil {
		return "", err
	}
	return filepath.Join(mediaRoot, ProductosDir, segment, ImagenesDir, code), nil
}

// NewToken formats a timestamp token for the given time.
func NewToken(t time.Time) string {
	return t.Format(TokenLayout)
}

// TokenFromFilename extracts the timestamp token from a variant filename with
// the given prefix. Returns false for names that do not follow the contract.
func TokenFromFilename(name, prefix string) (string, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if !strings.HasPrefix(stem, prefix) {
		return "", false
	}
	token := tokenRegex.FindString(stem[len(prefix):])
	if token == "" {
		return "", false
	}
	if _, err := time.Parse(TokenLayout, token); err != nil {
		return "", false
	}
	return token, true
}

// OriginalName builds the original filename for a token and source extension.
func OriginalName(token, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return OriginalPrefix + token + ext
}

// MiniaturaName builds the thumbnail filename for a token. Thumbnails are
// always JPEG regardless of the source format.
func MiniaturaName(token string) string {
	return MiniaturaPrefix + token + ".jpg"
}

// WebPName builds the WebP variant filename for a token.
func WebPName(token string) string {
	return WebPPrefix + token + ".webp"
}

// RelFromRoot converts an absolute path inside the media root to the relative
// form stored in the database (forward slashes, no leading slash). Paths
// outside the root are rejected: the index never stores absolute paths.
func RelFromRoot(mediaRoot, abs string) (string, error) {
	rel, err := filepath.Rel(mediaRoot, abs)
	if err != nil {
		return "", fmt.Errorf("mediapath: %s is not under the media root: %w", abs, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("mediapath: %s escapes the media root", abs)
	}
	return rel, nil
}

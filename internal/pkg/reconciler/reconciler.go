// Package reconciler brings the image index back into agreement with the
// media tree. Associate mode is additive and idempotent; rebuild mode
// purges each product's records before re-indexing what is on disk.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2/log"
	_ "golang.org/x/image/webp"

	"github.com/sumimedical/suministros-backend/app/repository"
	"github.com/sumimedical/suministros-backend/internal/pkg/cache"
	"github.com/sumimedical/suministros-backend/internal/pkg/config"
	"github.com/sumimedical/suministros-backend/internal/pkg/mediapath"
)

// ErrLockContended is returned when another reconciler holds the media lock.
var ErrLockContended = errors.New("reconciler: media root is locked by another reconciliation")

const lockTTL = 30 * time.Minute

// Locker serializes reconciler runs per media root.
type Locker interface {
	Acquire(key string, ttl time.Duration) (string, error)
	Release(key, token string) error
}

type redisLocker struct{}

func (redisLocker) Acquire(key string, ttl time.Duration) (string, error) {
	return cache.AcquireLock(key, ttl)
}

func (redisLocker) Release(key, token string) error {
	return cache.ReleaseLock(key, token)
}

// NewRedisLocker returns the production locker backed by the cache server.
func NewRedisLocker() Locker {
	return redisLocker{}
}

type Reconciler struct {
	media    config.Media
	products repository.ProductRepository
	images   repository.ImageRepository
	locker   Locker
}

func New(media config.Media, products repository.ProductRepository, images repository.ImageRepository, locker Locker) *Reconciler {
	return &Reconciler{media: media, products: products, images: images, locker: locker}
}

// group is one timestamp-token cluster of variant files within a product
// directory. Paths are media-root-relative.
type group struct {
	token     string
	original  string
	thumbnail string
	webp      string
}

// Associate indexes on-disk variant groups that have no record yet and
// leaves existing records untouched.
func (r *Reconciler) Associate(ctx context.Context) (*Report, error) {
	return r.run(ctx, false)
}

// Rebuild purges each product's records before the additive pass, so the
// index afterwards mirrors exactly what exists on disk.
func (r *Reconciler) Rebuild(ctx context.Context) (*Report, error) {
	return r.run(ctx, true)
}

func (r *Reconciler) run(ctx context.Context, rebuild bool) (*Report, error) {
	token, err := r.locker.Acquire(r.lockKey(), lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquiring media lock: %w", err)
	}
	if token == "" {
		return nil, ErrLockContended
	}
	defer r.locker.Release(r.lockKey(), token)

	report := &Report{}
	for _, segment := range []string{mediapath.OfertadosDir, mediapath.DisponiblesDir} {
		if err := r.scanSegment(ctx, segment, rebuild, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (r *Reconciler) lockKey() string {
	return "reconcile:lock:" + r.media.Root
}

func (r *Reconciler) scanSegment(ctx context.Context, segment string, rebuild bool, report *Report) error {
	imagesDir := filepath.Join(r.media.Root, mediapath.ProductosDir, segment, mediapath.ImagenesDir)
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		// An unreadable tree root aborts the whole scan.
		return fmt.Errorf("reading %s: %w", imagesDir, err)
	}

	kind, err := mediapath.KindFromSegment(segment)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.IsDir() {
			continue
		}
		code := entry.Name()
		report.ProductsScanned++

		product, err := r.products.GetByKindAndCode(kind, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				report.Warnf("directory %s/%s matches no known product, leaving files untouched", segment, code)
				log.Warn(fmt.Sprintf("[Reconciler] Unknown product directory %s/%s", segment, code))
				continue
			}
			report.Errorf("product lookup %s/%s: %v", segment, code, err)
			continue
		}

		if rebuild {
			existing, err := r.images.ListByProduct(product.ID)
			if err != nil {
				report.Errorf("listing records for %s: %v", code, err)
				continue
			}
			if err := r.images.Purge(product.ID); err != nil {
				report.Errorf("purging records for %s: %v", code, err)
				continue
			}
			report.RecordsPurged += len(existing)
		}

		r.reconcileProduct(product.ID, segment, code, filepath.Join(imagesDir, code), rebuild, report)
	}
	return nil
}

func (r *Reconciler) reconcileProduct(productID uint, segment, code, productDir string, rebuild bool, report *Report) {
	groups := r.scanGroups(segment, code, productDir, report)

	// Ascending token order: after a rebuild the oldest upload becomes
	// the primary again; in associate mode new rows append after the
	// current maximum in timestamp order.
	tokens := make([]string, 0, len(groups))
	for token := range groups {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	for _, token := range tokens {
		g := groups[token]
		report.GroupsFound++

		if g.original == "" {
			report.Warnf("group %s of product %s has no original, skipping", token, code)
			log.Warn(fmt.Sprintf("[Reconciler] Group %s of %s lacks an original", token, code))
			continue
		}

		if !rebuild {
			if _, err := r.images.FindByProductAndOriginal(productID, g.original); err == nil {
				report.RecordsKept++
				continue
			} else if !errors.Is(err, repository.ErrNotFound) {
				report.Errorf("index lookup for %s %s: %v", code, g.original, err)
				continue
			}
		}

		width, height, format, size, err := r.inspectOriginal(g.original)
		if err != nil {
			report.Warnf("original %s is unreadable (%v), skipping", g.original, err)
			continue
		}

		variants := repository.VariantPaths{Original: g.original}
		if g.thumbnail != "" {
			thumbnail := g.thumbnail
			variants.Thumbnail = &thumbnail
		}
		if g.webp != "" {
			webp := g.webp
			variants.WebP = &webp
		}

		if _, err := r.images.Create(productID, variants, repository.ImageMetadata{
			Width:    width,
			Height:   height,
			Format:   format,
			FileSize: size,
		}); err != nil {
			report.Errorf("indexing %s for product %s: %v", g.original, code, err)
			continue
		}
		report.RecordsCreated++
	}
}

// scanGroups clusters a product directory's files by timestamp token. For a
// token with several files in the same variant subdirectory the
// lexicographically first one wins.
func (r *Reconciler) scanGroups(segment, code, productDir string, report *Report) map[string]*group {
	groups := make(map[string]*group)

	scan := func(subdir, prefix string, assign func(g *group, rel string)) {
		dir := filepath.Join(productDir, subdir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				report.Warnf("reading %s: %v", dir, err)
			}
			return
		}
		// os.ReadDir returns entries sorted by name, so the first file
		// seen for a token is the lexicographic winner.
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			token, ok := mediapath.TokenFromFilename(name, prefix)
			if !ok {
				report.Warnf("ignoring %s/%s: name does not follow the variant contract", subdir, name)
				continue
			}
			g := groups[token]
			if g == nil {
				g = &group{token: token}
				groups[token] = g
			}
			rel := path.Join(mediapath.ProductosDir, segment, mediapath.ImagenesDir, code, subdir, name)
			assign(g, rel)
		}
	}

	scan(mediapath.OriginalesSubdir, mediapath.OriginalPrefix, func(g *group, rel string) {
		if g.original == "" {
			g.original = rel
		}
	})
	scan(mediapath.MiniaturasSubdir, mediapath.MiniaturaPrefix, func(g *group, rel string) {
		if g.thumbnail == "" {
			g.thumbnail = rel
		}
	})
	scan(mediapath.WebPSubdir, mediapath.WebPPrefix, func(g *group, rel string) {
		if g.webp == "" {
			g.webp = rel
		}
	})

	return groups
}

func (r *Reconciler) inspectOriginal(rel string) (width, height int, format string, size int64, err error) {
	abs := filepath.Join(r.media.Root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		return 0, 0, "", 0, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return 0, 0, "", 0, err
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, "", 0, err
	}
	return cfg.Width, cfg.Height, format, info.Size(), nil
}

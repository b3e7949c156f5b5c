package reconciler

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sumimedical/suministros-backend/app/models"
	"github.com/sumimedical/suministros-backend/internal/pkg/mediapath"
)

// Verify is the read-only consistency check: every committed record must
// name an original that exists and decodes, and files on disk that no
// record indexes are reported as drift. It takes no lock and changes
// neither the index nor the tree.
func (r *Reconciler) Verify(ctx context.Context) (*Report, error) {
	report := &Report{}

	for _, kind := range []string{models.KindOfertado, models.KindDisponible} {
		products, err := r.products.ListByKind(kind)
		if err != nil {
			return report, err
		}
		segment, err := mediapath.KindSegment(kind)
		if err != nil {
			return report, err
		}

		for i := range products {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			product := &products[i]
			report.ProductsScanned++

			records, err := r.images.ListByProduct(product.ID)
			if err != nil {
				report.Errorf("listing records for %s: %v", product.Code, err)
				continue
			}

			indexed := make(map[string]bool, len(records))
			for _, record := range records {
				indexed[record.PathOriginal] = true
				if _, _, _, _, err := r.inspectOriginal(record.PathOriginal); err != nil {
					report.Errorf("record %s of %s: original %s missing or unreadable: %v",
						record.UUID, product.Code, record.PathOriginal, err)
					continue
				}
				report.RecordsKept++
			}

			productDir := filepath.Join(r.media.Root, mediapath.ProductosDir, segment, mediapath.ImagenesDir, product.Code)
			if _, err := os.Stat(productDir); err != nil {
				if len(records) > 0 {
					report.Errorf("product %s has %d records but no media directory", product.Code, len(records))
				}
				continue
			}
			for token, g := range r.scanGroups(segment, product.Code, productDir, report) {
				report.GroupsFound++
				if g.original == "" {
					report.Warnf("group %s of product %s has no original", token, product.Code)
					continue
				}
				if !indexed[g.original] {
					report.Warnf("file %s is not indexed for product %s", g.original, product.Code)
				}
			}
		}
	}
	return report, nil
}

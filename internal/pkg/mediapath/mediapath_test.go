package mediapath

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumimedical/suministros-backend/app/models"
)

func TestKindSegmentRoundTrip(t *testing.T) {
	t.Parallel()

	for kind, segment := range map[string]string{
		models.KindOfertado:   OfertadosDir,
		models.KindDisponible: DisponiblesDir,
	} {
		got, err := KindSegment(kind)
		require.NoError(t, err)
		assert.Equal(t, segment, got)

		back, err := KindFromSegment(segment)
		require.NoError(t, err)
		assert.Equal(t, kind, back)
	}

	_, err := KindSegment("catalogo")
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = KindFromSegment("productoscatalogo")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestProductDir(t *testing.T) {
	t.Parallel()

	dir, err := ProductDir("/srv/media", models.KindOfertado, "OFT-A923")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/media", "productos", "productosofertados", "imagenes", "OFT-A923"), dir)

	_, err = ProductDir("/srv/media", "catalogo", "OFT-A923")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTokenFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		file   string
		prefix string
		token  string
		ok     bool
	}{
		{name: "original jpg", file: "original_20240315_091542.jpg", prefix: OriginalPrefix, token: "20240315_091542", ok: true},
		{name: "thumbnail", file: "miniatura_20240315_091542.jpg", prefix: MiniaturaPrefix, token: "20240315_091542", ok: true},
		{name: "webp", file: "webp_20240315_091542.webp", prefix: WebPPrefix, token: "20240315_091542", ok: true},
		{name: "wrong prefix", file: "thumb_20240315_091542.jpg", prefix: OriginalPrefix, ok: false},
		{name: "no token", file: "original_portada.jpg", prefix: OriginalPrefix, ok: false},
		{name: "impossible date", file: "original_20241345_991542.jpg", prefix: OriginalPrefix, ok: false},
		{name: "bare name", file: "logo.png", prefix: OriginalPrefix, ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			token, ok := TokenFromFilename(tc.file, tc.prefix)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.token, token)
			}
		})
	}
}

func TestVariantNamesShareToken(t *testing.T) {
	t.Parallel()

	token := NewToken(time.Date(2024, 3, 15, 9, 15, 42, 0, time.UTC))
	assert.Equal(t, "20240315_091542", token)

	assert.Equal(t, "original_20240315_091542.jpg", OriginalName(token, ".jpg"))
	assert.Equal(t, "original_20240315_091542.png", OriginalName(token, "png"))
	assert.Equal(t, "miniatura_20240315_091542.jpg", MiniaturaName(token))
	assert.Equal(t, "webp_20240315_091542.webp", WebPName(token))
}

func TestRelFromRoot(t *testing.T) {
	t.Parallel()

	rel, err := RelFromRoot("/srv/media", "/srv/media/productos/productosofertados/imagenes/X/originales/original_20240315_091542.jpg")
	require.NoError(t, err)
	assert.Equal(t, "productos/productosofertados/imagenes/X/originales/original_20240315_091542.jpg", rel)
	assert.False(t, filepath.IsAbs(rel))

	_, err = RelFromRoot("/srv/media", "/etc/passwd")
	assert.Error(t, err)
}

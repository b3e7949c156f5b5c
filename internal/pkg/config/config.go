package config

import (
	"strconv"
	"strings"

	"github.com/sumimedical/suministros-backend/internal/pkg/env"
)

// Media holds the process-wide media settings. It is built once at startup
// and passed into every component that touches the media tree.
type Media struct {
	// Root is the absolute directory under which all variant files live.
	Root string
	// BaseURL is the URL prefix under which variant files are served.
	BaseURL string
	// PublicDomain, when set, is used to build absolute URLs outside of a
	// request context (e.g. "https://api.sumimedical.com").
	PublicDomain string
}

// Processor holds the derivation options recognized by the image processor.
type Processor struct {
	ThumbnailSize    int
	ThumbnailQuality int
	WebPQuality      int
	// OriginalMaxDim downscales originals whose longest side exceeds it.
	// Zero means originals are passed through byte for byte.
	OriginalMaxDim  int
	AcceptedFormats []string
}

const (
	DefaultThumbnailSize    = 150
	DefaultThumbnailQuality = 75
	DefaultWebPQuality      = 85
)

// LoadMedia reads the media configuration from the environment.
func LoadMedia() Media {
	base := env.GetEnv("MEDIA_BASE_URL", "/media/")
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base = base + "/"
	}
	return Media{
		Root:         env.GetEnv("MEDIA_ROOT", "./media"),
		BaseURL:      base,
		PublicDomain: strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"),
	}
}

// LoadProcessor reads the processor options from the environment.
func LoadProcessor() Processor {
	return Processor{
		ThumbnailSize:    getInt("THUMBNAIL_SIZE", DefaultThumbnailSize),
		ThumbnailQuality: getInt("THUMBNAIL_QUALITY", DefaultThumbnailQuality),
		WebPQuality:      getInt("WEBP_QUALITY", DefaultWebPQuality),
		OriginalMaxDim:   getInt("ORIGINAL_MAX_DIM", 0),
		AcceptedFormats:  []string{"jpeg", "png", "webp"},
	}
}

func getInt(key string, def int) int {
	raw := env.GetEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

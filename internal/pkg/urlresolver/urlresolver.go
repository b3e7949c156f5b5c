package urlresolver

import (
	"strings"

	"github.com/sumimedical/suministros-backend/internal/pkg/config"
)

// RequestContext carries the scheme and host of the request being served.
// Serializers pass it in at the call site; there is no global request state.
type RequestContext struct {
	Scheme string
	Host   string
}

// Resolver maps media-root-relative paths to the URLs clients fetch.
type Resolver struct {
	base         string
	publicDomain string
}

func New(media config.Media) *Resolver {
	base := media.BaseURL
	if base == "" {
		base = "/media/"
	}
	return &Resolver{base: base, publicDomain: media.PublicDomain}
}

// Resolve joins the media base URL with a stored relative path. The result
// keeps exactly one slash at each joint and the stored path is taken as-is:
// already-encoded segments are not re-encoded.
func (r *Resolver) Resolve(relPath string) string {
	if relPath == "" {
		return ""
	}
	return strings.TrimRight(r.base, "/") + "/" + strings.TrimLeft(relPath, "/")
}

// ResolveAbsolute builds an absolute URL when a request context is present.
// Without one, the contract is the site-relative form <media_base><rel>; the
// PUBLIC_DOMAIN prefix is an opt-in extension for callers that render URLs
// outside a request (reports, exports) and is skipped when unset.
func (r *Resolver) ResolveAbsolute(relPath string, reqCtx *RequestContext) string {
	webPath := r.Resolve(relPath)
	if webPath == "" {
		return ""
	}
	if reqCtx != nil && reqCtx.Host != "" {
		scheme := reqCtx.Scheme
		if scheme == "" {
			scheme = "http"
		}
		return scheme + "://" + reqCtx.Host + webPath
	}
	if r.publicDomain != "" {
		return strings.TrimRight(r.publicDomain, "/") + webPath
	}
	return webPath
}

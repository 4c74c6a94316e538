package handler

import (
	"embed"
	"fmt"
	"net/http"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/tokgate/internal/server/router"
)

//go:embed static/*.html
var staticFS embed.FS

// page is an embedded HTML document with a content hash ETag.
type page struct {
	body []byte
	etag string
}

func mustPage(name string) *page {
	body, err := staticFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("handler: embedded page %s: %v", name, err))
	}
	h1, h2 := murmur3.Sum128(body)
	return &page{body: body, etag: fmt.Sprintf(`"%016x%016x"`, h1, h2)}
}

func (p *page) serve(w http.ResponseWriter, r *router.Request) {
	w.Header().Set("ETag", p.etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatch(r.Header.Get("If-None-Match"), p.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(p.body)
}

// etagMatch implements the weak comparison of If-None-Match.
func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *router.Request, _ router.Params) {
	h.index.serve(w, r)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *router.Request, _ router.Params) {
	h.dashboard.serve(w, r)
}

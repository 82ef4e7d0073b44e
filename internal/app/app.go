// Package app is the content application served behind the response cache:
// rendered pages, a small JSON API and static assets.
package app

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

//go:embed assets
var assets embed.FS

//go:embed templates/page.html
var pageTemplate string

// Config controls the application.
type Config struct {
	// StaticDir serves assets from disk instead of the embedded set.
	StaticDir string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Page is a rendered page of the site.
type Page struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Title string `json:"title"`
	Body  string `json:"-"`
}

var pages = map[string]Page{
	"index": {
		Name:  "index",
		Path:  "/index.html",
		Title: "Home",
		Body:  "Responses on this site are served from the response cache once rendered.",
	},
	"about": {
		Name:  "about",
		Path:  "/about.html",
		Title: "About",
		Body:  "Pages, API responses and static assets are cached with separate lifetimes.",
	},
	"contact": {
		Name:  "contact",
		Path:  "/contact.html",
		Title: "Contact",
		Body:  "Write to the operators to have the cache cleared after a deploy.",
	},
}

// HealthResponse is the body of /api/health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type handler struct {
	logger zerolog.Logger
	now    func() time.Time
	tmpl   *template.Template
	nav    []Page
}

// New returns the application router.
func New(cfg Config, logger zerolog.Logger) (http.Handler, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, err
	}

	static, err := staticFS(cfg.StaticDir)
	if err != nil {
		return nil, err
	}

	h := &handler{
		logger: logger,
		now:    cfg.Now,
		tmpl:   tmpl,
		nav:    sortedPages(),
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := chi.NewRouter()
	r.Get("/api/health", h.health)
	r.Get("/api/pages", h.listPages)
	r.Get("/", h.page("index"))
	r.Get("/{page}.html", h.namedPage)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	return r, nil
}

func staticFS(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return fs.Sub(assets, "assets")
}

func sortedPages() []Page {
	list := make([]Page, 0, len(pages))
	for _, p := range pages {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name == "index" {
			return true
		}
		if list[j].Name == "index" {
			return false
		}
		return list[i].Name < list[j].Name
	})
	return list
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
	})
}

func (h *handler) listPages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.nav)
}

func (h *handler) namedPage(w http.ResponseWriter, r *http.Request) {
	h.page(chi.URLParam(r, "page"))(w, r)
}

func (h *handler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := pages[name]
		if !ok {
			http.NotFound(w, r)
			return
		}

		var buf bytes.Buffer
		err := h.tmpl.Execute(&buf, struct {
			Page
			Nav []Page
		}{p, h.nav})
		if err != nil {
			h.logger.Error().Err(err).Str("page", name).Msg("Failed to render page")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

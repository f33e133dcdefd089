// Package server serves weekly digests and saved insights over HTTP.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/lightnote/internal/database"
	"github.com/TobiSchelling/lightnote/internal/digest"
	"github.com/TobiSchelling/lightnote/internal/insights"
	"github.com/TobiSchelling/lightnote/internal/llm"
	"github.com/TobiSchelling/lightnote/internal/pipeline"
	"github.com/TobiSchelling/lightnote/internal/render"
	"github.com/TobiSchelling/lightnote/internal/week"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for digests and insights.
type Server struct {
	db       *database.DB
	gen      *pipeline.Generator
	insights *insights.Service
	provider llm.Provider
	now      func() time.Time
	pages    map[string]*template.Template
	mux      *http.ServeMux
}

// New creates a new Server. provider may be nil, which disables reflection.
func New(db *database.DB, gen *pipeline.Generator, ins *insights.Service, provider llm.Provider) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"label":    insights.Label,
		"when": func(t time.Time) string {
			return t.Local().Format("Mon Jan 02 2006 15:04")
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so its "content" and "title"
	// definitions don't collide.
	pageNames := []string{"index.html", "week.html", "insights.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		db:       db,
		gen:      gen,
		insights: ins,
		provider: provider,
		now:      time.Now,
		pages:    pages,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /week/{key}", s.handleWeek)
	s.mux.HandleFunc("POST /week/{key}/refresh", s.handleRefresh)
	s.mux.HandleFunc("POST /week/{key}/ask", s.handleAsk)
	s.mux.HandleFunc("GET /insights", s.handleInsights)
	s.mux.HandleFunc("POST /insights/save", s.handleSaveInsight)
	s.mux.HandleFunc("POST /insights/{id}/delete", s.handleDeleteInsight)
}

type weekLink struct {
	Key     week.Key
	Label   string
	Current bool
	Stored  bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := week.Current(s.now())

	keys, err := s.db.WeekKeys(ctx, time.Local)
	if err != nil {
		s.fail(w, "listing weeks", err)
		return
	}
	if len(keys) == 0 || keys[0] != current {
		keys = append([]week.Key{current}, keys...)
	}
	stored, err := s.db.DigestWeeks(ctx)
	if err != nil {
		s.fail(w, "listing digests", err)
		return
	}
	have := make(map[string]bool, len(stored))
	for _, k := range stored {
		have[k] = true
	}

	links := make([]weekLink, 0, len(keys))
	for _, k := range keys {
		rng, err := week.RangeFromKey(k)
		if err != nil {
			continue
		}
		links = append(links, weekLink{Key: k, Label: rng.Label(), Current: k == current, Stored: have[string(k)]})
	}

	s.render(w, http.StatusOK, "index.html", map[string]any{"Weeks": links})
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	key, ok := s.weekKey(w, r)
	if !ok {
		return
	}

	d, err := s.gen.Latest(r.Context(), key)
	if errors.Is(err, pipeline.ErrInProgress) {
		s.render(w, http.StatusConflict, "week.html", s.weekData(key, nil, "A digest for this week is being generated. Try again shortly."))
		return
	}
	if err != nil {
		s.fail(w, "generating digest", err)
		return
	}
	s.render(w, http.StatusOK, "week.html", s.weekData(key, d, r.URL.Query().Get("status")))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	key, ok := s.weekKey(w, r)
	if !ok {
		return
	}

	_, err := s.gen.Generate(r.Context(), key)
	if errors.Is(err, pipeline.ErrInProgress) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.fail(w, "generating digest", err)
		return
	}
	redirectWithStatus(w, r, "/week/"+string(key), "Digest refreshed.")
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	key, ok := s.weekKey(w, r)
	if !ok {
		return
	}
	d, err := s.gen.Latest(r.Context(), key)
	if err != nil {
		s.fail(w, "loading digest", err)
		return
	}

	_, err = s.insights.Reflect(r.Context(), s.provider, string(key), render.Text(*d))
	switch {
	case err == nil:
		redirectWithStatus(w, r, "/insights", "AI response saved.")
	case errors.Is(err, insights.ErrNothingToSave):
		redirectWithStatus(w, r, "/week/"+string(key), "No digest to analyze yet.")
	case errors.Is(err, insights.ErrDuplicate):
		redirectWithStatus(w, r, "/insights", "That reflection is already saved.")
	default:
		log.Warn().Err(err).Str("week", string(key)).Str("kind", llm.Kind(err)).Msg("reflection failed")
		redirectWithStatus(w, r, "/week/"+string(key), "AI request failed: "+err.Error())
	}
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	list, err := s.insights.List(r.Context())
	if err != nil {
		s.fail(w, "listing insights", err)
		return
	}
	s.render(w, http.StatusOK, "insights.html", map[string]any{
		"Insights": list,
		"Status":   r.URL.Query().Get("status"),
	})
}

func (s *Server) handleSaveInsight(w http.ResponseWriter, r *http.Request) {
	key, err := week.ParseKey(r.FormValue("week"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := s.gen.Cached(r.Context(), key)
	if err != nil {
		s.fail(w, "loading digest", err)
		return
	}
	text := ""
	if d != nil {
		text = render.Text(*d)
	}

	_, err = s.insights.Save(r.Context(), string(key), text)
	switch {
	case err == nil:
		redirectWithStatus(w, r, "/insights", "Insight saved.")
	case errors.Is(err, insights.ErrNothingToSave):
		redirectWithStatus(w, r, "/week/"+string(key), "No digest to save yet.")
	case errors.Is(err, insights.ErrDuplicate):
		redirectWithStatus(w, r, "/insights", "Already saved.")
	default:
		s.fail(w, "saving insight", err)
	}
}

func (s *Server) handleDeleteInsight(w http.ResponseWriter, r *http.Request) {
	ok, err := s.insights.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "deleting insight", err)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	redirectWithStatus(w, r, "/insights", "Insight deleted.")
}

func (s *Server) weekKey(w http.ResponseWriter, r *http.Request) (week.Key, bool) {
	key, err := week.ParseKey(r.PathValue("key"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return key, true
}

func (s *Server) weekData(key week.Key, d *digest.Digest, status string) map[string]any {
	data := map[string]any{
		"Key":        key,
		"Status":     status,
		"InProgress": s.gen.InProgress(key),
		"CanAsk":     s.provider != nil,
	}
	if prev, err := week.Prev(key); err == nil {
		data["Prev"] = prev
	}
	if next, err := week.Next(key); err == nil && week.Compare(next, week.Current(s.now())) <= 0 {
		data["Next"] = next
	}
	if d != nil {
		data["Digest"] = d
		data["Markdown"] = render.Markdown(*d)
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Error().Msgf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Error().Err(err).Msgf("Error rendering template %s", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) fail(w http.ResponseWriter, doing string, err error) {
	log.Error().Err(err).Msg(doing)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func redirectWithStatus(w http.ResponseWriter, r *http.Request, path, status string) {
	http.Redirect(w, r, path+"?status="+url.QueryEscape(status), http.StatusSeeOther)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port and stops it when ctx ends.
func Serve(ctx context.Context, srv *Server, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	hs := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hs.Shutdown(shutdownCtx)
	}()

	log.Info().Msgf("Server listening on http://%s", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Package server is the local web UI for browsing analysis runs and
// stored articles.
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/articlemetrics/internal/database"
	"github.com/TobiSchelling/articlemetrics/internal/report"
	"github.com/TobiSchelling/articlemetrics/internal/telemetry"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Server is the HTTP server for browsing runs.
type Server struct {
	db      *database.DB
	metrics *telemetry.Metrics
	pages   map[string]*template.Template
	mux     *http.ServeMux
}

// New creates a new Server. A nil metrics gets a fresh registry.
func New(db *database.DB, metrics *telemetry.Metrics) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":    renderMarkdown,
		"paragraphs":  paragraphs,
		"formatFloat": report.FormatFloat,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so their "content" blocks
	// don't collide.
	pageNames := []string{"index.html", "run.html", "article.html"}
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

	if metrics == nil {
		metrics = telemetry.New()
	}

	s := &Server{db: db, metrics: metrics, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
	s.mux.Handle("/metrics", s.metrics.Handler())

	s.mux.Handle("/", s.count("index", s.handleIndex))
	s.mux.Handle("/run/", s.count("run", s.handleRun))
	s.mux.Handle("/article/", s.count("article", s.handleArticle))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) count(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	runs, err := s.db.GetRuns(50)
	if err != nil {
		log.Printf("Error listing runs: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	articles, err := s.db.ListArticles()
	if err != nil {
		log.Printf("Error listing articles: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Runs":     runs,
		"Articles": articles,
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/run/")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	run, err := s.db.GetRun(id)
	if err != nil {
		log.Printf("Error loading run %s: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.NotFound(w, r)
		return
	}

	metrics, err := s.db.GetMetricsForRun(id)
	if err != nil {
		log.Printf("Error loading metrics for run %s: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rows := make([]report.Row, len(metrics))
	var failed []database.Metrics
	for i, m := range metrics {
		rows[i] = report.Row{ID: m.URLID, URL: m.URL, Record: m.Record}
		if m.Error != nil {
			failed = append(failed, m)
		}
	}
	var table bytes.Buffer
	if err := report.WriteMarkdown(&table, rows); err != nil {
		log.Printf("Error building report for run %s: %v", id, err)
	}

	s.render(w, "run.html", map[string]any{
		"Run":    run,
		"Table":  table.String(),
		"Failed": failed,
	})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/article/")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	article, err := s.db.GetArticle(id)
	if err != nil {
		log.Printf("Error loading article %s: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if article == nil {
		http.NotFound(w, r)
		return
	}
	latest, err := s.db.GetLatestMetrics(id)
	if err != nil {
		log.Printf("Error loading metrics for article %s: %v", id, err)
	}

	var values []metricValue
	if latest != nil {
		row := report.Row{ID: latest.URLID, URL: latest.URL, Record: latest.Record}
		cells := row.Values()
		for i := 2; i < len(report.Columns); i++ {
			values = append(values, metricValue{Name: report.Columns[i], Value: cells[i]})
		}
	}

	s.render(w, "article.html", map[string]any{
		"Article": article,
		"Latest":  latest,
		"Values":  values,
	})
}

type metricValue struct {
	Name  string
	Value string
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, metrics *telemetry.Metrics, port int) error {
	srv, err := New(db, metrics)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}

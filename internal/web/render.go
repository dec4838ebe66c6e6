package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/filter"
	"github.com/hpungsan/internmap/internal/ops"
	"github.com/hpungsan/internmap/internal/profile"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// ListPageData is the template data for the profile list page.
type ListPageData struct {
	PageData
	Map    []ops.Summary
	List   []ops.Summary
	Total  int
	Filter filter.Options
	// Fields is every selectable field tag; Selected marks the active ones.
	Fields   []string
	Selected map[string]bool
}

// DetailPageData is the template data for the profile detail page.
type DetailPageData struct {
	PageData
	Profile   *profile.Profile
	Narrative template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *slog.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *slog.Logger) *Renderer {
	funcMap := template.FuncMap{
		"formatDate": formatDate,
		"stars":      stars,
		"minutes":    minutes,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":   "list.html",
		"detail": "detail.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		logger:    logger,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
// API routes always answer JSON.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		r.logger.Error("unexpected error", "path", req.URL.Path, "error", err)
		appErr = errors.NewInternal(nil)
	} else if appErr.Code == errors.ErrInternal {
		r.logger.Error("internal error", "path", req.URL.Path, "error", appErr.Message)
		appErr = errors.NewInternal(nil)
	}

	if wantsJSON(req) {
		body := map[string]any{
			"code":    string(appErr.Code),
			"message": appErr.Message,
			"status":  appErr.Status,
		}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		renderJSON(w, appErr.Status, map[string]any{"error": body})
		return
	}

	r.renderPageStatus(w, appErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", appErr.Status),
			Version: r.version,
		},
		StatusCode: appErr.Status,
		Message:    appErr.Message,
	})
}

// wantsJSON reports whether req is an API call or asks for JSON.
func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// narrativeMarkdown lays out the answered prompts as a markdown document.
func narrativeMarkdown(p *profile.Profile) string {
	var b strings.Builder
	for _, a := range p.Answers() {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", a.Question, a.Text)
	}
	return b.String()
}

// renderMarkdown converts markdown text to HTML using goldmark.
// goldmark drops raw HTML by default, so submitted text cannot inject markup.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatDate renders a YYYY-MM-DD date as "Jan 2, 2006". Unparseable input is returned as is.
func formatDate(s string) string {
	t, err := time.Parse(profile.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// stars renders a 1-5 rating as filled and empty stars.
func stars(n int) string {
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// minutes renders a travel-time component, "n/a" when unknown.
func minutes(n int) string {
	if n <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%d min", n)
}

package web

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/ops"
	"github.com/hpungsan/internmap/internal/profile"
)

// Request limits
const (
	// MaxSubmitBytes leaves room for inline photo data URLs.
	MaxSubmitBytes = 10 << 20
	MaxImportBytes = 5 << 20
)

// AccessCodeHeader carries the shared access code on mutating API calls.
const AccessCodeHeader = "X-Access-Code"

// SearchSessionHeader lets a client pin its type-ahead session. Without it
// the client address is used.
const SearchSessionHeader = "X-Search-Session"

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	session  *ops.Session
	renderer *Renderer
	searches *searchSessions
	logger   *slog.Logger
}

// listInput reads filter selections from the query string.
// fields may repeat or be comma-separated.
func listInput(r *http.Request) ops.ListInput {
	q := r.URL.Query()
	return ops.ListInput{
		LocationType: q.Get("location"),
		TravelMode:   q.Get("mode"),
		MaxMinutes:   q.Get("max"),
		Fields:       q["field"],
	}
}

// HandleList handles GET /profiles, the filtered map and remote lists.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.List(r.Context(), listInput(r))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	selected := make(map[string]bool, len(result.Filter.Fields))
	for _, f := range result.Filter.Fields {
		selected[f] = true
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Internships",
			Version: h.renderer.version,
		},
		Map:      ops.Summaries(result.MapEligible),
		List:     ops.Summaries(result.ListEligible),
		Total:    result.Total,
		Filter:   result.Filter,
		Fields:   profile.Fields,
		Selected: selected,
	})
}

// HandleDetail handles GET /profiles/{id}, one profile with its narrative.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	p, err := h.session.Get(r.Context(), ops.GetInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   p.Company,
			Version: h.renderer.version,
		},
		Profile:   p,
		Narrative: renderMarkdown(narrativeMarkdown(p)),
	})
}

// HandleAPIList handles GET /api/profiles.
func (h *Handlers) HandleAPIList(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.List(r.Context(), listInput(r))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIGet handles GET /api/profiles/{id}.
func (h *Handlers) HandleAPIGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.session.Get(r.Context(), ops.GetInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, p)
}

// HandleAPISubmit handles POST /api/profiles. The body is a profile record.
func (h *Handlers) HandleAPISubmit(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxSubmitBytes))
	if err := dec.Decode(&p); err != nil {
		h.renderer.renderError(w, r, bodyError(err))
		return
	}

	result, err := h.session.Submit(r.Context(), ops.SubmitInput{
		AccessCode: r.Header.Get(AccessCodeHeader),
		Profile:    p,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/profiles/"+result.Profile.ID)
	renderJSON(w, http.StatusCreated, result)
}

// HandleAPIDelete handles DELETE /api/profiles/{id}.
func (h *Handlers) HandleAPIDelete(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.Delete(r.Context(), ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIImport handles POST /api/profiles/import. The CSV arrives either
// as the raw body or as the "file" part of a multipart form.
func (h *Handlers) HandleAPIImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)

	var body io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		f, _, err := r.FormFile("file")
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("multipart upload must include a \"file\" part"))
			return
		}
		defer f.Close()
		body = f
	}

	result, err := h.session.Import(r.Context(), ops.ImportInput{
		AccessCode: r.Header.Get(AccessCodeHeader),
		Reader:     body,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleGeoSearch handles GET /api/geo/search?q=, the address type-ahead.
func (h *Handlers) HandleGeoSearch(w http.ResponseWriter, r *http.Request) {
	if h.searches == nil {
		h.renderer.renderError(w, r, errors.NewProviderUnavailable("search"))
		return
	}
	sess := h.searches.get(clientKey(r))
	renderJSON(w, http.StatusOK, sess.Search(r.Context(), r.URL.Query().Get("q")))
}

// clientKey identifies the caller for search session reuse.
func clientKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(SearchSessionHeader)); k != "" {
		return "h:" + k
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "a:" + host
}

// bodyError maps a request-body read failure to an AppError.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return errors.NewInvalidRequest("request body too large")
	}
	return errors.NewInvalidRequest("invalid JSON body: " + err.Error())
}

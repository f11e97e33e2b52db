package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"jasper-go/internal/export"
	"jasper-go/internal/jasper"
	"jasper-go/internal/model"
)

// Handler holds API route handlers.
type Handler struct {
	mgr    *jasper.LifecycleManager
	logger jasper.Logger
}

// NewHandler creates a new Handler. logger may be nil.
func NewHandler(mgr *jasper.LifecycleManager, logger jasper.Logger) *Handler {
	if logger == nil {
		logger = jasper.NewNopLogger()
	}
	return &Handler{mgr: mgr, logger: logger}
}

// CreateResourceRequest adds either a URL or a local file.
type CreateResourceRequest struct {
	URL            string                   `json:"url,omitempty"`
	Path           string                   `json:"path,omitempty"`
	Title          string                   `json:"title,omitempty"`
	Description    string                   `json:"description,omitempty"`
	Tags           []string                 `json:"tags,omitempty"`
	Properties     map[string]PropertyInput `json:"properties,omitempty"`
	AllowDuplicate bool                     `json:"allow_duplicate,omitempty"`
}

// Metadata validates the request's metadata fields.
func (req CreateResourceRequest) Metadata() (jasper.Metadata, error) {
	meta := jasper.Metadata{
		Title:          req.Title,
		Description:    req.Description,
		Tags:           req.Tags,
		AllowDuplicate: req.AllowDuplicate,
	}
	if len(req.Properties) > 0 {
		meta.Properties = make(map[string]model.PropertyValue, len(req.Properties))
		for k, in := range req.Properties {
			v, err := in.Parse(k)
			if err != nil {
				return meta, err
			}
			meta.Properties[k] = v
		}
	}
	return meta, nil
}

// CreateResource handles POST /api/resources.
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req CreateResourceRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	meta, err := req.Metadata()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var res *model.Resource
	switch {
	case req.URL != "" && req.Path != "":
		err = &jasper.InvalidInputError{Field: "body", Reason: "url and path are mutually exclusive"}
	case req.URL != "":
		res, err = h.mgr.AddExternal(r.Context(), req.URL, meta)
	case req.Path != "":
		res, err = h.mgr.AddInternal(r.Context(), req.Path, meta)
	default:
		err = &jasper.InvalidInputError{Field: "body", Reason: "url or path is required"}
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, export.NewRecord(res))
}

// GetResource handles GET /api/resources/{id}.
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	res, err := h.mgr.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, export.NewRecord(res))
}

// UpdateResource handles PATCH /api/resources/{id}. Absent fields are left alone.
func (h *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.mgr.Update(r.Context(), chi.URLParam(r, "id"), model.ResourceUpdate{Title: req.Title, Description: req.Description})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, export.NewRecord(res))
}

// DeleteResource handles DELETE /api/resources/{id}.
func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordAccess handles POST /api/resources/{id}/access.
func (h *Handler) RecordAccess(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.RecordAccess(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTag handles PUT /api/resources/{id}/tags/{tag}.
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Tag(r.Context(), chi.URLParam(r, "id"), pathParam(r, "tag")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveTag handles DELETE /api/resources/{id}/tags/{tag}.
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Untag(r.Context(), chi.URLParam(r, "id"), pathParam(r, "tag")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetProperty handles PUT /api/resources/{id}/properties/{key}.
func (h *Handler) SetProperty(w http.ResponseWriter, r *http.Request) {
	var in PropertyInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	key := pathParam(r, "key")
	v, err := in.Parse(key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.mgr.SetProperty(r.Context(), chi.URLParam(r, "id"), key, v); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveProperty handles DELETE /api/resources/{id}/properties/{key}.
func (h *Handler) RemoveProperty(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.RemoveProperty(r.Context(), chi.URLParam(r, "id"), pathParam(r, "key")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLocation handles POST /api/resources/{id}/locations.
func (h *Handler) AddLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    string `json:"type"`
		Value   string `json:"value"`
		Primary bool   `json:"primary"`
	}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	loc, err := h.mgr.AddLocation(r.Context(), chi.URLParam(r, "id"), model.LocationType(req.Type), req.Value, req.Primary)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, export.NewLocationRecord(*loc))
}

// RemoveLocation handles DELETE /api/resources/{id}/locations/{locationID}.
func (h *Handler) RemoveLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.RemoveLocation(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "locationID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPrimaryLocation handles PUT /api/resources/{id}/locations/{locationID}/primary.
func (h *Handler) SetPrimaryLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.SetPrimaryLocation(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "locationID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Archive handles POST /api/resources/{id}/archive. The body is optional.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tags    map[string]string `json:"tags"`
		Primary bool              `json:"primary"`
	}
	if err := decodeOptional(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	receipt, err := h.mgr.Archive(r.Context(), chi.URLParam(r, "id"), jasper.ArchiveOptions{Tags: req.Tags, Primary: req.Primary})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, NewReceiptView(receipt))
}

// History handles GET /api/resources/{id}/archives.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	copies, err := h.mgr.ArchivalHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"archives": NewHistoryView(copies)})
}

// Estimate handles POST /api/estimate.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	est, err := h.mgr.EstimateArchival(r.Context(), req.IDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, NewEstimateView(est))
}

// Search handles GET /api/resources.
//
// Query parameters: q, tag (repeatable), logic (any|all), class, sort
// (modified|created|title|accessed), order (asc|desc), limit, offset.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.mgr.Search(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, NewPageView(page))
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.mgr.TagIndex().Tags(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"tags": NewTagsView(tags)})
}

// SuggestTags handles GET /api/suggest/tags?prefix=&resource=&limit=.
func (h *Handler) SuggestTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tags, err := h.mgr.SuggestTags(r.Context(), q.Get("resource"), q.Get("prefix"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"suggestions": nonNil(tags)})
}

// SuggestKeys handles GET /api/suggest/keys?prefix=&resource=&limit=.
func (h *Handler) SuggestKeys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	keys, err := h.mgr.SuggestPropertyKeys(r.Context(), q.Get("resource"), q.Get("prefix"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"suggestions": nonNil(keys)})
}

// SuggestValues handles GET /api/suggest/values?key=&prefix=&limit=.
func (h *Handler) SuggestValues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	values, err := h.mgr.SuggestPropertyValues(r.Context(), q.Get("key"), q.Get("prefix"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]PropertyInput, 0, len(values))
	for _, v := range values {
		out = append(out, PropertyInput{Type: string(v.Type()), Value: v.String()})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

// Verify handles POST /api/verify. The body is optional.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs             []string `json:"ids"`
		IncludeArchival bool     `json:"include_archival"`
	}
	if err := decodeOptional(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.mgr.Verify(r.Context(), jasper.VerifyOptions{IDs: req.IDs, IncludeArchival: req.IncludeArchival})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, NewVerifyView(report))
}

// Export handles GET /api/export. Search parameters select the resources;
// format and compression choose the output.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := ParseQuery(params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	opts := jasper.ExportOptions{
		Format:      export.Format(params.Get("format")),
		Compression: export.Compression(params.Get("compression")),
	}
	// Encrypted exports are written to disk by the CLI only.
	var buf bytes.Buffer
	if _, err := h.mgr.WriteExport(r.Context(), &buf, q, opts); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.mgr.ExportFilename(q, opts)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Import handles POST /api/import?format=. The body is the export file.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 256<<20)
	result, err := h.mgr.Import(r.Context(), r.Body, jasper.ImportOptions{Format: export.Format(r.URL.Query().Get("format"))})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"format":   result.Format,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
}

// ParseQuery reads search parameters.
func ParseQuery(v url.Values) (model.Query, error) {
	q := model.Query{
		Text:  v.Get("q"),
		Tags:  v["tag"],
		Logic: model.TagLogic(v.Get("logic")),
		Class: model.ResourceClass(v.Get("class")),
		Sort:  model.SortField(v.Get("sort")),
	}
	switch strings.ToLower(v.Get("order")) {
	case "", "desc":
	case "asc":
		q.Ascending = true
	default:
		return q, &jasper.InvalidInputError{Field: "order", Reason: "must be asc or desc"}
	}
	var err error
	if q.Limit, err = intParam(v, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = intParam(v, "offset"); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(v url.Values, name string) (int, error) {
	raw := v.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &jasper.InvalidInputError{Field: name, Reason: "must be an integer"}
	}
	return n, nil
}

// pathParam returns an unescaped URL parameter, so tags and keys may hold
// reserved characters.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// decodeOptional is decode for endpoints whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := decode(w, r, v)
	var invalid *jasper.InvalidInputError
	if errors.As(err, &invalid) && invalid.Reason == io.EOF.Error() {
		return nil
	}
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

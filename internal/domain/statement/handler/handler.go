// Package handler exposes the conversion service over HTTP.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/classifier"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/export"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/extractor"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/service"
	"github.com/FACorreiaa/fi-statement-converter/internal/textsource"
	"github.com/FACorreiaa/fi-statement-converter/pkg/storage"
)

const defaultMaxUploadBytes = 32 << 20

// StatementHandler serves conversion requests.
type StatementHandler struct {
	svc            *service.Service
	classifier     *classifier.Classifier
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewStatementHandler creates a handler. maxUploadBytes bounds a whole
// request body; zero or less uses 32 MiB.
func NewStatementHandler(svc *service.Service, c *classifier.Classifier, maxUploadBytes int64, logger *slog.Logger) *StatementHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	if c == nil {
		c = classifier.NewDefault()
	}
	return &StatementHandler{
		svc:            svc,
		classifier:     c,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Register mounts the API routes on mux.
func (h *StatementHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/convert", h.Convert)
	mux.HandleFunc("POST /api/v1/convert/text", h.ConvertText)
	mux.HandleFunc("GET /api/v1/conversions", h.ListConversions)
	mux.HandleFunc("GET /api/v1/conversions/{id}", h.GetConversion)
	mux.HandleFunc("GET /api/v1/conversions/{id}/export", h.ExportConversion)
	mux.HandleFunc("GET /api/v1/fi-types", h.FITypes)
	mux.HandleFunc("GET /healthz", h.Health)
}

// FileResult is the outcome for one uploaded file.
type FileResult struct {
	Name         string                  `json:"name"`
	ConversionID string                  `json:"conversionId,omitempty"`
	Data         *model.NormalizedRecord `json:"data,omitempty"`
	Error        string                  `json:"error,omitempty"`
}

// ConvertResponse is the body of POST /api/v1/convert.
type ConvertResponse struct {
	Files []FileResult `json:"files"`
}

// Convert handles POST /api/v1/convert with multipart "files" or "file"
// parts. Files are converted concurrently; one failing file is reported in
// its own entry.
func (h *StatementHandler) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var headers []*multipart.FileHeader
	headers = append(headers, r.MultipartForm.File["files"]...)
	headers = append(headers, r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, `no files in form fields "files" or "file"`)
		return
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		up, err := readUpload(fh)
		if err != nil {
			h.logger.Error("failed to read upload", slog.String("file", fh.Filename), slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "failed to read "+fh.Filename)
			return
		}
		uploads = append(uploads, up)
	}

	results := h.svc.ConvertBatch(r.Context(), uploads)

	resp := ConvertResponse{Files: make([]FileResult, len(results))}
	succeeded := 0
	var firstErr error
	for i, res := range results {
		resp.Files[i].Name = res.Name
		if res.Err != nil {
			h.logger.Warn("file conversion failed", slog.String("file", res.Name), slog.Any("error", res.Err))
			resp.Files[i].Error = res.Err.Error()
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}
		succeeded++
		resp.Files[i].ConversionID = res.Conversion.ID.String()
		resp.Files[i].Data = res.Conversion.Record
	}

	status := http.StatusOK
	if succeeded == 0 {
		status = statusFor(firstErr)
	}
	writeJSON(w, status, resp)
}

// ConvertTextRequest is the body of POST /api/v1/convert/text.
type ConvertTextRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// ConvertText handles POST /api/v1/convert/text.
func (h *StatementHandler) ConvertText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req ConvertTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, err := h.svc.ConvertText(r.Context(), req.Name, req.Text)
	if err != nil {
		h.fail(w, "text conversion failed", err)
		return
	}
	w.Header().Set("X-Conversion-ID", conv.ID.String())
	writeJSON(w, http.StatusOK, conv.Record)
}

// ListConversions handles GET /api/v1/conversions.
func (h *StatementHandler) ListConversions(w http.ResponseWriter, r *http.Request) {
	infos, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, "failed to list conversions", err)
		return
	}

	type item struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Source    string    `json:"source"`
		CreatedAt time.Time `json:"createdAt"`
	}
	items := make([]item, 0, len(infos))
	for _, info := range infos {
		items = append(items, item{
			ID:        info.ID.String(),
			Name:      info.Labels["file"],
			Source:    info.Labels["source"],
			CreatedAt: info.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversions": items,
		"count":       len(items),
	})
}

// GetConversion handles GET /api/v1/conversions/{id}.
func (h *StatementHandler) GetConversion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	conv, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "failed to load conversion", err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ExportConversion handles GET /api/v1/conversions/{id}/export?format=.
func (h *StatementHandler) ExportConversion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), id, format, &buf); err != nil {
		h.fail(w, "export failed", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, id, format.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// FITypes handles GET /api/v1/fi-types. With a "text" query parameter the
// response also carries that text's scores.
func (h *StatementHandler) FITypes(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"types": h.classifier.Indicators(),
		"weights": map[string]int{
			"keyword":     classifier.KeywordWeight,
			"institution": classifier.InstitutionWeight,
		},
	}
	if text := r.URL.Query().Get("text"); text != "" {
		resp["scores"] = h.classifier.Scores(text)
		resp["classified"] = h.classifier.Classify(text)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /healthz.
func (h *StatementHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *StatementHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, slog.Any("error", err))
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, extractor.ErrMalformedInput), errors.Is(err, textsource.ErrNoText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, textsource.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, export.ErrUnsupportedFormat), errors.Is(err, service.ErrEmptyUpload):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversion id")
		return uuid.Nil, false
	}
	return id, true
}

func readUpload(fh *multipart.FileHeader) (service.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.Upload{}, err
	}
	return service.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/export"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/extractor"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/service"
	"github.com/FACorreiaa/fi-statement-converter/internal/textsource"
	"github.com/FACorreiaa/fi-statement-converter/pkg/storage"
)

const statement = "Name: Jane Doe\nPAN: ABCDE1234F\nCurrent Balance: 12,345.67\n01-02-2024 CREDIT UPI 500.00 12845.67 Salary"

func newServer(t *testing.T) *http.ServeMux {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	sources := textsource.NewRegistry(textsource.Config{}, logger)
	svc := service.New(sources, extractor.New(), store, service.WithWorkers(2))

	mux := http.NewServeMux()
	NewStatementHandler(svc, nil, 1<<20, logger).Register(mux)
	return mux
}

type part struct {
	field, name, body string
}

func multipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestConvert_MultipleFiles(t *testing.T) {
	mux := newServer(t)

	rec := serve(mux, multipartRequest(t,
		part{"files", "march.txt", statement},
		part{"files", "scan.bin", "\x00\x01\x02"},
		part{"file", "april.txt", statement},
	))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 3)

	assert.Equal(t, "march.txt", resp.Files[0].Name)
	require.NotNil(t, resp.Files[0].Data)
	assert.Equal(t, "Jane Doe", resp.Files[0].Data.Accounts[0].Profile.Holders[0].Name)
	_, err := uuid.Parse(resp.Files[0].ConversionID)
	assert.NoError(t, err)

	assert.Equal(t, "scan.bin", resp.Files[1].Name)
	assert.Nil(t, resp.Files[1].Data)
	assert.Contains(t, resp.Files[1].Error, "unsupported file format")

	assert.Equal(t, "april.txt", resp.Files[2].Name)
	assert.NotEmpty(t, resp.Files[2].ConversionID)
}

func TestConvert_AllFailed(t *testing.T) {
	mux := newServer(t)

	rec := serve(mux, multipartRequest(t, part{"file", "scan.bin", "\x00\x01"}))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestConvert_BadRequests(t *testing.T) {
	mux := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, serve(mux, req).Code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no files here"))
	require.NoError(t, mw.Close())
	req = httptest.NewRequest(http.MethodPost, "/api/v1/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(mux, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no files")
}

func TestConvertText(t *testing.T) {
	mux := newServer(t)

	payload, err := json.Marshal(ConvertTextRequest{Text: statement})
	require.NoError(t, err)
	rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/convert/text", bytes.NewReader(payload)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var record model.NormalizedRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, model.StatusSuccess, record.Status)
	require.Len(t, record.Accounts, 1)
	assert.Equal(t, "12345.67", record.Accounts[0].Summary.Deposit.CurrentBalance)

	id := rec.Header().Get("X-Conversion-ID")
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/conversions/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var conv service.Conversion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, id, conv.ID.String())
	assert.Equal(t, "statement.txt", conv.Name)

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/conversions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestConvertText_InvalidBody(t *testing.T) {
	mux := newServer(t)
	rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/convert/text", strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportConversion(t *testing.T) {
	mux := newServer(t)

	payload, err := json.Marshal(ConvertTextRequest{Name: "march.txt", Text: statement})
	require.NoError(t, err)
	rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/v1/convert/text", bytes.NewReader(payload)))
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get("X-Conversion-ID")

	tests := []struct {
		format      string
		status      int
		contentType string
	}{
		{"csv", http.StatusOK, "text/csv; charset=utf-8"},
		{"xlsx", http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"", http.StatusOK, "application/json"},
		{"pdf", http.StatusBadRequest, "application/json"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("format=%q", tt.format), func(t *testing.T) {
			rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/conversions/"+id+"/export?format="+tt.format, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			if tt.status == http.StatusOK {
				assert.Contains(t, rec.Header().Get("Content-Disposition"), id)
			}
		})
	}

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/conversions/"+id+"/export?format=csv", nil))
	assert.Contains(t, rec.Body.String(), "Salary")
}

func TestGetConversion_Errors(t *testing.T) {
	mux := newServer(t)

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/conversions/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/conversions/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFITypes(t *testing.T) {
	mux := newServer(t)

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/v1/fi-types?text=folio+nav+units", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Types []struct {
			Type     string   `json:"type"`
			Keywords []string `json:"keywords"`
		} `json:"types"`
		Weights    map[string]int `json:"weights"`
		Scores     map[string]int `json:"scores"`
		Classified string         `json:"classified"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Types, 4)
	assert.Equal(t, 10, resp.Weights["keyword"])
	assert.Equal(t, 20, resp.Weights["institution"])
	assert.Equal(t, string(model.InstrumentMutualFunds), resp.Classified)
	assert.Positive(t, resp.Scores[string(model.InstrumentMutualFunds)])
}

func TestHealth(t *testing.T) {
	rec := serve(newServer(t), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("get: %w", storage.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", extractor.ErrMalformedInput), http.StatusUnprocessableEntity},
		{textsource.ErrNoText, http.StatusUnprocessableEntity},
		{textsource.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{export.ErrUnsupportedFormat, http.StatusBadRequest},
		{service.ErrEmptyUpload, http.StatusBadRequest},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}

// Package e2etest provides end-to-end tests that drive the HTTP API the way
// a client does.
package e2etest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/fi-statement-converter/cmd/api"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/fixtures"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/handler"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/pkg/config"
)

const semicolonCSV = "Account Holder Name: Jane Doe\n" +
	"PAN: ABCDE1234F\n" +
	"Date;Type;Mode;Amount;Balance;Narration\n" +
	"01-02-2024;CREDIT;UPI;500.00;12845.67;Salary\n"

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:               "127.0.0.1",
			RateLimitPerSecond: 1000,
			RateLimitBurst:     1000,
			MaxUploadBytes:     4 << 20,
			ShutdownTimeout:    time.Second,
		},
		Storage: config.StorageConfig{
			BasePath:      t.TempDir(),
			Retention:     time.Hour,
			RetentionSpec: "@every 1h",
			KeepUploads:   true,
		},
		Extraction:    config.ExtractionConfig{Workers: 4, ConverterTimeout: 10 * time.Second},
		Observability: config.ObservabilityConfig{MetricsEnabled: true},
	}

	deps, err := api.InitDependencies(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(deps.Cleanup)

	srv := httptest.NewServer(api.NewRouter(deps))
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, url string, files map[string]string) handler.ConvertResponse {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/api/v1/convert", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out handler.ConvertResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestConvert_UploadExportRoundTrip(t *testing.T) {
	srv := startServer(t)
	generated := fixtures.New(11).Deposit(5)

	resp := upload(t, srv.URL, map[string]string{
		"generated.txt": generated.Text,
		"march.csv":     semicolonCSV,
	})
	require.Len(t, resp.Files, 2)

	byName := map[string]handler.FileResult{}
	for _, f := range resp.Files {
		require.Empty(t, f.Error, f.Name)
		byName[f.Name] = f
	}

	gen := byName["generated.txt"].Data
	require.Len(t, gen.Accounts, 1)
	assert.Equal(t, generated.Holder, gen.Accounts[0].Profile.Holders[0].Name)
	assert.Len(t, gen.Accounts[0].Transactions.Entries, 5)

	csvRec := byName["march.csv"].Data
	require.Len(t, csvRec.Accounts, 1)
	assert.Equal(t, "Jane Doe", csvRec.Accounts[0].Profile.Holders[0].Name)
	assert.Equal(t, "ABCDE1234F", csvRec.Accounts[0].Profile.Holders[0].PAN)
	require.Len(t, csvRec.Accounts[0].Transactions.Entries, 1)
	assert.Equal(t, "500.00", csvRec.Accounts[0].Transactions.Entries[0].Amount)

	id := byName["generated.txt"].ConversionID
	res, err := http.Get(fmt.Sprintf("%s/api/v1/conversions/%s/export?format=xlsx", srv.URL, id))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	book, err := excelize.OpenReader(res.Body)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Transactions")
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

func TestConvert_TextAndLookup(t *testing.T) {
	srv := startServer(t)

	payload, err := json.Marshal(handler.ConvertTextRequest{Text: ""})
	require.NoError(t, err)
	res, err := http.Post(srv.URL+"/api/v1/convert/text", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var rec model.NormalizedRecord
	require.NoError(t, json.NewDecoder(res.Body).Decode(&rec))
	require.Len(t, rec.Accounts, 1)
	assert.Equal(t, model.InstrumentDeposit, rec.Accounts[0].InstrumentType)
	assert.Equal(t, model.ZeroAmount, rec.Accounts[0].Summary.Deposit.CurrentBalance)
	assert.Empty(t, rec.Accounts[0].Transactions.Entries)

	got, err := http.Get(srv.URL + "/api/v1/conversions/" + res.Header.Get("X-Conversion-ID"))
	require.NoError(t, err)
	defer got.Body.Close()
	assert.Equal(t, http.StatusOK, got.StatusCode)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "statement_empty_extractions_total 1")
}

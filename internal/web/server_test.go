package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/palletflow/internal/config"
	"github.com/JonMunkholm/palletflow/internal/core"
	_ "github.com/JonMunkholm/palletflow/internal/core/imports"
	"github.com/JonMunkholm/palletflow/internal/database/memstore"
	"github.com/JonMunkholm/palletflow/internal/web/middleware"
)

func testConfig(roles ...string) *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import:  config.ImportConfig{MaxFileSize: 64 << 10, MaxConcurrent: 2, MaxWaitTime: time.Second, Timeout: 5 * time.Second},
		Auth:    config.AuthConfig{DevRoles: roles},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := core.NewService(store, core.Options{
		MaxFileSize:   cfg.Import.MaxFileSize,
		Timeout:       cfg.Import.Timeout,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		MergeAtomic:   true,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewServer(ctx, svc, cfg), store
}

func workbook(t *testing.T, sheet string, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &vals))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func upload(t *testing.T, s *Server, target string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		part, err := mw.CreateFormFile("file", "upload.xlsx")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func locationsFile(t *testing.T, rows ...[]any) []byte {
	return workbook(t, "Locations", append([][]any{{"Code", "Name", "Kind"}}, rows...)...)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig("admin"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"maxConcurrent":2`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestListImports(t *testing.T) {
	s, _ := newTestServer(t, testConfig("admin"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []core.CatalogueEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	assert.Len(t, entries, 5)
}

func TestTemplate(t *testing.T) {
	s, _ := newTestServer(t, testConfig("admin"))

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports/shipments/template", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Containers", "Schedule"}, f.GetSheetList())

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/imports/pallets/template", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImport(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s, store := newTestServer(t, testConfig("admin"))
		rec := upload(t, s, "/api/imports/locations", locationsFile(t, []any{"WH1", "Main", "warehouse"}, []any{"AMS", "Amsterdam", "destination"}))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res core.Result
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
		assert.True(t, res.Success)
		assert.Equal(t, 2, *res.Imported)
		assert.NotEmpty(t, res.ImportID)
		assert.Equal(t, 2, store.Counts().Locations)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		s, store := newTestServer(t, testConfig("admin"))
		rec := upload(t, s, "/api/imports/locations?dry_run=true", locationsFile(t, []any{"WH1", "Main", "warehouse"}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"dryRun":true`)
		assert.Zero(t, store.Counts().Locations)
	})

	t.Run("batch failure", func(t *testing.T) {
		s, _ := newTestServer(t, testConfig("admin"))
		rec := upload(t, s, "/api/imports/locations", locationsFile(t, []any{"WH1", "Main", "warehouse"}, []any{"WH1", "Other", "warehouse"}))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var res core.Result
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
		assert.False(t, res.Success)
		assert.Equal(t, "IMP003", res.Code)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 3, res.Errors[0].Row)
	})

	t.Run("error report workbook", func(t *testing.T) {
		s, _ := newTestServer(t, testConfig("admin"))
		rec := upload(t, s, "/api/imports/locations?format=xlsx", locationsFile(t, []any{"WH1", "Main", "silo"}))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		f, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Errors")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("not a workbook", func(t *testing.T) {
		s, _ := newTestServer(t, testConfig("admin"))
		rec := upload(t, s, "/api/imports/locations", []byte("code,name\nWH1,Main\n"))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "FILE006")
		assert.NotContains(t, rec.Body.String(), `"total"`)
	})
}

func TestImport_RequestErrors(t *testing.T) {
	tests := []struct {
		name   string
		roles  []string
		target string
		data   []byte
		status int
		code   string
	}{
		{"unknown import", []string{"admin"}, "/api/imports/pallets", []byte("x"), http.StatusNotFound, "IMP007"},
		{"role gate", []string{"warehouse"}, "/api/imports/locations", []byte("x"), http.StatusForbidden, "IMP008"},
		{"missing file", []string{"admin"}, "/api/imports/locations", nil, http.StatusBadRequest, "FILE004"},
		{"empty file", []string{"admin"}, "/api/imports/locations", []byte{}, http.StatusBadRequest, "FILE005"},
		{"too large", []string{"admin"}, "/api/imports/locations", bytes.Repeat([]byte("x"), 65<<10), http.StatusRequestEntityTooLarge, "FILE001"},
		{"body over limit", []string{"admin"}, "/api/imports/locations", bytes.Repeat([]byte("x"), 2<<20), http.StatusRequestEntityTooLarge, "FILE001"},
		{"role gate before upload is read", []string{"warehouse"}, "/api/imports/locations", bytes.Repeat([]byte("x"), 2<<20), http.StatusForbidden, "IMP008"},
		{"unknown import before upload is read", []string{"admin"}, "/api/imports/pallets", bytes.Repeat([]byte("x"), 2<<20), http.StatusNotFound, "IMP007"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, testConfig(tt.roles...))
			rec := upload(t, s, tt.target, tt.data)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			var body middleware.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestImport_RateLimited(t *testing.T) {
	cfg := testConfig("admin")
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, Burst: 10, ImportsPerMinute: 1}
	s, _ := newTestServer(t, cfg)

	data := locationsFile(t, []any{"WH1", "Main", "warehouse"})
	assert.Equal(t, http.StatusOK, upload(t, s, "/api/imports/locations?dry_run=true", data).Code)

	rec := upload(t, s, "/api/imports/locations?dry_run=true", data)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE001")
}

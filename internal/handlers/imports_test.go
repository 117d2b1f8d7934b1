package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"plant-maint-api/internal/sheet"
)

func stockWorkbook(t *testing.T) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sh, err := f.AddSheet(sheet.StockTable)
	require.NoError(t, err)
	for _, cells := range [][]string{
		{"分類", "部品名", "在庫数", "単価", "発注点", "最終更新日"},
		{"ベルト", "Vベルト A型", "10", "500", "5", "2024-05-01"},
		{"スクリーン", "金網 3.5mm", "2", "8000", "2", "2024-05-10"},
	} {
		row := sh.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/imports/excel", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadExcel(t *testing.T) {
	store := sheet.NewMemoryStore()
	h := NewImportsHandler(store, nil)

	w := httptest.NewRecorder()
	h.UploadExcel(w, uploadRequest(t, "stock.xlsx", stockWorkbook(t), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Data struct {
			Imported int  `json:"imported"`
			Errors   int  `json:"errors"`
			DryRun   bool `json:"dry_run"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Data.Imported)
	assert.Equal(t, 0, out.Data.Errors)
	assert.False(t, out.Data.DryRun)

	stock, err := store.Read(context.Background(), sheet.StockTable)
	require.NoError(t, err)
	assert.Len(t, stock.Rows, 2)
}

func TestUploadExcelDryRun(t *testing.T) {
	store := sheet.NewMemoryStore()
	h := NewImportsHandler(store, nil)

	w := httptest.NewRecorder()
	h.UploadExcel(w, uploadRequest(t, "stock.xlsx", stockWorkbook(t), map[string]string{"dry_run": "true"}))
	require.Equal(t, http.StatusOK, w.Code)

	stock, err := store.Read(context.Background(), sheet.StockTable)
	require.NoError(t, err)
	assert.Empty(t, stock.Rows)
}

func TestUploadExcelRejectsNonXLSX(t *testing.T) {
	h := NewImportsHandler(sheet.NewMemoryStore(), nil)

	w := httptest.NewRecorder()
	h.UploadExcel(w, uploadRequest(t, "stock.csv", []byte("a,b,c"), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadExcelRejectsMissingFile(t *testing.T) {
	h := NewImportsHandler(sheet.NewMemoryStore(), nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("dry_run", "true"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest("POST", "/imports/excel", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	h.UploadExcel(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadExcelRejectsNonMultipart(t *testing.T) {
	h := NewImportsHandler(sheet.NewMemoryStore(), nil)

	req := httptest.NewRequest("POST", "/imports/excel", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.UploadExcel(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadExcelCorruptWorkbook(t *testing.T) {
	h := NewImportsHandler(sheet.NewMemoryStore(), nil)

	w := httptest.NewRecorder()
	h.UploadExcel(w, uploadRequest(t, "broken.xlsx", []byte("not a zip archive"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "IMPORT_FAILED")
}

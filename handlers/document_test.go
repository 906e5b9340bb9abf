package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"interview_booking_app_go/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func uploadRequest(t *testing.T, e *echo.Echo, token, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
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

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	req.Header.Set(echo.HeaderXRealIP, nextIP())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestDocumentHandlers(t *testing.T) {
	testDB := setupTestDB(t)
	e := newTestServer(t)
	owner := createUser(t, testDB, "owner@example.com", models.RoleUser)
	stranger := createUser(t, testDB, "stranger@example.com", models.RoleUser)
	admin := createUser(t, testDB, "admin@example.com", models.RoleAdmin)
	token := tokenFor(t, owner)

	rec := uploadRequest(t, e, token, "resume.pdf", samplePDF, map[string]string{"type": models.DocumentTypeResume})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc models.Document
	decodeResponse(t, rec, &doc)
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.Equal(t, "resume.pdf", doc.FileOriginalName)
	assert.Equal(t, int64(len(samplePDF)), doc.FileSize)

	t.Run("RejectsDisguisedFile", func(t *testing.T) {
		rec := uploadRequest(t, e, token, "resume.pdf", []byte("just some text, not a pdf"), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("RejectsUnknownBooking", func(t *testing.T) {
		rec := uploadRequest(t, e, token, "cv.pdf", samplePDF, map[string]string{"booking_id": "missing"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("List", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodGet, "/api/documents", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var docs []models.Document
		decodeResponse(t, rec, &docs)
		require.Len(t, docs, 1)
		assert.Equal(t, doc.ID, docs[0].ID)

		rec = doRequest(t, e, http.MethodGet, "/api/documents", nil, tokenFor(t, stranger))
		docs = nil
		decodeResponse(t, rec, &docs)
		assert.Empty(t, docs)
	})

	t.Run("Download", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodGet, "/api/documents/"+doc.ID+"/download", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "resume.pdf")
		assert.Equal(t, samplePDF, rec.Body.Bytes())

		rec = doRequest(t, e, http.MethodGet, "/api/documents/"+doc.ID+"/download", nil, tokenFor(t, stranger))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(t, e, http.MethodGet, "/api/documents/"+doc.ID+"/download", nil, tokenFor(t, admin))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodDelete, "/api/documents/"+doc.ID, nil, tokenFor(t, stranger))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = doRequest(t, e, http.MethodDelete, "/api/documents/"+doc.ID, nil, token)
		require.Equal(t, http.StatusOK, rec.Code)

		var count int64
		testDB.Model(&models.Document{}).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("MissingFile", func(t *testing.T) {
		rec := doRequest(t, e, http.MethodPost, "/api/documents", nil, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

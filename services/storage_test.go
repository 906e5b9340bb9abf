package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage := NewLocalStorage(tempDir)
	ctx := context.Background()
	content := "hello storage"
	key := "documents/file.txt"

	t.Run("UploadReader creates file", func(t *testing.T) {
		result, err := storage.UploadReader(ctx, strings.NewReader(content), key, "text/plain", int64(len(content)))
		require.NoError(t, err)
		assert.Equal(t, key, result.Key)
		assert.Equal(t, "file.txt", result.FileName)
		assert.Equal(t, int64(len(content)), result.FileSize)
		assert.Equal(t, "/uploads/documents/file.txt", result.URL)

		_, err = os.Stat(filepath.Join(tempDir, "documents", "file.txt"))
		assert.NoError(t, err)
	})

	t.Run("Get retrieves file content", func(t *testing.T) {
		reader, contentType, err := storage.Get(ctx, key)
		require.NoError(t, err)
		defer reader.Close()

		got, _ := io.ReadAll(reader)
		assert.Equal(t, content, string(got))
		assert.True(t, strings.HasPrefix(contentType, "text/plain"))
	})

	t.Run("Get detects PDF by extension", func(t *testing.T) {
		_, err := storage.UploadReader(ctx, strings.NewReader("%PDF-1.4"), "documents/doc.pdf", "application/pdf", 8)
		require.NoError(t, err)

		reader, contentType, err := storage.Get(ctx, "documents/doc.pdf")
		require.NoError(t, err)
		reader.Close()
		assert.Equal(t, "application/pdf", contentType)
	})

	t.Run("Path traversal rejected", func(t *testing.T) {
		_, err := storage.UploadReader(ctx, strings.NewReader("x"), "../escape.txt", "text/plain", 1)
		assert.Error(t, err)
		_, _, err = storage.Get(ctx, "../../etc/passwd")
		assert.Error(t, err)
	})

	t.Run("Delete removes file", func(t *testing.T) {
		require.NoError(t, storage.Delete(ctx, key))
		_, err := os.Stat(filepath.Join(tempDir, "documents", "file.txt"))
		assert.True(t, os.IsNotExist(err))

		assert.NoError(t, storage.Delete(ctx, key))
	})

	t.Run("URLs", func(t *testing.T) {
		assert.Equal(t, "/uploads/documents/a.pdf", storage.GetPublicURL("documents/a.pdf"))
		signed, err := storage.GetSignedURL(ctx, "documents/a.pdf", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "/uploads/documents/a.pdf", signed)
	})
}

func TestKeyGeneration(t *testing.T) {
	key := GenerateStorageKey("prefix", "Resume.PDF")
	assert.True(t, strings.HasPrefix(key, "prefix/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.Len(t, strings.Split(filepath.Base(key), "_"), 2)

	doc := GenerateDocumentKey("cv.docx")
	assert.True(t, strings.HasPrefix(doc, "documents/"))
	assert.NotEqual(t, doc, GenerateDocumentKey("cv.docx"))
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, NewLocalStorage(t.TempDir()).IsConfigured())

	r2 := &R2Storage{bucket: "test-bucket"}
	assert.False(t, r2.IsConfigured())
	assert.Equal(t, "", r2.GetPublicURL("documents/a.pdf"))

	r2.publicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/documents/a.pdf", r2.GetPublicURL("documents/a.pdf"))
}

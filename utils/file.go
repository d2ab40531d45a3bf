package utils

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage saves uploads below Dir and serves them under BaseURL.
type LocalStorage struct {
	Dir     string
	BaseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStorage{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Upload(_ context.Context, key, _ string, body []byte) (string, error) {
	destPath := filepath.Join(s.Dir, filepath.FromSlash(key))
	if !strings.HasPrefix(destPath, filepath.Clean(s.Dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal object key: %s", key)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(destPath, body, 0o644); err != nil {
		return "", err
	}
	return s.BaseURL + "/" + key, nil
}

// Upload is a file received from a multipart form, read into memory.
type Upload struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ReadUpload reads a multipart file, refusing anything over maxBytes.
func ReadUpload(fh *multipart.FileHeader, maxBytes int64) (*Upload, error) {
	if fh.Size > maxBytes {
		return nil, fmt.Errorf("file %s exceeds %d bytes", fh.Filename, maxBytes)
	}
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("file %s exceeds %d bytes", fh.Filename, maxBytes)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(body)
	}
	return &Upload{Filename: fh.Filename, ContentType: contentType, Body: body}, nil
}

// ObjectKey builds "<prefix>/<owner>/<uuid><ext>" keeping the original extension.
func ObjectKey(prefix, owner, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(prefix, owner, uuid.NewString()+ext)
}

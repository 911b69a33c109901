package ingestion

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/gcp"
	"github.com/yungbote/coursecraft-backend/internal/storage"
)

// ContentReader turns a stored curriculum file into plain text.
type ContentReader interface {
	ReadText(ctx context.Context, key string) (string, error)
}

type plainTextReader struct {
	files storage.FileStore
}

// NewPlainTextReader reads files as UTF-8 text. It is the default
// backend; uploads are expected to be text or markdown.
func NewPlainTextReader(files storage.FileStore) ContentReader {
	return &plainTextReader{files: files}
}

func (r *plainTextReader) ReadText(ctx context.Context, key string) (string, error) {
	rc, err := r.files.Open(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

type documentAIReader struct {
	log      *logger.Logger
	files    storage.FileStore
	document gcp.Document
	fallback ContentReader
}

// NewDocumentAIReader routes PDFs through Document AI and falls back
// to the plain reader for everything else.
func NewDocumentAIReader(log *logger.Logger, files storage.FileStore, document gcp.Document) ContentReader {
	return &documentAIReader{
		log:      log.With("service", "DocumentAIReader"),
		files:    files,
		document: document,
		fallback: NewPlainTextReader(files),
	}
}

func (r *documentAIReader) ReadText(ctx context.Context, key string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(key)), ".pdf") {
		return r.fallback.ReadText(ctx, key)
	}

	rc, err := r.files.Open(ctx, key)
	if err != nil {
		return "", err
	}
	data, readErr := io.ReadAll(rc)
	rc.Close()
	if readErr != nil {
		return "", fmt.Errorf("read content: %w", readErr)
	}

	text, err := r.document.ProcessBytes(ctx, "application/pdf", data)
	if err != nil {
		return "", err
	}
	return text, nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/gcp"
)

// FileStore holds uploaded curriculum files. Keys are relative paths
// chosen by the caller; the stored path goes into curriculum.file_path.
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewFromEnv selects the backend via FILE_STORAGE_MODE: "local"
// (default) writes under FILE_STORAGE_DIR, "gcs" uses the bucket
// service.
func NewFromEnv(log *logger.Logger) (FileStore, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("FILE_STORAGE_MODE")))
	switch mode {
	case "", "local":
		dir := strings.TrimSpace(os.Getenv("FILE_STORAGE_DIR"))
		if dir == "" {
			dir = "./data/curricula"
		}
		return NewLocalStore(log, dir)
	case "gcs":
		bucket, err := gcp.NewBucketService(log)
		if err != nil {
			return nil, err
		}
		return NewBucketStore(log, bucket), nil
	default:
		return nil, fmt.Errorf("unknown FILE_STORAGE_MODE %q", mode)
	}
}

type localStore struct {
	log *logger.Logger
	dir string
}

func NewLocalStore(log *logger.Logger, dir string) (FileStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &localStore{log: log.With("service", "LocalFileStore"), dir: dir}, nil
}

// resolve rejects keys that would escape the storage dir.
func (ls *localStore) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("file key required")
	}
	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid file key %q", key)
	}
	return filepath.Join(ls.dir, cleaned), nil
}

func (ls *localStore) Save(ctx context.Context, key string, r io.Reader) error {
	path, err := ls.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write file: %w", err)
	}
	return f.Close()
}

func (ls *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := ls.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (ls *localStore) Delete(ctx context.Context, key string) error {
	path, err := ls.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

type bucketStore struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

func NewBucketStore(log *logger.Logger, bucket gcp.BucketService) FileStore {
	return &bucketStore{log: log.With("service", "BucketFileStore"), bucket: bucket}
}

func (bs *bucketStore) Save(ctx context.Context, key string, r io.Reader) error {
	return bs.bucket.UploadFile(ctx, key, r)
}

func (bs *bucketStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return bs.bucket.DownloadFile(ctx, key)
}

func (bs *bucketStore) Delete(ctx context.Context, key string) error {
	return bs.bucket.DeleteFile(ctx, key)
}

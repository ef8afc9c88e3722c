// Package blob uploads run artifacts to a filesystem directory or an S3
// compatible bucket, selected by URL.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

var (
	ErrInvalidKey = errors.New("blob: invalid key")
	ErrScheme     = errors.New("blob: unsupported url scheme")
)

type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the artifact sink. Put replaces an existing object.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Open selects a store from a URL:
//
//	file:///var/kinsim/artifacts   (or a bare path)
//	s3://bucket/prefix
//
// The returned prefix is joined to every key by Upload.
func Open(ctx context.Context, raw string) (Store, string, error) {
	if raw == "" {
		return nil, "", fmt.Errorf("%w: empty url", ErrScheme)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, "", err
	}
	switch u.Scheme {
	case "", "file":
		root := u.Path
		if u.Scheme == "" {
			root = raw
		}
		st, err := NewFilesystem(root)
		return st, "", err
	case "s3":
		cfg := ConfigFromEnv()
		cfg.Bucket = u.Host
		st, err := NewS3(ctx, cfg)
		return st, strings.Trim(u.Path, "/"), err
	}
	return nil, "", fmt.Errorf("%w: %q", ErrScheme, u.Scheme)
}

func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: absolute key %q", ErrInvalidKey, key)
	}
	clean := path.Clean(filepath.ToSlash(key))
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: traversal in %q", ErrInvalidKey, key)
	}
	return clean, nil
}

// Upload puts every file under prefix/<base name> and returns what was stored.
func Upload(ctx context.Context, st Store, prefix string, files []string) ([]Info, error) {
	infos := make([]Info, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return infos, err
		}
		key := filepath.Base(f)
		if prefix != "" {
			key = path.Join(prefix, key)
		}
		info, err := st.Put(ctx, key, bytes.NewReader(data), PutOptions{ContentType: contentType(f)})
		if err != nil {
			return infos, fmt.Errorf("blob: upload %s: %w", key, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	default:
		return "text/plain"
	}
}

func cloneMetadata(md map[string]string) map[string]string {
	if len(md) == 0 {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

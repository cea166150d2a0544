// Package storage converts inline photo blobs into durable URLs.
package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LusX0117/itemsharing/domain"
)

// MediaStore writes inline photo payloads under a local media directory
// and hands back stable URLs. Remote references pass through untouched, so
// re-submitting an already-converted list is idempotent.
type MediaStore struct {
	dir     string
	baseURL string
}

// NewMediaStore creates the media directory if needed.
func NewMediaStore(dir, baseURL string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &MediaStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Put converts one photo reference into a durable URL. Content-hash names
// make the write idempotent; a failed write returns an error without
// leaving a partial file behind the returned URL.
func (m *MediaStore) Put(ref domain.PhotoRef) (string, error) {
	if ref.Kind == domain.PhotoRemote {
		return ref.URL, nil
	}

	if len(ref.Bytes) == 0 {
		return "", domain.ErrInvalidParams
	}

	sum := sha1.Sum(ref.Bytes)
	name := hex.EncodeToString(sum[:]) + extForMIME(ref.MIME)
	path := filepath.Join(m.dir, name)

	if _, err := os.Stat(path); err != nil {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, ref.Bytes, 0o644); err != nil {
			return "", fmt.Errorf("write media file: %w", err)
		}
		if err := os.Rename(tmp, path); err != nil {
			_ = os.Remove(tmp)
			return "", fmt.Errorf("finalize media file: %w", err)
		}
	}

	return m.baseURL + "/" + name, nil
}

func extForMIME(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".bin"
}

package domain

import (
	"encoding/base64"
	"strings"
)

// PhotoKind tags the two shapes a photo payload arrives in.
type PhotoKind string

const (
	PhotoRemote PhotoKind = "remote"
	PhotoInline PhotoKind = "inline"
)

// PhotoRef is the normalised photo representation. Clients send either an
// already-durable URL or an inlined data blob; everything is converted to
// this form at the API boundary before it reaches the store.
type PhotoRef struct {
	Kind  PhotoKind
	URL   string
	MIME  string
	Bytes []byte
}

// ParsePhotoRef normalises one raw photo payload. A data URI becomes an
// inline ref with decoded bytes; anything else is treated as a remote
// reference and passed through untouched.
func ParsePhotoRef(raw string) (PhotoRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PhotoRef{}, ErrInvalidParams
	}

	if !strings.HasPrefix(raw, "data:") {
		return PhotoRef{Kind: PhotoRemote, URL: raw}, nil
	}

	mime := "application/octet-stream"
	payload := raw[len("data:"):]
	if i := strings.Index(payload, ","); i >= 0 {
		header := payload[:i]
		payload = payload[i+1:]
		header = strings.TrimSuffix(header, ";base64")
		if header != "" {
			mime = header
		}
	}

	bytes, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return PhotoRef{}, ErrInvalidParams
	}
	return PhotoRef{Kind: PhotoInline, MIME: mime, Bytes: bytes}, nil
}

// CapPhotos keeps at most MaxComparePhotos entries, preferring the most
// recent ones.
func CapPhotos(photos []string) []string {
	if len(photos) <= MaxComparePhotos {
		return photos
	}
	return photos[len(photos)-MaxComparePhotos:]
}

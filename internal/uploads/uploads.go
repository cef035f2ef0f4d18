// Package uploads issues time-limited write URLs for figure assets.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Kind is the logical asset being uploaded.
type Kind string

// Asset kinds.
const (
	KindThumbnail Kind = "thumbnail"
	KindPortrait  Kind = "portrait"
)

// DefaultExpiry is how long a presigned URL stays valid.
const DefaultExpiry = 5 * time.Minute

// Presigner signs a PUT for one object.
type Presigner interface {
	PresignPut(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error)
}

// Request is an upload request.
type Request struct {
	Type        Kind   `json:"type"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// Validate checks the request fields.
func (r *Request) Validate() error {
	switch {
	case r.Type != KindThumbnail && r.Type != KindPortrait:
		return &RequestError{Field: "type", Message: `must be "thumbnail" or "portrait"`}
	case strings.TrimSpace(r.Filename) == "":
		return &RequestError{Field: "filename", Message: "filename is required"}
	case strings.TrimSpace(r.ContentType) == "":
		return &RequestError{Field: "contentType", Message: "contentType is required"}
	}
	return nil
}

// RequestError indicates an invalid upload request.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid upload request: %s - %s", e.Field, e.Message)
}

// Target is a resolved bucket and key.
type Target struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Upload is a presigned upload.
type Upload struct {
	URL       string `json:"url"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// Config names the destination buckets.
type Config struct {
	ThumbnailBucket string
	ArtifactsBucket string
	PortraitPrefix  string
	Expiry          time.Duration
}

// Service resolves upload targets and presigns them.
type Service struct {
	presigner Presigner
	cfg       Config
	logger    *slog.Logger
}

// NewService creates a Service. A zero expiry selects DefaultExpiry.
func NewService(presigner Presigner, cfg Config, logger *slog.Logger) (*Service, error) {
	if presigner == nil {
		return nil, errors.New("presigner is required")
	}
	if cfg.ThumbnailBucket == "" || cfg.ArtifactsBucket == "" {
		return nil, errors.New("thumbnail and artifacts buckets are required")
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{presigner: presigner, cfg: cfg, logger: logger}, nil
}

// ResolveTarget maps a request to its bucket and key. Thumbnails are keyed by
// filename in the thumbnail bucket; portraits live under the portrait prefix
// in the artifacts bucket, and a filename already carrying the prefix is not
// prefixed twice.
func (c Config) ResolveTarget(kind Kind, filename string) Target {
	if kind == KindThumbnail {
		return Target{Bucket: c.ThumbnailBucket, Key: filename}
	}

	prefix := c.PortraitPrefix
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return Target{
		Bucket: c.ArtifactsBucket,
		Key:    prefix + strings.TrimPrefix(filename, prefix),
	}
}

// Presign validates req and returns a write URL for it.
func (s *Service) Presign(ctx context.Context, req *Request) (*Upload, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	target := s.cfg.ResolveTarget(req.Type, req.Filename)
	url, err := s.presigner.PresignPut(ctx, target.Bucket, target.Key, req.ContentType, s.cfg.Expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign %s/%s: %w", target.Bucket, target.Key, err)
	}

	s.logger.Info("presigned upload", "bucket", target.Bucket, "key", target.Key, "type", req.Type)
	return &Upload{
		URL:       url,
		Bucket:    target.Bucket,
		Key:       target.Key,
		ExpiresIn: int(s.cfg.Expiry / time.Second),
	}, nil
}

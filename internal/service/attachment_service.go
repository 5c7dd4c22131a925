package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/realtime"
	"github.com/noah-isme/maintenance-api/internal/repository"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
	"github.com/noah-isme/maintenance-api/pkg/storage"
)

type fileStore interface {
	SaveStream(name string, r io.Reader) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

// AttachmentConfig bounds uploads.
type AttachmentConfig struct {
	APIPrefix    string
	MaxFileSize  int64
	AllowedMIMEs []string
}

// Upload describes one incoming file.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// AttachmentLink is a time-limited download URL.
type AttachmentLink struct {
	URL       string    `json:"url"`
	FileName  string    `json:"fileName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AttachmentService stores request attachments on disk and hands out signed
// download links.
type AttachmentService struct {
	requests repository.RequestStore
	files    fileStore
	signer   *storage.SignedURLSigner
	events   realtime.Publisher
	cfg      AttachmentConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttachmentService constructs an AttachmentService.
func NewAttachmentService(requests repository.RequestStore, files fileStore, signer *storage.SignedURLSigner, events realtime.Publisher, cfg AttachmentConfig, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = realtime.Discard{}
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	return &AttachmentService{requests: requests, files: files, signer: signer, events: events, cfg: cfg, logger: logger, now: time.Now}
}

// Upload stores the file and appends it to the request's attachment list.
func (s *AttachmentService) Upload(ctx context.Context, requestID string, up Upload) (*models.MaintenanceRequest, error) {
	name := filepath.Base(strings.TrimSpace(up.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, appErrors.Validation("file name is required")
	}
	if !s.allowed(up.ContentType) {
		return nil, appErrors.Validation(fmt.Sprintf("content type %q is not allowed", up.ContentType))
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, storeErr(err, "request")
	}

	rel := path.Join("requests", req.ID, uuid.NewString()+strings.ToLower(filepath.Ext(name)))
	written, err := s.files.SaveStream(rel, io.LimitReader(up.Body, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, appErrors.Internal(err)
	}
	if written > s.cfg.MaxFileSize {
		s.discard(rel)
		return nil, appErrors.Validation(fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}

	req.Attachments = append(req.Attachments, models.Attachment{URL: rel, FileName: name, UploadedAt: s.now().UTC()})
	if err := s.requests.Update(ctx, req); err != nil {
		s.discard(rel)
		return nil, storeErr(err, "request")
	}
	s.events.Publish(realtime.Event{Type: realtime.RequestUpdated, Payload: req, Timestamp: s.now().UTC()})
	s.logger.Info("attachment stored", zap.String("request_id", req.ID), zap.String("path", rel), zap.Int64("bytes", written))
	return req, nil
}

// Link signs a download URL for the attachment at index.
func (s *AttachmentService) Link(ctx context.Context, requestID string, index int) (*AttachmentLink, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, storeErr(err, "request")
	}
	if index < 0 || index >= len(req.Attachments) {
		return nil, notFound("attachment")
	}
	att := req.Attachments[index]
	token, expires, err := s.signer.Sign(req.ID, att.URL)
	if err != nil {
		return nil, appErrors.Internal(err)
	}
	return &AttachmentLink{
		URL:       fmt.Sprintf("%s/files/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		FileName:  att.FileName,
		ExpiresAt: expires,
	}, nil
}

// Resolve verifies a download token and opens the file it grants.
func (s *AttachmentService) Resolve(token string) (*os.File, string, error) {
	grant, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	file, err := s.files.Open(grant.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", notFound("file")
		}
		return nil, "", appErrors.Internal(err)
	}
	return file, path.Base(grant.Path), nil
}

func (s *AttachmentService) allowed(contentType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	media, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, media) {
			return true
		}
	}
	return false
}

func (s *AttachmentService) discard(rel string) {
	if err := s.files.Delete(rel); err != nil {
		s.logger.Warn("failed to remove attachment", zap.String("path", rel), zap.Error(err))
	}
}

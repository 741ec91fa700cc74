package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// UploadService stores uploaded files on local disk and returns attachment
// tuples the ticket service appends verbatim. File contents are never
// inspected.
type UploadService struct {
	cfg    config.UploadConfig
	logger *zap.Logger
}

// NewUploadService constructs the service.
func NewUploadService(cfg config.UploadConfig, logger *zap.Logger) *UploadService {
	return &UploadService{cfg: cfg, logger: logger}
}

// Save writes each file under the configured path with a generated name and
// returns the resulting attachment metadata.
func (s *UploadService) Save(files []*multipart.FileHeader) ([]domain.Attachment, error) {
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("no files uploaded")
	}

	if err := os.MkdirAll(s.cfg.Path, 0o755); err != nil {
		return nil, err
	}

	attachments := make([]domain.Attachment, 0, len(files))
	for _, header := range files {
		if s.cfg.MaxSizeBytes > 0 && header.Size > s.cfg.MaxSizeBytes {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("file %s exceeds the maximum size", header.Filename))
		}

		storedName := uuid.NewString() + filepath.Ext(header.Filename)
		if err := s.writeFile(header, storedName); err != nil {
			return nil, err
		}

		attachments = append(attachments, domain.Attachment{
			Name:       header.Filename,
			URL:        s.cfg.PublicPrefix + "/" + storedName,
			Size:       header.Size,
			MimeType:   header.Header.Get("Content-Type"),
			UploadedAt: time.Now(),
		})
	}

	s.logger.Info("files uploaded", zap.Int("count", len(attachments)))
	return attachments, nil
}

// Delete removes a stored file by its stored name.
func (s *UploadService) Delete(filename string) error {
	// Base strips any path traversal from the caller-supplied name.
	path := filepath.Join(s.cfg.Path, filepath.Base(filename))

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewNotFound("file")
		}
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}

	s.logger.Info("file deleted", zap.String("file", filename))
	return nil
}

func (s *UploadService) writeFile(header *multipart.FileHeader, storedName string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.cfg.Path, storedName))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

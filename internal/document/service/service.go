// Package service manages project documents: notes and briefs stored as records, with an
// optional file attachment kept in object storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/tuma-app/tuma/backend/internal/crud"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/storage"
	"github.com/tuma-app/tuma/backend/internal/store"
	"github.com/tuma-app/tuma/backend/pkg/logger"
)

const (
	// DownloadURLTTL is how long a presigned download link stays valid.
	DownloadURLTTL = 15 * time.Minute
	// MaxFileSize bounds uploads.
	MaxFileSize = 25 << 20
)

var ErrStorageUnavailable = &domain.UnavailableError{Message: "file storage is not configured"}

type Service struct {
	*crud.Service[*models.ProjectDocument]
	files    storage.FileStore
	missions store.Repository[*models.Mission]
	clients  store.Repository[*models.Client]
}

// New builds the service; files may be nil when object storage is not configured.
func New(
	docs store.Repository[*models.ProjectDocument],
	missions store.Repository[*models.Mission],
	clients store.Repository[*models.Client],
	files storage.FileStore,
) *Service {
	s := &Service{files: files, missions: missions, clients: clients}
	s.Service = crud.NewService(docs, "document", func() *models.ProjectDocument { return &models.ProjectDocument{} }, crud.Hooks[*models.ProjectDocument]{
		Protected: []string{"fileKey", "fileName", "contentType", "size"},
		BeforeCreate: func(ctx context.Context, owner string, d *models.ProjectDocument) error {
			d.FileKey, d.FileName, d.ContentType, d.Size = "", "", "", 0
			return s.checkLinks(ctx, owner, d)
		},
		BeforeUpdate: func(ctx context.Context, prev, next *models.ProjectDocument, _ crud.Patch) error {
			if next.MissionID == prev.MissionID && next.ClientID == prev.ClientID {
				return nil
			}
			return s.checkLinks(ctx, next.UserID, next)
		},
	})
	return s
}

// FilesEnabled reports whether uploads are possible.
func (s *Service) FilesEnabled() bool { return s.files != nil }

func (s *Service) checkLinks(ctx context.Context, owner string, d *models.ProjectDocument) error {
	if d.MissionID != "" && s.missions != nil {
		if _, err := s.missions.Get(ctx, owner, d.MissionID); err != nil {
			return linkError(err, "missionId", "mission")
		}
	}
	if d.ClientID != "" && s.clients != nil {
		if _, err := s.clients.Get(ctx, owner, d.ClientID); err != nil {
			return linkError(err, "clientId", "client")
		}
	}
	return nil
}

func linkError(err error, field, what string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.ValidationError{Message: "unknown " + what, Fields: map[string]string{field: what + " not found"}}
	}
	return err
}

// Upload is a file received for a document.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Attach stores the file and records it on the document, replacing any previous file.
func (s *Service) Attach(ctx context.Context, owner, id string, up Upload) (*models.ProjectDocument, error) {
	if s.files == nil {
		return nil, ErrStorageUnavailable
	}
	if up.Size <= 0 {
		return nil, domain.Invalid("empty file")
	}
	if up.Size > MaxFileSize {
		return nil, domain.Invalid(fmt.Sprintf("file exceeds %d MB", MaxFileSize>>20))
	}
	d, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	name := path.Base(strings.ReplaceAll(up.Name, "\\", "/"))
	if name == "." || name == "/" {
		name = "file"
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("%s/%s/%d-%s", owner, d.ID, s.Now().UnixNano(), name)
	if err := s.files.Put(ctx, key, up.Body, up.Size, contentType); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}
	old := d.FileKey
	d.FileKey, d.FileName, d.ContentType, d.Size = key, name, contentType, up.Size
	if d.Type == "note" {
		d.Type = "file"
	}
	if err := s.Save(ctx, d); err != nil {
		_ = s.files.Delete(ctx, key)
		return nil, err
	}
	if old != "" {
		if err := s.files.Delete(ctx, old); err != nil {
			logger.With("documentId", d.ID).Warnw("could not delete replaced file", "key", old, "error", err)
		}
	}
	return d, nil
}

// DownloadURL returns a presigned link to the document's file.
func (s *Service) DownloadURL(ctx context.Context, owner, id string) (string, time.Time, error) {
	if s.files == nil {
		return "", time.Time{}, ErrStorageUnavailable
	}
	d, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if d.FileKey == "" {
		return "", time.Time{}, domain.NotFound("file")
	}
	u, err := s.files.PresignedURL(ctx, d.FileKey, DownloadURLTTL, d.FileName)
	if err != nil {
		return "", time.Time{}, err
	}
	return u, s.Now().Add(DownloadURLTTL), nil
}

// Delete removes the document and, best effort, its file.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	d, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	if d.FileKey != "" && s.files != nil {
		if err := s.files.Delete(ctx, d.FileKey); err != nil {
			logger.With("documentId", id).Warnw("could not delete file", "key", d.FileKey, "error", err)
		}
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/solicitudes-service/internal/domain"
	"github.com/spec-kit/solicitudes-service/internal/storage"
	"github.com/spec-kit/solicitudes-service/internal/workflow"
	apperrors "github.com/spec-kit/solicitudes-service/pkg/util/errorutil"
)

// FileStore keeps attachment contents.
type FileStore interface {
	Save(ctx context.Context, requestID, fileName string, r io.Reader) (string, int64, error)
	Open(key string) (io.ReadCloser, error)
	Remove(key string) error
	MaxSize() int64
}

// AttachmentInput describes one uploaded file.
type AttachmentInput struct {
	FileName string
	MimeType string
	Size     int64
	Content  io.Reader
}

// AddAttachment stores a file for a request and reports it as a change. A
// closed request accepts no attachments. When the request update fails the
// stored file and its metadata are discarded.
func (s *RequestService) AddAttachment(ctx context.Context, admin *domain.Admin, id string, input AttachmentInput, notifyRequester bool) (*domain.Attachment, error) {
	if s.files == nil || s.attachments == nil {
		return nil, apperrors.NewInternalError(errors.New("attachment storage not configured"))
	}
	current, err := s.loadForAdmin(ctx, admin, id)
	if err != nil {
		return nil, err
	}
	if workflow.IsTerminal(current.State) {
		return nil, s.rejection(current, workflow.ErrRequestClosed)
	}
	limit := s.files.MaxSize()
	if input.Size > limit {
		return nil, tooLarge(input.FileName, limit)
	}
	cmd := workflow.UpdateCommand{Attachments: []string{input.FileName}}
	if _, err := s.engine.PlanUpdate(*current, cmd, admin.Name, s.now()); err != nil {
		return nil, s.rejection(current, err)
	}

	key, size, err := s.files.Save(ctx, current.ID, input.FileName, input.Content)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, tooLarge(input.FileName, limit)
		}
		return nil, err
	}

	mime := strings.TrimSpace(input.MimeType)
	if mime == "" {
		mime = "application/octet-stream"
	}
	attachment := &domain.Attachment{
		RequestID:  current.ID,
		StorageKey: key,
		FileName:   input.FileName,
		MimeType:   mime,
		SizeBytes:  size,
		UploadedBy: admin.Name,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		s.discardFile(key)
		return nil, err
	}

	if _, err := s.apply(ctx, admin, current, cmd, notifyRequester, false); err != nil {
		if delErr := s.attachments.Delete(context.WithoutCancel(ctx), attachment.ID); delErr != nil {
			s.logger.Warn("attachment metadata cleanup failed",
				zap.String("request_id", current.ID),
				zap.String("attachment_id", attachment.ID),
				zap.Error(delErr))
		}
		s.discardFile(key)
		return nil, err
	}
	s.logger.Info("attachment stored",
		zap.String("request_id", current.ID),
		zap.String("file", attachment.FileName),
		zap.Int64("size_bytes", size))
	return attachment, nil
}

func (s *RequestService) discardFile(key string) {
	if err := s.files.Remove(key); err != nil {
		s.logger.Warn("attachment file cleanup failed", zap.String("key", key), zap.Error(err))
	}
}

// OpenAttachment returns the metadata and content of one attachment of a
// request the admin manages. The caller closes the reader.
func (s *RequestService) OpenAttachment(ctx context.Context, admin *domain.Admin, id, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	if s.files == nil || s.attachments == nil {
		return nil, nil, apperrors.NewInternalError(errors.New("attachment storage not configured"))
	}
	current, err := s.loadForAdmin(ctx, admin, id)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.attachments.ListByRequest(ctx, current.ID)
	if err != nil {
		return nil, nil, err
	}
	for i := range list {
		if list[i].ID != attachmentID {
			continue
		}
		rc, err := s.files.Open(list[i].StorageKey)
		if err != nil {
			return nil, nil, err
		}
		return &list[i], rc, nil
	}
	return nil, nil, apperrors.NewNotFound("attachment", map[string]any{"request_id": current.ID, "attachment_id": attachmentID})
}

func tooLarge(name string, limit int64) error {
	return apperrors.NewPayloadTooLarge("attachment exceeds size limit", map[string]any{
		"file":      name,
		"max_bytes": limit,
	})
}

package trade

import (
	"context"
	"mime"
	"strings"
	"time"

	"github.com/Z3RO333/formularios/internal/application/uow"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AllowedContentTypes is the whitelist of document types accepted for upload.
// SVG is excluded since it can carry scripts.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/tiff":      true,
	"application/xml": true,
	"text/xml":        true,
	"text/plain":      true,
	"text/csv":        true,
	"application/vnd.ms-excel":                                          true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/msword":                                                true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/octet-stream": true,
}

// ObjectStorageService stores attachment bytes. Implemented by the
// infrastructure layer (S3 or in-memory).
type ObjectStorageService interface {
	// Upload stores data under storageKey
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error

	// GenerateDownloadURL returns a time-limited URL for the object and its expiry
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error
}

// AttachmentServiceConfig holds configuration for the attachment service
type AttachmentServiceConfig struct {
	// DownloadURLExpiry is the duration for which download URLs are valid
	DownloadURLExpiry time.Duration
}

// DefaultAttachmentServiceConfig returns the default configuration
func DefaultAttachmentServiceConfig() AttachmentServiceConfig {
	return AttachmentServiceConfig{
		DownloadURLExpiry: 1 * time.Hour,
	}
}

// UploadInput is one document upload
type UploadInput struct {
	OrderID     uuid.UUID
	DocType     string
	Competence  string
	FileName    string
	ContentType string
	Data        []byte
	UploadedBy  uuid.UUID
}

// AttachmentService stores supporting documents for orders
type AttachmentService struct {
	scope   uow.TransactionScope
	storage ObjectStorageService
	config  AttachmentServiceConfig
	logger  *zap.Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(scope uow.TransactionScope, storage ObjectStorageService, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		scope:   scope,
		storage: storage,
		config:  DefaultAttachmentServiceConfig(),
		logger:  logger,
	}
}

// SetConfig sets the service configuration
func (s *AttachmentService) SetConfig(config AttachmentServiceConfig) {
	if config.DownloadURLExpiry <= 0 {
		config.DownloadURLExpiry = DefaultAttachmentServiceConfig().DownloadURLExpiry
	}
	s.config = config
}

// Upload stores the bytes and records the metadata. The supplier reference is
// copied from the order so that merges redirect it along with the order.
func (s *AttachmentService) Upload(ctx context.Context, in UploadInput) (*AttachmentResponse, error) {
	contentType := normalizeContentType(in.ContentType)
	if !AllowedContentTypes[contentType] {
		return nil, shared.NewValidationError(shared.FieldError{Field: "content_type", Message: "file type is not allowed: " + contentType})
	}

	var attachment *trade.Attachment
	err := s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, in.OrderID)
		if err != nil {
			return err
		}

		attachment, err = trade.NewAttachment(order, trade.DocumentType(strings.ToUpper(strings.TrimSpace(in.DocType))),
			in.Competence, in.FileName, contentType, int64(len(in.Data)), in.UploadedBy)
		if err != nil {
			return err
		}

		if err := s.storage.Upload(ctx, attachment.StorageKey, in.Data, attachment.ContentType); err != nil {
			s.logger.Error("Failed to store attachment",
				zap.String("storage_key", attachment.StorageKey),
				zap.Error(err))
			return shared.NewStorageError(err)
		}

		if err := repos.Attachments().Create(ctx, attachment); err != nil {
			s.removeOrphan(ctx, attachment.StorageKey)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attachment stored",
		zap.String("attachment_id", attachment.ID.String()),
		zap.String("order_id", attachment.OrderID.String()),
		zap.String("doc_type", string(attachment.DocType)),
		zap.Int64("size", attachment.Size))

	response := ToAttachmentResponse(attachment)
	return &response, nil
}

// List returns the attachments of an order, oldest first
func (s *AttachmentService) List(ctx context.Context, orderID uuid.UUID) ([]AttachmentResponse, error) {
	var attachments []trade.Attachment
	err := uow.ReadWithRetry(ctx, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
			if _, err := repos.Orders().FindByID(ctx, orderID); err != nil {
				return err
			}
			var err error
			attachments, err = repos.Attachments().ListByOrder(ctx, orderID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return ToAttachmentResponses(attachments), nil
}

// Download returns a time-limited URL for an attachment
func (s *AttachmentService) Download(ctx context.Context, id uuid.UUID) (*DownloadResponse, error) {
	var attachment *trade.Attachment
	err := uow.ReadWithRetry(ctx, func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos uow.TransactionalRepositories) error {
			var err error
			attachment, err = repos.Attachments().FindByID(ctx, id)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, attachment.StorageKey, s.config.DownloadURLExpiry)
	if err != nil {
		s.logger.Error("Failed to generate download URL",
			zap.String("attachment_id", id.String()),
			zap.Error(err))
		return nil, shared.NewStorageError(err)
	}
	return &DownloadResponse{
		URL:       url,
		ExpiresAt: expiresAt,
		FileName:  attachment.FileName,
	}, nil
}

func (s *AttachmentService) removeOrphan(ctx context.Context, storageKey string) {
	if err := s.storage.DeleteObject(ctx, storageKey); err != nil {
		s.logger.Warn("Failed to remove orphaned attachment object",
			zap.String("storage_key", storageKey),
			zap.Error(err))
	}
}

func normalizeContentType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return "application/octet-stream"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return mediaType
}

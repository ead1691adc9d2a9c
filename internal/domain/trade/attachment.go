package trade

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentType classifies a supporting document
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "NOTA_FISCAL"
	DocumentTypeReceipt DocumentType = "COMPROVANTE_PAGAMENTO"
	DocumentTypeQuote   DocumentType = "ORCAMENTO"
	DocumentTypeOther   DocumentType = "OUTRO"
)

// IsValid checks if the document type is known
func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentTypeInvoice, DocumentTypeReceipt, DocumentTypeQuote, DocumentTypeOther:
		return true
	}
	return false
}

// MaxAttachmentSize is the largest accepted document, in bytes
const MaxAttachmentSize = 10 << 20

// Attachment is the metadata of a document stored for an order. The
// supplier reference follows supplier merges.
type Attachment struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	SupplierID  *uuid.UUID
	DocType     DocumentType
	Competence  string
	FileName    string
	ContentType string
	Size        int64
	StorageKey  string
	UploadedBy  uuid.UUID
	CreatedAt   time.Time
}

// NewAttachment validates the upload and derives the storage key. An empty
// competence defaults to the order's.
func NewAttachment(order *PurchaseOrder, docType DocumentType, competence, fileName, contentType string, size int64, uploadedBy uuid.UUID) (*Attachment, error) {
	var errs shared.FieldErrors
	if !docType.IsValid() {
		errs.Add("doc_type", "must be one of NOTA_FISCAL, COMPROVANTE_PAGAMENTO, ORCAMENTO, OUTRO")
	}
	competence = strings.TrimSpace(competence)
	if competence == "" {
		competence = order.Competence
	}
	if !IsValidCompetence(competence) {
		errs.Add("competence", "must use the YYYY-MM format")
	}
	fileName = path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if fileName == "" || fileName == "." || fileName == "/" {
		errs.Add("file_name", "is required")
	}
	if size <= 0 {
		errs.Add("file", "is empty")
	} else if size > MaxAttachmentSize {
		errs.Add("file", fmt.Sprintf("cannot exceed %d bytes", MaxAttachmentSize))
	}
	if uploadedBy == uuid.Nil {
		errs.Add("uploaded_by", "is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	a := &Attachment{
		ID:          uuid.New(),
		OrderID:     order.ID,
		DocType:     docType,
		Competence:  competence,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if order.SupplierID != nil {
		sid := *order.SupplierID
		a.SupplierID = &sid
	}
	a.StorageKey = fmt.Sprintf("orders/%s/%s/%s", order.ID, a.ID, fileName)
	return a, nil
}

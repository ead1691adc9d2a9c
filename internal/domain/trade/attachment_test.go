package trade

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttachment(t *testing.T) {
	uploader := uuid.New()

	t.Run("copies supplier and competence from the order", func(t *testing.T) {
		order := createTestOrder(t)
		supplierID := uuid.New()
		order.SupplierID = &supplierID

		a, err := NewAttachment(order, DocumentTypeInvoice, "", `C:\docs\nf-123.pdf`, "application/pdf", 2048, uploader)
		require.NoError(t, err)

		assert.Equal(t, order.ID, a.OrderID)
		assert.Equal(t, &supplierID, a.SupplierID)
		assert.Equal(t, order.Competence, a.Competence)
		assert.Equal(t, "nf-123.pdf", a.FileName)
		assert.True(t, strings.HasPrefix(a.StorageKey, "orders/"+order.ID.String()+"/"))
		assert.True(t, strings.HasSuffix(a.StorageKey, "/nf-123.pdf"))
	})

	t.Run("defaults content type", func(t *testing.T) {
		a, err := NewAttachment(createTestOrder(t), DocumentTypeOther, "2024-12", "x.bin", "", 1, uploader)
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", a.ContentType)
		assert.Nil(t, a.SupplierID)
	})

	t.Run("lists every invalid field", func(t *testing.T) {
		_, err := NewAttachment(createTestOrder(t), DocumentType("BOLETO"), "12/2024", "", "", 0, uuid.Nil)
		assert.ElementsMatch(t, []string{"doc_type", "competence", "file_name", "file", "uploaded_by"}, fieldNames(t, err))
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		_, err := NewAttachment(createTestOrder(t), DocumentTypeQuote, "", "big.pdf", "", MaxAttachmentSize+1, uploader)
		assert.Equal(t, []string{"file"}, fieldNames(t, err))
	})
}

package trade

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/Z3RO333/formularios/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAttachmentService(f *orderFixture) (*AttachmentService, *memoryStorage) {
	storage := newMemoryStorage()
	return NewAttachmentService(f.scope, storage, zap.NewNop()), storage
}

func pdfUpload(orderID uuid.UUID) UploadInput {
	return UploadInput{
		OrderID:     orderID,
		DocType:     "nota_fiscal",
		FileName:    "NF-0001.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 test"),
		UploadedBy:  uuid.New(),
	}
}

func TestAttachmentService_Upload(t *testing.T) {
	f := newOrderFixture(t)
	svc, storage := newTestAttachmentService(f)
	order := f.create(t)

	resp, err := svc.Upload(context.Background(), pdfUpload(order.ID))
	require.NoError(t, err)

	assert.Equal(t, order.ID, resp.OrderID)
	assert.Equal(t, string(trade.DocumentTypeInvoice), resp.DocType)
	assert.Equal(t, order.Competence, resp.Competence)
	require.NotNil(t, resp.SupplierID)
	assert.Equal(t, *order.SupplierID, *resp.SupplierID)
	assert.Equal(t, int64(len("%PDF-1.4 test")), resp.Size)
	assert.True(t, storage.has("orders/"+order.ID.String()+"/"+resp.ID.String()+"/NF-0001.pdf"))

	listed, err := svc.List(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, resp.ID, listed[0].ID)

	stored := f.load(t, order.ID)
	require.Len(t, stored.Attachments, 1)
}

func TestAttachmentService_UploadValidation(t *testing.T) {
	f := newOrderFixture(t)
	svc, storage := newTestAttachmentService(f)
	order := f.create(t)
	ctx := context.Background()

	in := pdfUpload(order.ID)
	in.DocType = "BOLETO"
	in.Competence = "03/2025"
	_, err := svc.Upload(ctx, in)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, []string{"doc_type", "competence"}, fieldsOf(t, err))

	in = pdfUpload(order.ID)
	in.ContentType = "image/svg+xml"
	_, err = svc.Upload(ctx, in)
	assert.ErrorIs(t, err, shared.ErrValidation)

	in = pdfUpload(order.ID)
	in.Data = []byte(strings.Repeat("x", trade.MaxAttachmentSize+1))
	_, err = svc.Upload(ctx, in)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Upload(ctx, pdfUpload(uuid.New()))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Zero(t, storage.count())
}

func TestAttachmentService_UploadContentTypeParameters(t *testing.T) {
	f := newOrderFixture(t)
	svc, _ := newTestAttachmentService(f)
	order := f.create(t)

	in := pdfUpload(order.ID)
	in.FileName = "itens.csv"
	in.ContentType = "text/csv; charset=utf-8"
	in.DocType = string(trade.DocumentTypeOther)
	in.Competence = "2025-02"
	resp, err := svc.Upload(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", resp.ContentType)
	assert.Equal(t, "2025-02", resp.Competence)
}

func TestAttachmentService_StorageFailure(t *testing.T) {
	f := newOrderFixture(t)
	svc, storage := newTestAttachmentService(f)
	order := f.create(t)
	storage.uploadErr = errors.New("bucket unreachable")

	_, err := svc.Upload(context.Background(), pdfUpload(order.ID))
	assert.ErrorIs(t, err, shared.ErrStorage)

	listed, err := svc.List(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestAttachmentService_MetadataFailureRemovesObject(t *testing.T) {
	f := newOrderFixture(t)
	svc, storage := newTestAttachmentService(f)
	order := f.create(t)

	remove := testutil.FailOnCreate(t, f.db, "order_attachments", errors.New("io error"))
	_, err := svc.Upload(context.Background(), pdfUpload(order.ID))
	remove()
	assert.ErrorIs(t, err, shared.ErrStorage)
	assert.Zero(t, storage.count())
}

func TestAttachmentService_Download(t *testing.T) {
	f := newOrderFixture(t)
	svc, storage := newTestAttachmentService(f)
	svc.SetConfig(AttachmentServiceConfig{DownloadURLExpiry: 10 * time.Minute})
	order := f.create(t)
	ctx := context.Background()

	uploaded, err := svc.Upload(ctx, pdfUpload(order.ID))
	require.NoError(t, err)

	dl, err := svc.Download(ctx, uploaded.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dl.URL, "memory://orders/"))
	assert.Equal(t, "NF-0001.pdf", dl.FileName)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), dl.ExpiresAt, time.Minute)

	_, err = svc.Download(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	storage.urlErr = errors.New("signer broken")
	_, err = svc.Download(ctx, uploaded.ID)
	assert.ErrorIs(t, err, shared.ErrStorage)
}

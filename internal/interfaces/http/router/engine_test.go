package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	partnerapp "github.com/Z3RO333/formularios/internal/application/partner"
	tradeapp "github.com/Z3RO333/formularios/internal/application/trade"
	"github.com/Z3RO333/formularios/internal/infrastructure/persistence"
	"github.com/Z3RO333/formularios/internal/infrastructure/storage"
	"github.com/Z3RO333/formularios/internal/interfaces/http/handler"
	"github.com/Z3RO333/formularios/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
		Details   []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
		Page  int   `json:"page"`
	} `json:"meta"`
}

type apiFixture struct {
	engine *gin.Engine
	user   uuid.UUID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	log := zap.NewNop()
	scope := persistence.NewGormTransactionScope(db)
	resolver := partnerapp.NewSupplierResolver(scope, partnerapp.DefaultResolverConfig(), log)
	merger := partnerapp.NewSupplierMerger(scope, 0.8, log)
	orders := tradeapp.NewOrderService(scope, resolver, log)
	lifecycle := tradeapp.NewLifecycleService(scope, log)
	attachments := tradeapp.NewAttachmentService(scope, storage.NewMemoryObjectStorage(""), log)

	engine, err := New(Config{
		ServiceName: "formularios-test",
		MaxBodySize: 1 << 20,
	}, Handlers{
		Orders:      handler.NewPurchaseOrderHandler(orders, lifecycle),
		Attachments: handler.NewAttachmentHandler(attachments),
		Suppliers:   handler.NewSupplierHandler(partnerapp.NewSupplierService(persistence.NewGormSupplierRepository(db)), resolver, merger),
		Health:      handler.NewHealthHandler(sqlDB, "test"),
	}, log)
	require.NoError(t, err)

	return &apiFixture{engine: engine, user: uuid.New()}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", f.user.String())
	return f.serve(t, req)
}

func (f *apiFixture) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func orderBody() map[string]any {
	return map[string]any{
		"department":    "Financeiro",
		"location":      "Matriz",
		"kind":          "Material de escritório",
		"description":   "Reposição de papel",
		"justification": "Estoque abaixo do mínimo",
		"priority":      "alta",
		"supplier": map[string]any{
			"name":   "Papelaria Central Ltda",
			"tax_id": "11.222.333/0001-81",
		},
		"items": []map[string]any{
			{"description": "Resma papel A4", "quantity": "10", "unit": "CX", "estimated_unit_price": "25.50"},
			{"description": "Caneta azul", "quantity": 50},
		},
	}
}

func (f *apiFixture) createOrder(t *testing.T) tradeapp.OrderResponse {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/api/v1/orders", orderBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order tradeapp.OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &order))
	return order
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.serve(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"database":"ok"`)
}

func TestIdentityRequired(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.serve(t, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("X-User-ID", "not-a-uuid")
	w, _ = f.serve(t, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	req.Header.Set("X-User-ID", f.user.String())
	req.Header.Set("X-Request-ID", "req-123")
	w, env := f.serve(t, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	require.NotNil(t, env.Error)
	assert.Equal(t, "req-123", env.Error.RequestID)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	order := f.createOrder(t)

	assert.Equal(t, "PENDING_APPROVAL", order.Status)
	assert.Equal(t, "HIGH", order.Priority)
	require.NotNil(t, order.SupplierID)
	assert.Len(t, order.Items, 2)

	w, env := f.do(t, http.MethodGet, "/api/v1/orders?status=PENDING_APPROVAL", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/approve", map[string]string{"note": "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var approved tradeapp.OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &approved))
	assert.Equal(t, "APPROVED", approved.Status)
	require.NotNil(t, approved.DecidedBy)
	assert.Equal(t, f.user, *approved.DecidedBy)

	w, env = f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/approve", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	w, env = f.do(t, http.MethodGet, "/api/v1/orders/"+order.ID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []tradeapp.HistoryEntryResponse
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)
	assert.Nil(t, history[0].PreviousStatus)
	assert.Equal(t, "APPROVED", history[1].NewStatus)
}

func TestRejectRequiresReason(t *testing.T) {
	f := newAPIFixture(t)
	order := f.createOrder(t)

	w, env := f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/reject", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	require.NotEmpty(t, env.Error.Details)
	assert.Equal(t, "reason", env.Error.Details[0].Field)

	w, env = f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/reject", map[string]string{"reason": "sem orçamento"})
	require.Equal(t, http.StatusOK, w.Code)
	var rejected tradeapp.OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &rejected))
	assert.Equal(t, "REJECTED", rejected.Status)
	assert.Equal(t, "sem orçamento", rejected.RejectionReason)
}

func TestUpdateOrder(t *testing.T) {
	f := newAPIFixture(t)
	order := f.createOrder(t)

	body := orderBody()
	body["items"] = []map[string]any{
		{"id": order.Items[0].ID, "description": "Resma papel A4", "quantity": "12", "unit": "CX"},
	}
	w, env := f.do(t, http.MethodPut, "/api/v1/orders/"+order.ID.String(), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated tradeapp.OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	require.Len(t, updated.Items, 1)
	assert.Equal(t, order.Items[0].ID, updated.Items[0].ID)
	assert.Equal(t, "12", updated.Items[0].Quantity.String())
}

func TestOrderErrors(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("bad id", func(t *testing.T) {
		w, env := f.do(t, http.MethodGet, "/api/v1/orders/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "id", env.Error.Details[0].Field)
	})

	t.Run("missing order", func(t *testing.T) {
		w, env := f.do(t, http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})

	t.Run("no items", func(t *testing.T) {
		body := orderBody()
		body["items"] = []map[string]any{}
		w, env := f.do(t, http.MethodPost, "/api/v1/orders", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.NotEmpty(t, env.Error.Details)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", f.user.String())
		w, env := f.serve(t, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "body", env.Error.Details[0].Field)
	})

	t.Run("bad list filter", func(t *testing.T) {
		w, env := f.do(t, http.MethodGet, "/api/v1/orders?status=DRAFT", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "status", env.Error.Details[0].Field)
	})
}

func TestBodyLimit(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(make([]byte, 2<<20)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", f.user.String())
	w, env := f.serve(t, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "REQUEST_TOO_LARGE", env.Error.Code)
}

func TestAttachmentsOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	order := f.createOrder(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("doc_type", "orcamento"))
	require.NoError(t, mw.WriteField("competence", "2026-10"))
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="orcamento.pdf"`)
	hdr.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", f.user.String())
	w, env := f.serve(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var attachment tradeapp.AttachmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &attachment))
	assert.Equal(t, "ORCAMENTO", attachment.DocType)
	assert.Equal(t, "2026-10", attachment.Competence)
	assert.Equal(t, order.SupplierID, attachment.SupplierID)

	w, env = f.do(t, http.MethodGet, "/api/v1/orders/"+order.ID.String()+"/attachments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []tradeapp.AttachmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 1)

	w, env = f.do(t, http.MethodGet, "/api/v1/attachments/"+attachment.ID.String()+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var download tradeapp.DownloadResponse
	require.NoError(t, json.Unmarshal(env.Data, &download))
	assert.NotEmpty(t, download.URL)
	assert.Equal(t, "orcamento.pdf", download.FileName)
}

func TestUploadWithoutFile(t *testing.T) {
	f := newAPIFixture(t)
	order := f.createOrder(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("doc_type", "OUTRO"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", f.user.String())
	w, env := f.serve(t, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file", env.Error.Details[0].Field)
}

func TestImportPreview(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.do(t, http.MethodPost, "/api/v1/orders/import/preview", map[string]any{
		"tipo_documento": "orcamento",
		"fornecedor":     map[string]any{"nome": "  Papelaria   Central ", "cnpj": "11.222.333/0001-81"},
		"itens": []map[string]any{
			{"descricao": " Resma ", "quantidade": 2},
			{"descricao": "   "},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var preview tradeapp.ImportPreview
	require.NoError(t, json.Unmarshal(env.Data, &preview))
	assert.Equal(t, "Papelaria Central", preview.Supplier.Name)
	assert.Equal(t, "11222333000181", preview.Supplier.TaxID)
	require.Len(t, preview.Items, 1)
	assert.Equal(t, "UN", preview.Items[0].Unit)
	assert.Equal(t, 1, preview.Dropped)
}

func TestSupplierEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	resolve := func(name string) partnerapp.ResolveSupplierResponse {
		w, env := f.do(t, http.MethodPost, "/api/v1/suppliers/resolve", map[string]string{"name": name})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res partnerapp.ResolveSupplierResponse
		require.NoError(t, json.Unmarshal(env.Data, &res))
		return res
	}

	first := resolve("Acme Comércio Ltda")
	assert.Equal(t, "created", first.Kind)
	again := resolve("ACME COMERCIO LTDA")
	assert.Equal(t, first.Supplier.ID, again.Supplier.ID)
	other := resolve("Distribuidora Norte")
	assert.NotEqual(t, first.Supplier.ID, other.Supplier.ID)

	w, env := f.do(t, http.MethodGet, "/api/v1/suppliers/"+first.Supplier.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got partnerapp.SupplierResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Acme Comércio Ltda", got.CanonicalName)

	w, env = f.do(t, http.MethodPost, "/api/v1/suppliers/merge", map[string]string{
		"primary_id":   first.Supplier.ID.String(),
		"secondary_id": first.Supplier.ID.String(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "SELF_MERGE", env.Error.Code)

	w, _ = f.do(t, http.MethodPost, "/api/v1/suppliers/merge", map[string]string{
		"primary_id":   first.Supplier.ID.String(),
		"secondary_id": other.Supplier.ID.String(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = f.do(t, http.MethodGet, "/api/v1/suppliers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = f.do(t, http.MethodGet, "/api/v1/suppliers/"+other.Supplier.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = f.do(t, http.MethodGet, "/api/v1/suppliers/duplicates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

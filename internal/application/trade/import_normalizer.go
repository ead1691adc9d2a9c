package trade

import (
	"fmt"
	"strings"

	"github.com/Z3RO333/formularios/internal/domain/matching"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ImportPayload is the document extraction result posted by the caller.
// JSON keys follow the extraction service.
type ImportPayload struct {
	DocumentType string          `json:"tipo_documento"`
	Supplier     *ImportSupplier `json:"fornecedor"`
	Items        []ImportItem    `json:"itens"`
}

// ImportSupplier is the supplier found on the document
type ImportSupplier struct {
	Name  string `json:"nome"`
	TaxID string `json:"cnpj"`
	Email string `json:"email"`
	Phone string `json:"telefone"`
}

// ImportItem is one extracted line
type ImportItem struct {
	Description string           `json:"descricao"`
	Quantity    decimal.Decimal  `json:"quantidade"`
	Unit        string           `json:"unidade"`
	UnitPrice   *decimal.Decimal `json:"preco_unitario"`
	Note        string           `json:"observacao"`
}

// ImportPreview is the normalized payload, ready to prefill an order form
type ImportPreview struct {
	DocumentType string           `json:"document_type"`
	Supplier     SupplierInput    `json:"supplier"`
	Items        []OrderItemInput `json:"items"`
	// Dropped counts lines skipped because they were blank
	Dropped int `json:"dropped"`
}

// NormalizeImport cleans an extraction payload: strings are trimmed, blank
// lines dropped, the unit defaults to UN and the tax id keeps digits only.
// Non-positive quantities and negative prices fail with a ValidationError
// naming each offending line.
func NormalizeImport(payload ImportPayload) (*ImportPreview, error) {
	preview := &ImportPreview{
		DocumentType: strings.ToUpper(strings.TrimSpace(payload.DocumentType)),
		Items:        make([]OrderItemInput, 0, len(payload.Items)),
	}
	if payload.Supplier != nil {
		preview.Supplier = SupplierInput{
			Name:  strings.Join(strings.Fields(payload.Supplier.Name), " "),
			TaxID: matching.NormalizeTaxID(payload.Supplier.TaxID),
			Email: strings.ToLower(strings.TrimSpace(payload.Supplier.Email)),
		}
	}

	var errs shared.FieldErrors
	for i, line := range payload.Items {
		description := strings.TrimSpace(line.Description)
		if description == "" && line.Quantity.IsZero() && line.UnitPrice == nil {
			preview.Dropped++
			continue
		}

		prefix := fmt.Sprintf("itens[%d]", i)
		if description == "" {
			errs.Add(prefix+".descricao", "is required")
		}
		if !line.Quantity.IsPositive() {
			errs.Add(prefix+".quantidade", "must be greater than zero")
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			errs.Add(prefix+".preco_unitario", "cannot be negative")
		}

		unit := strings.ToUpper(strings.TrimSpace(line.Unit))
		if unit == "" {
			unit = trade.DefaultUnit
		}
		preview.Items = append(preview.Items, OrderItemInput{
			Description:        description,
			Quantity:           line.Quantity,
			Unit:               unit,
			EstimatedUnitPrice: line.UnitPrice,
			Note:               strings.TrimSpace(line.Note),
		})
	}
	if len(preview.Items) > trade.MaxItemsPerOrder {
		errs.Add("itens", fmt.Sprintf("cannot contain more than %d items", trade.MaxItemsPerOrder))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return preview, nil
}

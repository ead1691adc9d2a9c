package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultUnit is used when a line item arrives without a unit of measure
const DefaultUnit = "UN"

// MaxItemsPerOrder bounds the size of a single request
const MaxItemsPerOrder = 100

// ItemInput is the desired state of one line item. A zero ID means the item
// is new.
type ItemInput struct {
	ID                 uuid.UUID
	Description        string
	Quantity           decimal.Decimal
	Unit               string
	EstimatedUnitPrice *decimal.Decimal
	Note               string
}

func (in ItemInput) unit() string {
	if u := strings.TrimSpace(in.Unit); u != "" {
		return u
	}
	return DefaultUnit
}

// ValidateItems records every invalid field across the item list
func ValidateItems(items []ItemInput, errs *shared.FieldErrors) {
	if len(items) == 0 {
		errs.Add("items", "must contain at least one item")
		return
	}
	if len(items) > MaxItemsPerOrder {
		errs.Add("items", fmt.Sprintf("cannot contain more than %d items", MaxItemsPerOrder))
	}
	for i, in := range items {
		prefix := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(in.Description) == "" {
			errs.Add(prefix+".description", "is required")
		}
		if !in.Quantity.IsPositive() {
			errs.Add(prefix+".quantity", "must be greater than zero")
		}
		if in.EstimatedUnitPrice != nil && in.EstimatedUnitPrice.IsNegative() {
			errs.Add(prefix+".estimated_unit_price", "cannot be negative")
		}
	}
}

// PurchaseOrderItem represents a line item owned by a purchase order
type PurchaseOrderItem struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	Position           int
	Description        string
	Quantity           decimal.Decimal
	Unit               string
	EstimatedUnitPrice *decimal.Decimal
	Note               string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func newItem(orderID uuid.UUID, position int, in ItemInput, now time.Time) PurchaseOrderItem {
	item := PurchaseOrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	item.assign(position, in)
	return item
}

func (i *PurchaseOrderItem) assign(position int, in ItemInput) {
	i.Position = position
	i.Description = strings.TrimSpace(in.Description)
	i.Quantity = in.Quantity
	i.Unit = in.unit()
	i.EstimatedUnitPrice = copyDecimal(in.EstimatedUnitPrice)
	i.Note = strings.TrimSpace(in.Note)
}

// SameContent reports whether the item already holds the values of in,
// ignoring ids and position.
func (i *PurchaseOrderItem) SameContent(in ItemInput) bool {
	return i.Description == strings.TrimSpace(in.Description) &&
		i.Quantity.Equal(in.Quantity) &&
		i.Unit == in.unit() &&
		equalDecimalPtr(i.EstimatedUnitPrice, in.EstimatedUnitPrice) &&
		i.Note == strings.TrimSpace(in.Note)
}

// EstimatedTotal returns quantity times estimated price, zero when unpriced
func (i *PurchaseOrderItem) EstimatedTotal() decimal.Decimal {
	if i.EstimatedUnitPrice == nil {
		return decimal.Zero
	}
	return i.Quantity.Mul(*i.EstimatedUnitPrice)
}

// ItemPlan is the diff between stored items and a desired item set
type ItemPlan struct {
	ToUpdate []PurchaseOrderItem
	ToInsert []PurchaseOrderItem
	ToDelete []uuid.UUID
	// Result is the full item set after the plan is applied, in input order
	Result []PurchaseOrderItem
}

// IsEmpty reports whether applying the plan would write nothing
func (p *ItemPlan) IsEmpty() bool {
	return len(p.ToUpdate) == 0 && len(p.ToInsert) == 0 && len(p.ToDelete) == 0
}

// planItems diffs the desired items against the stored ones. Items with an
// id are updated in place; items without one reuse an unreferenced stored
// item with identical content before falling back to an insert, so that
// re-applying the same input writes nothing.
func (o *PurchaseOrder) planItems(inputs []ItemInput) (*ItemPlan, shared.FieldErrors) {
	var errs shared.FieldErrors

	existing := make(map[uuid.UUID]PurchaseOrderItem, len(o.Items))
	for _, item := range o.Items {
		existing[item.ID] = item
	}

	referenced := make(map[uuid.UUID]bool, len(inputs))
	for i, in := range inputs {
		if in.ID == uuid.Nil {
			continue
		}
		field := fmt.Sprintf("items[%d].id", i)
		if _, ok := existing[in.ID]; !ok {
			errs.Add(field, "does not belong to this order")
			continue
		}
		if referenced[in.ID] {
			errs.Add(field, "is duplicated")
			continue
		}
		referenced[in.ID] = true
	}
	if len(errs) > 0 {
		return nil, errs
	}

	claimed := make(map[uuid.UUID]bool, len(o.Items))
	now := time.Now().UTC()
	plan := &ItemPlan{Result: make([]PurchaseOrderItem, 0, len(inputs))}

	for pos, in := range inputs {
		if in.ID != uuid.Nil {
			item := existing[in.ID]
			if !item.SameContent(in) || item.Position != pos {
				item.assign(pos, in)
				item.UpdatedAt = now
				plan.ToUpdate = append(plan.ToUpdate, item)
			}
			plan.Result = append(plan.Result, item)
			continue
		}

		if reused, ok := o.findReusable(in, referenced, claimed); ok {
			claimed[reused.ID] = true
			if reused.Position != pos {
				reused.Position = pos
				reused.UpdatedAt = now
				plan.ToUpdate = append(plan.ToUpdate, reused)
			}
			plan.Result = append(plan.Result, reused)
			continue
		}

		item := newItem(o.ID, pos, in, now)
		plan.ToInsert = append(plan.ToInsert, item)
		plan.Result = append(plan.Result, item)
	}

	for _, item := range o.Items {
		if !referenced[item.ID] && !claimed[item.ID] {
			plan.ToDelete = append(plan.ToDelete, item.ID)
		}
	}
	return plan, nil
}

func (o *PurchaseOrder) findReusable(in ItemInput, referenced, claimed map[uuid.UUID]bool) (PurchaseOrderItem, bool) {
	for _, item := range o.Items {
		if referenced[item.ID] || claimed[item.ID] {
			continue
		}
		if item.SameContent(in) {
			return item, true
		}
	}
	return PurchaseOrderItem{}, false
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func equalDecimalPtr(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

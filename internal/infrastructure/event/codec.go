package event

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Z3RO333/formularios/internal/domain/partner"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
)

// Codec encodes domain events as JSON and decodes stored payloads (audit
// details) back into their concrete event type.
type Codec struct {
	mu        sync.RWMutex
	factories map[string]func() shared.DomainEvent
}

// NewCodec returns a codec with no known event types
func NewCodec() *Codec {
	return &Codec{factories: make(map[string]func() shared.DomainEvent)}
}

// NewDomainCodec returns a codec that knows every partner and trade event
func NewDomainCodec() *Codec {
	c := NewCodec()

	Register[partner.SupplierCreatedEvent](c, partner.EventTypeSupplierCreated)
	Register[partner.SupplierAliasRegisteredEvent](c, partner.EventTypeSupplierAliasRegistered)
	Register[partner.SupplierResolvedEvent](c, partner.EventTypeSupplierResolved)
	Register[partner.SuppliersMergedEvent](c, partner.EventTypeSuppliersMerged)

	Register[trade.OrderCreatedEvent](c, trade.EventTypeOrderCreated)
	Register[trade.OrderUpdatedEvent](c, trade.EventTypeOrderUpdated)
	Register[trade.OrderApprovedEvent](c, trade.EventTypeOrderApproved)
	Register[trade.OrderRejectedEvent](c, trade.EventTypeOrderRejected)

	return c
}

// Register makes eventType decodable into *E
func Register[E any, P interface {
	*E
	shared.DomainEvent
}](c *Codec, eventType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[eventType] = func() shared.DomainEvent { return P(new(E)) }
}

// Encode marshals an event
func (c *Codec) Encode(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Decode unmarshals data into a fresh event of the registered type
func (c *Codec) Decode(eventType string, data []byte) (shared.DomainEvent, error) {
	c.mu.RLock()
	factory, ok := c.factories[eventType]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return event, nil
}

// Knows reports whether eventType is registered
func (c *Codec) Knows(eventType string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[eventType]
	return ok
}

// Types returns the registered event types, sorted
func (c *Codec) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]string, 0, len(c.factories))
	for t := range c.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

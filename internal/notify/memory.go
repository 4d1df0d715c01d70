package notify

import (
	"context"
	"sync"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// Memory records notifications for inspection in tests.
type Memory struct {
	mu         sync.RWMutex
	deliveries []Delivery
}

// Delivery captures one Notify call.
type Delivery struct {
	Opportunities []rfp.Opportunity
	Session       rfp.ScrapeSession
}

// NewMemory returns a Memory notifier.
func NewMemory() *Memory {
	return &Memory{}
}

// Notify records the delivery.
func (m *Memory) Notify(_ context.Context, opportunities []rfp.Opportunity, session rfp.ScrapeSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, Delivery{
		Opportunities: append([]rfp.Opportunity(nil), opportunities...),
		Session:       session,
	})
	return nil
}

// Deliveries returns the recorded notifications.
func (m *Memory) Deliveries() []Delivery {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Delivery, len(m.deliveries))
	copy(out, m.deliveries)
	return out
}

package purchaseorder

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/holt-ace/DASHBOARDV3-sub001/pkg/errors"
)

// MemoryRepository keeps documents in process memory. Stored values are
// deep copies so callers cannot mutate repository state.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]*PurchaseOrder
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string]*PurchaseOrder)}
}

func (m *MemoryRepository) Create(_ context.Context, po *PurchaseOrder) error {
	cp, err := clone(po)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[cp.Header.PONumber]; ok {
		return &apperrors.ErrConflict{Message: fmt.Sprintf("purchase order %s already exists", cp.Header.PONumber)}
	}
	m.docs[cp.Header.PONumber] = cp
	po.CreatedAt, po.UpdatedAt = cp.CreatedAt, cp.UpdatedAt
	return nil
}

func (m *MemoryRepository) FindByDateRange(_ context.Context, start, end *time.Time, filter Filter, batchSize int) (*Page, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := make([]*PurchaseOrder, 0, len(keys))
	for _, k := range keys {
		po := m.docs[k]
		if !inRange(po, start, end) || !filter.matches(po) {
			continue
		}
		cp, err := clone(po)
		if err != nil {
			return nil, err
		}
		data = append(data, cp)
	}
	return &Page{
		Data: data,
		Metadata: PageMetadata{
			Total:     len(data),
			Batches:   batches(len(data), batchSize),
			BatchSize: batchSize,
		},
	}, nil
}

func (m *MemoryRepository) FindByNumber(_ context.Context, poNumber string) (*PurchaseOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	po, ok := m.docs[poNumber]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "purchase order", ID: poNumber}
	}
	return clone(po)
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, poNumber string, from, to Status, entry HistoryEntry) (*PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.docs[poNumber]
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "purchase order", ID: poNumber}
	}
	if po.Header.Status != from {
		return nil, staleStatus(poNumber, from, po.Header.Status)
	}
	po.Header.Status = to
	po.StatusHistory = append(po.StatusHistory, entry)
	po.UpdatedAt = time.Now().UTC()
	return clone(po)
}

func clone(po *PurchaseOrder) (*PurchaseOrder, error) {
	b, err := json.Marshal(po)
	if err != nil {
		return nil, fmt.Errorf("copy purchase order: %w", err)
	}
	var cp PurchaseOrder
	if err := json.Unmarshal(b, &cp); err != nil {
		return nil, fmt.Errorf("copy purchase order: %w", err)
	}
	return &cp, nil
}

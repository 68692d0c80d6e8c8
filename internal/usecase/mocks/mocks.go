package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/momentfi/moment-server/internal/domain"
)

// MockTransactionStore is a mock implementation of TransactionStore backed
// by an in-memory map. Individual calls can be overridden via the Func
// fields.
type MockTransactionStore struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateFunc            func(ctx context.Context, txn *domain.Transaction) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Transaction, error)
	ListFunc              func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	UpdateFunc            func(ctx context.Context, txn *domain.Transaction) error
	UpdateFlagsFunc       func(ctx context.Context, id string, flags domain.DeletionFlags) error
	PermanentDeleteFunc   func(ctx context.Context, id string) error
	ListTransfersFromFunc func(ctx context.Context, accountID string) ([]*domain.Transaction, error)
}

func NewMockTransactionStore() *MockTransactionStore {
	return &MockTransactionStore{
		transactions: make(map[string]*domain.Transaction),
	}
}

// Seed inserts a transaction directly, bypassing any Func override.
func (m *MockTransactionStore) Seed(txn *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *txn
	m.transactions[txn.ID] = &cp
}

// Stored returns the current stored copy, or nil.
func (m *MockTransactionStore) Stored(id string) *domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.transactions[id]; ok {
		cp := *txn
		return &cp
	}
	return nil
}

func (m *MockTransactionStore) Create(ctx context.Context, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *txn
	m.transactions[txn.ID] = &cp
	return nil
}

func (m *MockTransactionStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.transactions[id]; ok {
		cp := *txn
		return &cp, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionStore) List(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, txn := range m.transactions {
		if txn.IsDeleted || txn.IsPendingDeletion {
			continue
		}
		if accountID != "" && txn.OwningAccountID() != accountID {
			continue
		}
		cp := *txn
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockTransactionStore) Update(ctx context.Context, txn *domain.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[txn.ID]; !ok {
		return domain.ErrTransactionNotFound
	}
	cp := *txn
	m.transactions[txn.ID] = &cp
	return nil
}

func (m *MockTransactionStore) UpdateFlags(ctx context.Context, id string, flags domain.DeletionFlags) error {
	if m.UpdateFlagsFunc != nil {
		return m.UpdateFlagsFunc(ctx, id, flags)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if flags.IsPendingDeletion != nil {
		txn.IsPendingDeletion = *flags.IsPendingDeletion
	}
	if flags.IsDeleted != nil {
		txn.IsDeleted = *flags.IsDeleted
	}
	txn.UpdatedAt = time.Now()
	return nil
}

func (m *MockTransactionStore) PermanentDelete(ctx context.Context, id string) error {
	if m.PermanentDeleteFunc != nil {
		return m.PermanentDeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	txn.IsDeleted = true
	txn.IsPendingDeletion = false
	txn.UpdatedAt = time.Now()
	return nil
}

func (m *MockTransactionStore) ListTransfersFrom(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	if m.ListTransfersFromFunc != nil {
		return m.ListTransfersFromFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, txn := range m.transactions {
		if txn.Kind != domain.KindTransfer || txn.IsDeleted {
			continue
		}
		if txn.SourceAccountID != accountID {
			continue
		}
		cp := *txn
		out = append(out, &cp)
	}
	return out, nil
}

// MockAccountStore is a mock implementation of AccountStore. Update
// enforces the version check the real store performs.
type MockAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc    func(ctx context.Context, account *domain.Account) error
	GetByIDFunc   func(ctx context.Context, id string) (*domain.Account, error)
	ListFunc      func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	UpdateFunc    func(ctx context.Context, account *domain.Account) error
	RawUpdateFunc func(ctx context.Context, account *domain.Account) error
}

func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountStore) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.ID] = &cp
}

func (m *MockAccountStore) Stored(id string) *domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		cp := *acc
		return &cp
	}
	return nil
}

func (m *MockAccountStore) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *MockAccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Account
	for _, acc := range m.accounts {
		cp := *acc
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockAccountStore) Update(ctx context.Context, account *domain.Account) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if current.Version != account.Version {
		return domain.ErrVersionConflict
	}
	cp := *account
	cp.Version++
	cp.UpdatedAt = time.Now()
	m.accounts[account.ID] = &cp
	account.Version = cp.Version
	return nil
}

func (m *MockAccountStore) RawUpdate(ctx context.Context, account *domain.Account) error {
	if m.RawUpdateFunc != nil {
		return m.RawUpdateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	cp := *account
	cp.UpdatedAt = time.Now()
	m.accounts[account.ID] = &cp
	return nil
}

// MockNotificationChannel records published events in order.
type MockNotificationChannel struct {
	mu       sync.Mutex
	events   []PublishedEvent
	handlers map[string][]func(domain.DeletionEvent)

	PublishFunc func(event string, payload domain.DeletionEvent)
}

// PublishedEvent is one recorded publish.
type PublishedEvent struct {
	Name    string
	Payload domain.DeletionEvent
}

func NewMockNotificationChannel() *MockNotificationChannel {
	return &MockNotificationChannel{
		handlers: make(map[string][]func(domain.DeletionEvent)),
	}
}

func (m *MockNotificationChannel) Publish(event string, payload domain.DeletionEvent) {
	if m.PublishFunc != nil {
		m.PublishFunc(event, payload)
		return
	}
	m.mu.Lock()
	m.events = append(m.events, PublishedEvent{Name: event, Payload: payload})
	handlers := append([]func(domain.DeletionEvent){}, m.handlers[event]...)
	m.mu.Unlock()

	for _, h := range handlers {
		h(payload)
	}
}

func (m *MockNotificationChannel) Subscribe(event string, handler func(domain.DeletionEvent)) func() {
	m.mu.Lock()
	m.handlers[event] = append(m.handlers[event], handler)
	idx := len(m.handlers[event]) - 1
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.handlers[event]) {
			m.handlers[event][idx] = func(domain.DeletionEvent) {}
		}
	}
}

// Events returns a copy of everything published so far.
func (m *MockNotificationChannel) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent{}, m.events...)
}

// EventNames returns the names of published events in order.
func (m *MockNotificationChannel) EventNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.events))
	for i, e := range m.events {
		names[i] = e.Name
	}
	return names
}

// MockIDGenerator generates sequential predictable ids.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%d", m.counter)
}

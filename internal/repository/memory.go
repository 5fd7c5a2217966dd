package repository

import (
	"context"
	"sync"

	"github.com/smartvest/smartvest/internal/models"
)

// In-memory store implementations. They back tests and local runs without
// Postgres or Redis. Not for production.

type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account // keyed by id
	byEmail  map[string]string         // email -> id
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[string]models.Account),
		byEmail:  make(map[string]string),
	}
}

func (m *MemoryAccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	account := m.accounts[id]
	return &account, nil
}

func (m *MemoryAccountStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &account, nil
}

func (m *MemoryAccountStore) Create(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = *account
	m.byEmail[account.Email] = account.ID
	return nil
}

func (m *MemoryAccountStore) UpdateWallet(ctx context.Context, id string, address *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	account.WalletAddress = address
	m.accounts[id] = account
	return nil
}

type MemoryOTPStore struct {
	mu    sync.RWMutex
	codes map[string]models.OTPCode // keyed by email
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{codes: make(map[string]models.OTPCode)}
}

func (m *MemoryOTPStore) Upsert(ctx context.Context, code *models.OTPCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code.Email] = *code
	return nil
}

func (m *MemoryOTPStore) GetByEmail(ctx context.Context, email string) (*models.OTPCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.codes[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &code, nil
}

func (m *MemoryOTPStore) Update(ctx context.Context, code *models.OTPCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[code.Email]; !ok {
		return ErrNotFound
	}
	m.codes[code.Email] = *code
	return nil
}

func (m *MemoryOTPStore) DeleteByEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, email)
	return nil
}

type MemoryVestingStore struct {
	mu        sync.RWMutex
	schedules map[string][]models.VestingSchedule // keyed by account id
}

func NewMemoryVestingStore() *MemoryVestingStore {
	return &MemoryVestingStore{schedules: make(map[string][]models.VestingSchedule)}
}

func (m *MemoryVestingStore) Create(ctx context.Context, schedule *models.VestingSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[schedule.AccountID] = append(m.schedules[schedule.AccountID], *schedule)
	return nil
}

func (m *MemoryVestingStore) ListByAccount(ctx context.Context, accountID string) ([]*models.VestingSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	schedules := []*models.VestingSchedule{}
	for i := range m.schedules[accountID] {
		schedule := m.schedules[accountID][i]
		schedules = append(schedules, &schedule)
	}
	return schedules, nil
}

type MemoryRefreshTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]models.RefreshTokenData // keyed by jti
}

func NewMemoryRefreshTokenStore() *MemoryRefreshTokenStore {
	return &MemoryRefreshTokenStore{tokens: make(map[string]models.RefreshTokenData)}
}

func (m *MemoryRefreshTokenStore) Store(ctx context.Context, data models.RefreshTokenData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[data.JTI] = data
	return nil
}

func (m *MemoryRefreshTokenStore) Get(ctx context.Context, jti string) (*models.RefreshTokenData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.tokens[jti]
	if !ok {
		return nil, ErrNotFound
	}
	return &data, nil
}

func (m *MemoryRefreshTokenStore) Revoke(ctx context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.tokens[jti]
	if !ok {
		return ErrNotFound
	}
	data.Revoked = true
	m.tokens[jti] = data
	return nil
}

func (m *MemoryRefreshTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.tokens[jti]
	if !ok {
		return false, ErrNotFound
	}
	return data.Revoked, nil
}

package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tappay/internal/core/domain"
	"tappay/internal/core/ports"

	"github.com/shopspring/decimal"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[int64]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.Active = active
	u.UpdatedAt = time.Now()
	return nil
}

// --- In-Memory Wallet Repo ---

// inMemoryWalletRepo mirrors the conditional single-statement semantics of
// the postgres repo: Debit refuses when the balance cannot cover the
// amount, both refuse when no wallet row exists. creditRefusedFor forces a
// refused credit for one user, used to drive the compensation paths.
type inMemoryWalletRepo struct {
	mu               sync.RWMutex
	nextID           int64
	wallets          map[int64]*domain.Wallet // keyed by user ID
	creditRefusedFor int64
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[int64]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	w.ID = r.nextID
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	r.wallets[w.UserID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[userID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) Debit(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[userID]
	if !ok || w.Balance.LessThan(amount) {
		return false, nil
	}
	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = time.Now()
	return true, nil
}

func (r *inMemoryWalletRepo) Credit(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.creditRefusedFor != 0 && r.creditRefusedFor == userID {
		return false, nil
	}
	w, ok := r.wallets[userID]
	if !ok {
		return false, nil
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now()
	return true, nil
}

func (r *inMemoryWalletRepo) refuseCreditsFor(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creditRefusedFor = userID
}

func (r *inMemoryWalletRepo) balanceOf(userID int64) decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[userID]
	if !ok {
		return decimal.Zero
	}
	return w.Balance
}

// --- In-Memory Card Repo ---

type inMemoryCardRepo struct {
	mu     sync.RWMutex
	nextID int64
	cards  map[int64]*domain.Card
}

func newInMemoryCardRepo() *inMemoryCardRepo {
	return &inMemoryCardRepo{cards: make(map[int64]*domain.Card)}
}

func (r *inMemoryCardRepo) Create(ctx context.Context, c *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.cards[c.ID] = &cp
	return nil
}

func (r *inMemoryCardRepo) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cards[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *inMemoryCardRepo) GetByUID(ctx context.Context, cardUID string) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.cards {
		if c.CardUID == cardUID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryCardRepo) ListByUserID(ctx context.Context, userID int64) ([]domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Card
	for _, c := range r.cards {
		if c.UserID == userID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r *inMemoryCardRepo) CountActiveByUserID(ctx context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, c := range r.cards {
		if c.UserID == userID && c.Active {
			count++
		}
	}
	return count, nil
}

func (r *inMemoryCardRepo) NameExistsForUser(ctx context.Context, userID int64, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.cards {
		if c.UserID == userID && domain.NormalizeCardName(c.Name) == domain.NormalizeCardName(name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryCardRepo) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok {
		return fmt.Errorf("card not found")
	}
	c.Active = active
	c.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryCardRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cards[id]; !ok {
		return fmt.Errorf("card not found")
	}
	delete(r.cards, id)
	return nil
}

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	nextID    int64
	merchants map[int64]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[int64]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.Code == m.Code {
			return fmt.Errorf("merchant code already exists")
		}
	}
	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	r.merchants[m.ID] = &cp
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id int64) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *inMemoryMerchantRepo) GetByCode(ctx context.Context, code string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.Code == code {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMerchantRepo) List(ctx context.Context) ([]domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Merchant
	for _, m := range r.merchants {
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *inMemoryMerchantRepo) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	m.Active = active
	m.UpdatedAt = time.Now()
	return nil
}

// --- In-Memory Transaction Repo ---

// inMemoryTransactionRepo keeps the ledger. failNextInsert makes the next
// Insert or InsertPair return an error, so tests can observe the
// compensation path restoring wallet balances.
type inMemoryTransactionRepo struct {
	mu             sync.RWMutex
	nextID         int64
	transactions   map[int64]*domain.Transaction
	failNextInsert bool
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[int64]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) failOnce() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNextInsert = true
}

func (r *inMemoryTransactionRepo) Insert(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextInsert {
		r.failNextInsert = false
		return fmt.Errorf("simulated insert failure")
	}
	r.nextID++
	t.ID = r.nextID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) InsertPair(ctx context.Context, out, in *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextInsert {
		r.failNextInsert = false
		return fmt.Errorf("simulated insert failure")
	}
	for _, t := range []*domain.Transaction{out, in} {
		r.nextID++
		t.ID = r.nextID
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now()
		}
		cp := *t
		r.transactions[t.ID] = &cp
	}
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByReference(ctx context.Context, referenceCode string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.ReferenceCode == referenceCode {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) HasRefundFor(ctx context.Context, originalTransactionID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.Type == domain.TransactionTypeRefund &&
			t.OriginalTransactionID != nil && *t.OriginalTransactionID == originalTransactionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryTransactionRepo) UpdateStatus(ctx context.Context, id int64, status domain.TransactionStatus, processedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok || t.Status != domain.TransactionStatusPending {
		return false, nil
	}
	t.Status = status
	t.ProcessedAt = &processedAt
	return true, nil
}

func (r *inMemoryTransactionRepo) SumSuccessfulPaymentsToday(ctx context.Context, userID int64) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dayStart := time.Now().Truncate(24 * time.Hour)
	sum := decimal.Zero
	for _, t := range r.transactions {
		if t.UserID == userID &&
			t.Type == domain.TransactionTypePayment &&
			t.Status == domain.TransactionStatusSuccess &&
			!t.CreatedAt.Before(dayStart) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.UserID != params.UserID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// Package memory is the in-process Repository used for development and
// tests. All methods copy data on the way out so callers cannot mutate
// shared state.
package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"kitflip/backend/internal/domain"
	"kitflip/backend/internal/sku"
	"kitflip/backend/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	items     map[string]domain.InventoryItem
	itemOrder []string
	sales     map[string]domain.Sale
	saleOrder []string
	expenses  map[string]domain.Expense
	audits    []domain.AuditLog
	users     map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		items:    make(map[string]domain.InventoryItem),
		sales:    make(map[string]domain.Sale),
		expenses: make(map[string]domain.Expense),
		users:    make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store preloaded with login accounts and a few
// inventory rows so a fresh checkout is usable immediately.
func NewSeeded() *Store {
	s := New()
	s.seedUsers()
	s.seedItems()
	return s
}

func (s *Store) seedUsers() {
	now := time.Now().UTC()

	adminPassword := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPassword := envOr("SEED_STAFF_PASSWORD", "staff123")

	s.users["admin"] = domain.UserAccount{
		Username:  "admin",
		Password:  mustHash(adminPassword),
		Role:      "admin",
		Active:    true,
		CreatedAt: now,
	}
	s.users["staff"] = domain.UserAccount{
		Username:  "staff",
		Password:  mustHash(staffPassword),
		Role:      "staff",
		Active:    true,
		CreatedAt: now,
	}
}

func (s *Store) seedItems() {
	now := time.Now().UTC()
	cost := decimal.RequireFromString("9.20")

	seeds := []struct {
		club   string
		player string
		size   string
		n      int
	}{
		{"Real Madrid", "", "L", 2},
		{"Manchester United", "Rashford", "M", 1},
	}

	for _, seed := range seeds {
		for i := 1; i <= seed.n; i++ {
			item := domain.InventoryItem{
				ID:         uuid.NewString(),
				SKU:        sku.Generate(seed.club, seed.player, seed.size, i),
				Club:       seed.club,
				PlayerName: seed.player,
				Size:       seed.size,
				Cost:       cost,
				Status:     domain.StatusInStock,
				DateAdded:  now,
				CreatedAt:  now,
			}
			s.items[item.ID] = item
			s.itemOrder = append(s.itemOrder, item.ID)
		}
	}
}

func envOr(key string, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return password
	}
	return string(hash)
}

func (s *Store) ListItems(_ context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		if item, ok := s.items[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Store) GetItemByID(_ context.Context, id string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := item
	return &copied, nil
}

func (s *Store) CreateItems(_ context.Context, items []domain.InventoryItem) ([]domain.InventoryItem, error) {
	if len(items) == 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.SKU == "" {
			return nil, store.ErrInvalidInput
		}
		s.items[item.ID] = item
		s.itemOrder = append(s.itemOrder, item.ID)
		created = append(created, item)
	}
	return created, nil
}

func (s *Store) CountItemsBySKUPrefix(_ context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, store.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		if strings.HasPrefix(item.SKU, prefix) {
			count++
		}
	}
	return count, nil
}

func (s *Store) UpdateItem(_ context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.items[item.ID] = item
	copied := item
	return &copied, nil
}

func (s *Store) UpdateItemStatus(_ context.Context, id string, status string) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	item.Status = status
	s.items[id] = item
	copied := item
	return &copied, nil
}

func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	s.itemOrder = slices.DeleteFunc(s.itemOrder, func(existing string) bool {
		return existing == id
	})
	return nil
}

func (s *Store) RecordSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || sale.ItemID == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[sale.ItemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if item.Status == domain.StatusSold {
		return nil, store.ErrItemSold
	}

	item.Status = domain.StatusSold
	s.items[item.ID] = item

	sale.Item = nil
	s.sales[sale.ID] = sale
	s.saleOrder = append(s.saleOrder, sale.ID)

	copied := sale
	return &copied, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.saleOrder))
	for _, id := range s.saleOrder {
		sale, ok := s.sales[id]
		if !ok {
			continue
		}
		if item, ok := s.items[sale.ItemID]; ok {
			copied := item
			sale.Item = &copied
		}
		sales = append(sales, sale)
	}
	slices.SortStableFunc(sales, func(a, b domain.Sale) int {
		return b.SaleDate.Compare(a.SaleDate)
	})
	return sales, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if item, ok := s.items[sale.ItemID]; ok {
		copied := item
		sale.Item = &copied
	}
	return &sale, nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[sale.ID]; !ok {
		return nil, store.ErrNotFound
	}
	sale.Item = nil
	s.sales[sale.ID] = sale
	copied := sale
	return &copied, nil
}

func (s *Store) DeleteSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.sales, id)
	s.saleOrder = slices.DeleteFunc(s.saleOrder, func(existing string) bool {
		return existing == id
	})
	return nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses[expense.ID] = expense
	copied := expense
	return &copied, nil
}

func (s *Store) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, len(s.expenses))
	for _, expense := range s.expenses {
		expenses = append(expenses, expense)
	}
	slices.SortStableFunc(expenses, func(a, b domain.Expense) int {
		if cmp := b.ExpenseDate.Compare(a.ExpenseDate); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.ID, b.ID)
	})
	return expenses, nil
}

func (s *Store) GetExpenseByID(_ context.Context, id string) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expense, ok := s.expenses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := expense
	return &copied, nil
}

func (s *Store) UpdateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[expense.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.expenses[expense.ID] = expense
	copied := expense
	return &copied, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audits = append(s.audits, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.AuditLog, 0, limit)
	for i := len(s.audits) - 1; i >= 0; i-- {
		entry := s.audits[i]
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		logs = append(logs, entry)
		if limit > 0 && len(logs) >= limit {
			break
		}
	}
	return logs, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return store.ErrInvalidInput
	}
	user.Username = username
	s.users[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}

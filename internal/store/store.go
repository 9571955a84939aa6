package store

import (
	"context"
	"errors"
	"time"

	"kitflip/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrItemSold     = errors.New("item already sold")
)

type Repository interface {
	ListItems(ctx context.Context) ([]domain.InventoryItem, error)
	GetItemByID(ctx context.Context, id string) (*domain.InventoryItem, error)
	CreateItems(ctx context.Context, items []domain.InventoryItem) ([]domain.InventoryItem, error)
	CountItemsBySKUPrefix(ctx context.Context, prefix string) (int, error)
	UpdateItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	UpdateItemStatus(ctx context.Context, id string, status string) (*domain.InventoryItem, error)
	DeleteItem(ctx context.Context, id string) error

	// RecordSale inserts the sale row and marks its item Sold in one
	// atomic operation. Fails with ErrItemSold when the item is already
	// sold.
	RecordSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) error

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context) ([]domain.Expense, error)
	GetExpenseByID(ctx context.Context, id string) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

// Package postgres is the production Repository. Schema is managed
// outside the binary; see the table names in the queries below.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"kitflip/backend/internal/domain"
	"kitflip/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, club, player_name, size, cost, status, date_added, created_at
		FROM inventory_items
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, 128)
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.SKU, &item.Club, &item.PlayerName, &item.Size, &item.Cost, &item.Status, &item.DateAdded, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *Store) GetItemByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sku, club, player_name, size, cost, status, date_added, created_at
		FROM inventory_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.SKU, &item.Club, &item.PlayerName, &item.Size, &item.Cost, &item.Status, &item.DateAdded, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateItems(ctx context.Context, items []domain.InventoryItem) ([]domain.InventoryItem, error) {
	if len(items) == 0 {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range items {
		if item.ID == "" || item.SKU == "" {
			return nil, store.ErrInvalidInput
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_items (id, sku, club, player_name, size, cost, status, date_added, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, item.ID, item.SKU, item.Club, item.PlayerName, item.Size, item.Cost, item.Status, item.DateAdded, item.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, store.ErrInvalidInput
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountItemsBySKUPrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, store.ErrInvalidInput
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM inventory_items
		WHERE sku LIKE $1 || '%'
	`, escapeLike(prefix)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET club = $2, player_name = $3, size = $4, cost = $5, status = $6, date_added = $7
		WHERE id = $1
	`, item.ID, item.Club, item.PlayerName, item.Size, item.Cost, item.Status, item.DateAdded)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := item
	return &updated, nil
}

func (s *Store) UpdateItemStatus(ctx context.Context, id string, status string) (*domain.InventoryItem, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET status = $2
		WHERE id = $1
	`, id, status)
	if err != nil {
		return nil, err
	}
	return s.GetItemByID(ctx, id)
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM inventory_items
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RecordSale creates the sale row and flips its item to Sold in one
// serializable transaction so a crash between the two writes cannot
// leave a sold item without a sale.
func (s *Store) RecordSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || sale.ItemID == "" {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT status
		FROM inventory_items
		WHERE id = $1
		FOR UPDATE
	`, sale.ItemID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status == domain.StatusSold {
		return nil, store.ErrItemSold
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, item_id, sale_price, platform_fees, shipping_cost, profit, platform, sale_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, sale.ID, sale.ItemID, sale.SalePrice, sale.PlatformFees, sale.ShippingCost, sale.Profit, sale.Platform, sale.SaleDate, sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET status = $2
		WHERE id = $1
	`, sale.ItemID, domain.StatusSold)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := sale
	created.Item = nil
	return &created, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.item_id, s.sale_price, s.platform_fees, s.shipping_cost, s.profit, s.platform, s.sale_date, s.created_at,
			i.id, i.sku, i.club, i.player_name, i.size, i.cost, i.status, i.date_added, i.created_at
		FROM sales s
		LEFT JOIN inventory_items i ON i.id = s.item_id
		ORDER BY s.sale_date DESC, s.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		sale, err := scanSaleWithItem(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.item_id, s.sale_price, s.platform_fees, s.shipping_cost, s.profit, s.platform, s.sale_date, s.created_at,
			i.id, i.sku, i.club, i.player_name, i.size, i.cost, i.status, i.date_added, i.created_at
		FROM sales s
		LEFT JOIN inventory_items i ON i.id = s.item_id
		WHERE s.id = $1
	`, id)

	sale, err := scanSaleWithItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSaleWithItem(row rowScanner) (domain.Sale, error) {
	var sale domain.Sale
	var itemID, itemSKU, itemClub, itemPlayer, itemSize, itemStatus sql.NullString
	var itemCost sql.NullString
	var itemDateAdded, itemCreatedAt sql.NullTime

	err := row.Scan(
		&sale.ID, &sale.ItemID, &sale.SalePrice, &sale.PlatformFees, &sale.ShippingCost, &sale.Profit, &sale.Platform, &sale.SaleDate, &sale.CreatedAt,
		&itemID, &itemSKU, &itemClub, &itemPlayer, &itemSize, &itemCost, &itemStatus, &itemDateAdded, &itemCreatedAt,
	)
	if err != nil {
		return domain.Sale{}, err
	}

	if itemID.Valid {
		item := domain.InventoryItem{
			ID:         itemID.String,
			SKU:        itemSKU.String,
			Club:       itemClub.String,
			PlayerName: itemPlayer.String,
			Size:       itemSize.String,
			Status:     itemStatus.String,
			DateAdded:  itemDateAdded.Time,
			CreatedAt:  itemCreatedAt.Time,
		}
		if itemCost.Valid {
			cost, err := parseDecimal(itemCost.String)
			if err != nil {
				return domain.Sale{}, err
			}
			item.Cost = cost
		}
		sale.Item = &item
	}

	return sale, nil
}

func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sales
		SET sale_price = $2, platform_fees = $3, shipping_cost = $4, profit = $5, platform = $6, sale_date = $7
		WHERE id = $1
	`, sale.ID, sale.SalePrice, sale.PlatformFees, sale.ShippingCost, sale.Profit, sale.Platform, sale.SaleDate)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := sale
	updated.Item = nil
	return &updated, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sales
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" {
		return nil, store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, description, amount, category, expense_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, expense.ID, expense.Description, expense.Amount, expense.Category, expense.ExpenseDate, expense.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount, category, expense_date, created_at
		FROM expenses
		ORDER BY expense_date DESC, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 64)
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(&expense.ID, &expense.Description, &expense.Amount, &expense.Category, &expense.ExpenseDate, &expense.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return expenses, nil
}

func (s *Store) GetExpenseByID(ctx context.Context, id string) (*domain.Expense, error) {
	var expense domain.Expense
	err := s.db.QueryRowContext(ctx, `
		SELECT id, description, amount, category, expense_date, created_at
		FROM expenses
		WHERE id = $1
	`, id).Scan(&expense.ID, &expense.Description, &expense.Amount, &expense.Category, &expense.ExpenseDate, &expense.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *Store) UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET description = $2, amount = $3, category = $4, expense_date = $5
		WHERE id = $1
	`, expense.ID, expense.Description, expense.Amount, expense.Category, expense.ExpenseDate)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := expense
	return &updated, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM expenses
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func parseDecimal(val string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(val))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// escapeLike neutralizes LIKE wildcards in a SKU prefix. SKU codes are
// alphanumeric plus dashes, but edited club names could sneak one in.
func escapeLike(val string) string {
	val = strings.ReplaceAll(val, `\`, `\\`)
	val = strings.ReplaceAll(val, `%`, `\%`)
	val = strings.ReplaceAll(val, `_`, `\_`)
	return val
}

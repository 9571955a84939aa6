package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kitflip/backend/internal/domain"
	"kitflip/backend/internal/store"
)

func TestRecordSaleMarksItemSold(t *testing.T) {
	databaseURL := os.Getenv("KITFLIP_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set KITFLIP_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	itemID := fmt.Sprintf("item-sale-it-%d", stamp)
	saleID := fmt.Sprintf("sale-it-%d", stamp)
	itemSKU := fmt.Sprintf("ITEST-BLANK-L-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, itemID)
	})

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, sku, club, player_name, size, cost, status, date_added, created_at)
		VALUES ($1, $2, 'Integration FC', '', 'L', 9.20, 'Listed', $3, $3)
	`, itemID, itemSKU, now); err != nil {
		t.Fatalf("insert item: %v", err)
	}

	sale := domain.Sale{
		ID:           saleID,
		ItemID:       itemID,
		SalePrice:    decimal.RequireFromString("35.00"),
		PlatformFees: decimal.RequireFromString("3.50"),
		ShippingCost: decimal.RequireFromString("4.00"),
		Profit:       decimal.RequireFromString("18.30"),
		Platform:     "Vinted",
		SaleDate:     now,
		CreatedAt:    now,
	}
	if _, err := s.RecordSale(ctx, sale); err != nil {
		t.Fatalf("record sale: %v", err)
	}

	item, err := s.GetItemByID(ctx, itemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Status != domain.StatusSold {
		t.Fatalf("expected item Sold after sale, got %s", item.Status)
	}

	// Terminal status: a second sale of the same item must fail.
	sale.ID = saleID + "-dup"
	if _, err := s.RecordSale(ctx, sale); !errors.Is(err, store.ErrItemSold) {
		t.Fatalf("expected ErrItemSold on resell, got %v", err)
	}
}

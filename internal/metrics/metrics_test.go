package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kitflip/backend/internal/domain"
)

func dec(val string) decimal.Decimal {
	d, err := decimal.NewFromString(val)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAggregateEmpty(t *testing.T) {
	m := Aggregate(nil, nil, nil)

	if m.TotalItems != 0 || m.SoldCount != 0 {
		t.Fatalf("expected zero counts, got %+v", m)
	}
	if m.SellThroughRate != 0 {
		t.Fatalf("expected sell-through 0 with no items, got %f", m.SellThroughRate)
	}
	if m.ROIPercent != 0 {
		t.Fatalf("expected ROI 0 with no expenses, got %f", m.ROIPercent)
	}
	if !m.NetProfit.IsZero() {
		t.Fatalf("expected zero net profit, got %s", m.NetProfit)
	}
}

func TestAggregateStatusCountsAndInventoryValue(t *testing.T) {
	items := []domain.InventoryItem{
		{ID: "i1", Club: "Arsenal", Status: domain.StatusInStock, Cost: dec("9.20")},
		{ID: "i2", Club: "Arsenal", Status: domain.StatusListed, Cost: dec("10.00")},
		{ID: "i3", Club: "Arsenal", Status: domain.StatusSold, Cost: dec("9.20")},
	}

	m := Aggregate(items, nil, nil)
	if m.InStockCount != 1 || m.ListedCount != 1 || m.SoldCount != 1 {
		t.Fatalf("unexpected status counts: %+v", m)
	}
	// Sold items are excluded from inventory value.
	if !m.InventoryValue.Equal(dec("19.20")) {
		t.Fatalf("expected inventory value 19.20, got %s", m.InventoryValue)
	}
	if m.SellThroughRate != 33.33 {
		t.Fatalf("expected sell-through 33.33, got %f", m.SellThroughRate)
	}
}

func TestAggregateNetProfitIdentity(t *testing.T) {
	sales := []domain.Sale{
		{ID: "s1", ItemID: "i1", SalePrice: dec("35.00"), Profit: dec("20.00"), SaleDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "s2", ItemID: "i2", SalePrice: dec("40.00"), Profit: dec("25.50"), SaleDate: time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)},
	}
	expenses := []domain.Expense{
		{ID: "e1", Amount: dec("18.40")},
		{ID: "e2", Amount: dec("5.00")},
	}

	m := Aggregate(nil, sales, expenses)
	if !m.TotalRevenue.Equal(dec("75.00")) {
		t.Fatalf("expected revenue 75.00, got %s", m.TotalRevenue)
	}
	if !m.TotalProfit.Equal(dec("45.50")) {
		t.Fatalf("expected profit 45.50, got %s", m.TotalProfit)
	}
	if !m.NetProfit.Equal(m.TotalProfit.Sub(m.TotalExpenses)) {
		t.Fatalf("net profit identity broken: %s != %s - %s", m.NetProfit, m.TotalProfit, m.TotalExpenses)
	}
	if !m.AvgSalePrice.Equal(dec("37.50")) {
		t.Fatalf("expected avg sale price 37.50, got %s", m.AvgSalePrice)
	}
	// (45.50 - 23.40) / 23.40 * 100 = 94.44
	if m.ROIPercent != 94.44 {
		t.Fatalf("expected ROI 94.44, got %f", m.ROIPercent)
	}
}

func TestAggregateSalesByClub(t *testing.T) {
	items := []domain.InventoryItem{
		{ID: "i1", Club: "Arsenal", Status: domain.StatusSold},
		{ID: "i2", Club: "Liverpool", Status: domain.StatusSold},
		{ID: "i3", Club: "Liverpool", Status: domain.StatusSold},
	}
	sales := []domain.Sale{
		{ID: "s1", ItemID: "i1", SaleDate: time.Now()},
		{ID: "s2", ItemID: "i2", SaleDate: time.Now()},
		{ID: "s3", ItemID: "i3", SaleDate: time.Now()},
	}

	m := Aggregate(items, sales, nil)
	if len(m.SalesByClub) != 2 {
		t.Fatalf("expected 2 clubs, got %d", len(m.SalesByClub))
	}
	if m.SalesByClub[0].Club != "Liverpool" || m.SalesByClub[0].Count != 2 {
		t.Fatalf("expected Liverpool with 2 sales first, got %+v", m.SalesByClub[0])
	}
}

func TestAggregateRevenueByMonthChronological(t *testing.T) {
	sales := []domain.Sale{
		{ID: "s1", SalePrice: dec("10.00"), SaleDate: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "s2", SalePrice: dec("20.00"), SaleDate: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "s3", SalePrice: dec("5.00"), SaleDate: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
	}

	m := Aggregate(nil, sales, nil)
	if len(m.RevenueByMonth) != 2 {
		t.Fatalf("expected 2 months, got %d", len(m.RevenueByMonth))
	}
	if m.RevenueByMonth[0].Month != "Feb 2026" || !m.RevenueByMonth[0].Revenue.Equal(dec("25.00")) {
		t.Fatalf("unexpected first month: %+v", m.RevenueByMonth[0])
	}
	if m.RevenueByMonth[1].Month != "Apr 2026" {
		t.Fatalf("expected Apr 2026 second, got %s", m.RevenueByMonth[1].Month)
	}
}

func TestAggregateBucketsOrphanSalesUnderUnknown(t *testing.T) {
	items := []domain.InventoryItem{
		{ID: "i1", Club: "Arsenal", Status: domain.StatusSold},
	}
	sales := []domain.Sale{
		{ID: "s1", ItemID: "i1", SaleDate: time.Now()},
		{ID: "s2", ItemID: "deleted", SaleDate: time.Now()},
	}

	m := Aggregate(items, sales, nil)
	total := 0
	unknown := 0
	for _, entry := range m.SalesByClub {
		total += entry.Count
		if entry.Club == "Unknown" {
			unknown = entry.Count
		}
	}
	if total != len(sales) {
		t.Fatalf("expected club counts to sum to %d sales, got %d", len(sales), total)
	}
	if unknown != 1 {
		t.Fatalf("expected 1 sale under Unknown, got %d", unknown)
	}
}

func TestAggregateUsesEmbeddedSaleItem(t *testing.T) {
	// Sales whose item row is gone from the listing still count toward
	// the club breakdown via their embedded snapshot.
	sales := []domain.Sale{
		{ID: "s1", ItemID: "gone", SaleDate: time.Now(), Item: &domain.InventoryItem{ID: "gone", Club: "Chelsea"}},
	}

	m := Aggregate(nil, sales, nil)
	if len(m.SalesByClub) != 1 || m.SalesByClub[0].Club != "Chelsea" {
		t.Fatalf("expected Chelsea from embedded item, got %+v", m.SalesByClub)
	}
}

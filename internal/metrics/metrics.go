// Package metrics folds inventory, sales and expenses into the dashboard
// summary. All ratio figures guard against empty denominators.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"kitflip/backend/internal/domain"
)

const monthKeyLayout = "Jan 2006"

func Aggregate(items []domain.InventoryItem, sales []domain.Sale, expenses []domain.Expense) domain.DashboardMetrics {
	m := domain.DashboardMetrics{
		TotalItems:     len(items),
		SalesByClub:    []domain.ClubSales{},
		RevenueByMonth: []domain.MonthRevenue{},
	}

	for _, item := range items {
		switch item.Status {
		case domain.StatusInStock:
			m.InStockCount++
		case domain.StatusListed:
			m.ListedCount++
		case domain.StatusSold:
			m.SoldCount++
		}
		if item.Status != domain.StatusSold {
			m.InventoryValue = m.InventoryValue.Add(item.Cost)
		}
	}

	itemsByID := make(map[string]domain.InventoryItem, len(items))
	for _, item := range items {
		itemsByID[item.ID] = item
	}

	clubCounts := make(map[string]int)
	clubOrder := make([]string, 0)
	monthRevenue := make(map[string]decimal.Decimal)
	monthStarts := make(map[string]time.Time)

	for _, sale := range sales {
		m.TotalRevenue = m.TotalRevenue.Add(sale.SalePrice)
		m.TotalProfit = m.TotalProfit.Add(sale.Profit)

		// Sales whose item row is gone count under "Unknown" so the
		// club breakdown still sums to the sale count.
		club := ""
		if sale.Item != nil {
			club = sale.Item.Club
		} else if item, ok := itemsByID[sale.ItemID]; ok {
			club = item.Club
		}
		if club == "" {
			club = "Unknown"
		}
		if _, seen := clubCounts[club]; !seen {
			clubOrder = append(clubOrder, club)
		}
		clubCounts[club]++

		key := sale.SaleDate.Format(monthKeyLayout)
		if _, seen := monthRevenue[key]; !seen {
			monthStarts[key] = time.Date(sale.SaleDate.Year(), sale.SaleDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		monthRevenue[key] = monthRevenue[key].Add(sale.SalePrice)
	}

	for _, expense := range expenses {
		m.TotalExpenses = m.TotalExpenses.Add(expense.Amount)
	}

	m.NetProfit = m.TotalProfit.Sub(m.TotalExpenses)

	if m.TotalItems > 0 {
		m.SellThroughRate = round2(float64(m.SoldCount) / float64(m.TotalItems) * 100)
	}
	if len(sales) > 0 {
		saleCount := decimal.NewFromInt(int64(len(sales)))
		m.AvgSalePrice = m.TotalRevenue.DivRound(saleCount, 2)
		m.AvgProfitPerSale = m.TotalProfit.DivRound(saleCount, 2)
	}
	if m.TotalExpenses.IsPositive() {
		roi, _ := m.NetProfit.Div(m.TotalExpenses).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		m.ROIPercent = roi
	}

	for _, club := range clubOrder {
		m.SalesByClub = append(m.SalesByClub, domain.ClubSales{Club: club, Count: clubCounts[club]})
	}
	sort.SliceStable(m.SalesByClub, func(i, j int) bool {
		return m.SalesByClub[i].Count > m.SalesByClub[j].Count
	})

	monthKeys := make([]string, 0, len(monthRevenue))
	for key := range monthRevenue {
		monthKeys = append(monthKeys, key)
	}
	sort.Slice(monthKeys, func(i, j int) bool {
		return monthStarts[monthKeys[i]].Before(monthStarts[monthKeys[j]])
	})
	for _, key := range monthKeys {
		m.RevenueByMonth = append(m.RevenueByMonth, domain.MonthRevenue{Month: key, Revenue: monthRevenue[key]})
	}

	return m
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InventoryItem struct {
	ID         string          `json:"id"`
	SKU        string          `json:"sku"`
	Club       string          `json:"club"`
	PlayerName string          `json:"player_name"`
	Size       string          `json:"size"`
	Cost       decimal.Decimal `json:"cost"`
	Status     string          `json:"status"`
	DateAdded  time.Time       `json:"date_added"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Sale carries its inventory row on list reads. Item is nil when the
// underlying item has been removed.
type Sale struct {
	ID           string          `json:"id"`
	ItemID       string          `json:"item_id"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	PlatformFees decimal.Decimal `json:"platform_fees"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Profit       decimal.Decimal `json:"profit"`
	Platform     string          `json:"platform,omitempty"`
	SaleDate     time.Time       `json:"sale_date"`
	CreatedAt    time.Time       `json:"created_at"`
	Item         *InventoryItem  `json:"item,omitempty"`
}

type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	ExpenseDate time.Time       `json:"expense_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SizeQuantity struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type AddStockRequest struct {
	Club       string           `json:"club"`
	PlayerName string           `json:"player_name"`
	Cost       *decimal.Decimal `json:"cost,omitempty"`
	DateAdded  string           `json:"date_added,omitempty"`
	Sizes      []SizeQuantity   `json:"sizes"`
}

type AddStockResponse struct {
	BatchID          string          `json:"batch_id"`
	Items            []InventoryItem `json:"items"`
	ExpenseID        string          `json:"expense_id,omitempty"`
	SKUCountDegraded bool            `json:"sku_count_degraded"`
}

type ItemUpdateRequest struct {
	Club       *string          `json:"club,omitempty"`
	PlayerName *string          `json:"player_name,omitempty"`
	Size       *string          `json:"size,omitempty"`
	Cost       *decimal.Decimal `json:"cost,omitempty"`
	DateAdded  *string          `json:"date_added,omitempty"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type BulkStatusRequest struct {
	ItemIDs []string `json:"item_ids"`
	Status  string   `json:"status"`
}

type BulkStatusFailure struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

type BulkStatusResponse struct {
	Updated []string            `json:"updated"`
	Failed  []BulkStatusFailure `json:"failed"`
}

type SellRequest struct {
	SalePrice    decimal.Decimal `json:"sale_price"`
	PlatformFees decimal.Decimal `json:"platform_fees"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Platform     string          `json:"platform,omitempty"`
	SaleDate     string          `json:"sale_date,omitempty"`
}

type SellResponse struct {
	Sale Sale          `json:"sale"`
	Item InventoryItem `json:"item"`
}

type SaleUpdateRequest struct {
	SalePrice    *decimal.Decimal `json:"sale_price,omitempty"`
	PlatformFees *decimal.Decimal `json:"platform_fees,omitempty"`
	ShippingCost *decimal.Decimal `json:"shipping_cost,omitempty"`
	Platform     *string          `json:"platform,omitempty"`
	SaleDate     *string          `json:"sale_date,omitempty"`
}

type ExpenseCreateRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	ExpenseDate string          `json:"expense_date,omitempty"`
}

type ExpenseUpdateRequest struct {
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    *string          `json:"category,omitempty"`
	ExpenseDate *string          `json:"expense_date,omitempty"`
}

type ClubSales struct {
	Club  string `json:"club"`
	Count int    `json:"count"`
}

type MonthRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DashboardMetrics struct {
	TotalItems       int             `json:"total_items"`
	InStockCount     int             `json:"in_stock_count"`
	ListedCount      int             `json:"listed_count"`
	SoldCount        int             `json:"sold_count"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	SellThroughRate  float64         `json:"sell_through_rate"`
	AvgSalePrice     decimal.Decimal `json:"avg_sale_price"`
	AvgProfitPerSale decimal.Decimal `json:"avg_profit_per_sale"`
	InventoryValue   decimal.Decimal `json:"inventory_value"`
	ROIPercent       float64         `json:"roi_percent"`
	SalesByClub      []ClubSales     `json:"sales_by_club"`
	RevenueByMonth   []MonthRevenue  `json:"revenue_by_month"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	StatusInStock = "In Stock"
	StatusListed  = "Listed"
	StatusSold    = "Sold"
)

const CategoryStockPurchase = "Stock Purchase"

// PlayerNoName marks a blank jersey. Items are stored and grouped with
// this sentinel instead of an empty player name.
const PlayerNoName = "No Name"

// ExpenseCategories is the fixed category list, in display order.
var ExpenseCategories = []string{
	CategoryStockPurchase,
	"Packaging",
	"Printing",
	"Shipping",
	"PayPal Fees",
	"Marketing",
	"Office Supplies",
	"Other",
}

func IsValidStatus(status string) bool {
	return status == StatusInStock || status == StatusListed || status == StatusSold
}

func IsValidExpenseCategory(category string) bool {
	for _, known := range ExpenseCategories {
		if category == known {
			return true
		}
	}
	return false
}

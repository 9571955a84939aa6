package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kitflip/backend/internal/cache"
	"kitflip/backend/internal/domain"
	"kitflip/backend/internal/grouping"
	"kitflip/backend/internal/metrics"
	"kitflip/backend/internal/sku"
	"kitflip/backend/internal/store"
	"kitflip/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const (
	metricsCacheKey = "kitflip:dashboard:metrics"
	dateLayout      = "2006-01-02"
)

type Options struct {
	MetricsTTL      time.Duration
	AllowSoldDelete bool
	DefaultItemCost decimal.Decimal
}

type Service struct {
	repo            store.Repository
	metricsCache    cache.MetricsCache
	metricsTTL      time.Duration
	logger          *zap.Logger
	allowSoldDelete bool
	defaultItemCost decimal.Decimal
}

func New(repo store.Repository, metricsCache cache.MetricsCache, logger *zap.Logger, opts Options) *Service {
	if metricsCache == nil {
		metricsCache = cache.NoopMetricsCache{}
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if opts.MetricsTTL <= 0 {
		opts.MetricsTTL = 30 * time.Second
	}
	if opts.DefaultItemCost.IsZero() {
		opts.DefaultItemCost = decimal.RequireFromString("9.20")
	}

	return &Service{
		repo:            repo,
		metricsCache:    metricsCache,
		metricsTTL:      opts.MetricsTTL,
		logger:          logger,
		allowSoldDelete: opts.AllowSoldDelete,
		defaultItemCost: opts.DefaultItemCost,
	}
}

func (s *Service) ListInventory(ctx context.Context, status string) ([]domain.InventoryItem, error) {
	status = strings.TrimSpace(status)
	if status != "" && !domain.IsValidStatus(status) {
		return nil, store.ErrInvalidInput
	}

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return items, nil
	}

	filtered := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.Status == status {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// GroupedInventory filters first, then groups, so every counter in the
// tree refers to the filtered set.
func (s *Service) GroupedInventory(ctx context.Context, status string) ([]grouping.ClubGroup, error) {
	items, err := s.ListInventory(ctx, status)
	if err != nil {
		return nil, err
	}
	return grouping.Build(items), nil
}

func (s *Service) AddStock(ctx context.Context, req domain.AddStockRequest) (domain.AddStockResponse, error) {
	club := strings.TrimSpace(req.Club)
	player := strings.TrimSpace(req.PlayerName)
	if player == "" {
		player = domain.PlayerNoName
	}
	if club == "" || len(req.Sizes) == 0 {
		return domain.AddStockResponse{}, store.ErrInvalidInput
	}

	cost := s.defaultItemCost
	if req.Cost != nil {
		if req.Cost.IsNegative() {
			return domain.AddStockResponse{}, store.ErrInvalidInput
		}
		cost = *req.Cost
	}

	dateAdded, err := parseDateOrToday(req.DateAdded)
	if err != nil {
		return domain.AddStockResponse{}, store.ErrInvalidInput
	}

	now := time.Now().UTC()
	degraded := false
	totalQty := 0
	items := make([]domain.InventoryItem, 0, len(req.Sizes))

	for _, row := range req.Sizes {
		size := strings.TrimSpace(row.Size)
		if size == "" || row.Quantity < 1 {
			return domain.AddStockResponse{}, store.ErrInvalidInput
		}

		// The existing count is looked up once per size group; the
		// ordinals of this group extend it.
		prefix := sku.Prefix(club, player, size)
		existing, err := s.repo.CountItemsBySKUPrefix(ctx, prefix)
		if err != nil {
			s.logger.Warn("sku count lookup failed, assuming zero existing",
				zap.String("prefix", prefix),
				zap.Error(err))
			existing = 0
			degraded = true
		}

		for i := 1; i <= row.Quantity; i++ {
			items = append(items, domain.InventoryItem{
				ID:         uuid.NewString(),
				SKU:        sku.Generate(club, player, size, existing+i),
				Club:       club,
				PlayerName: player,
				Size:       size,
				Cost:       cost,
				Status:     domain.StatusInStock,
				DateAdded:  dateAdded,
				CreatedAt:  now,
			})
		}
		totalQty += row.Quantity
	}

	created, err := s.repo.CreateItems(ctx, items)
	if err != nil {
		return domain.AddStockResponse{}, err
	}

	batchID := xid.New("batch")
	resp := domain.AddStockResponse{
		BatchID:          batchID,
		Items:            created,
		SKUCountDegraded: degraded,
	}

	// One expense per submission covering the whole batch. Failure to
	// record it must not undo the stock that was just added.
	expense := domain.Expense{
		ID:          uuid.NewString(),
		Description: fmt.Sprintf("Stock purchase: %dx %s %s", totalQty, club, player),
		Amount:      cost.Mul(decimal.NewFromInt(int64(totalQty))),
		Category:    domain.CategoryStockPurchase,
		ExpenseDate: dateAdded,
		CreatedAt:   now,
	}
	if createdExpense, err := s.repo.CreateExpense(ctx, expense); err != nil {
		s.logger.Warn("auto expense failed for stock batch",
			zap.String("batch_id", batchID),
			zap.Error(err))
	} else {
		resp.ExpenseID = createdExpense.ID
	}

	s.logAudit(ctx, "stock_add", "inventory_batch", batchID, fmt.Sprintf("club=%s,player=%s,qty=%d", club, player, totalQty))
	s.invalidateMetrics(ctx)

	return resp, nil
}

func (s *Service) GetItem(ctx context.Context, id string) (domain.InventoryItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.InventoryItem{}, store.ErrInvalidInput
	}
	item, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return *item, nil
}

func (s *Service) UpdateItem(ctx context.Context, id string, req domain.ItemUpdateRequest) (domain.InventoryItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.InventoryItem{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	updated := *existing
	if req.Club != nil {
		club := strings.TrimSpace(*req.Club)
		if club == "" {
			return domain.InventoryItem{}, store.ErrInvalidInput
		}
		updated.Club = club
	}
	if req.PlayerName != nil {
		player := strings.TrimSpace(*req.PlayerName)
		if player == "" {
			player = domain.PlayerNoName
		}
		updated.PlayerName = player
	}
	if req.Size != nil {
		size := strings.TrimSpace(*req.Size)
		if size == "" {
			return domain.InventoryItem{}, store.ErrInvalidInput
		}
		updated.Size = size
	}
	if req.Cost != nil {
		if req.Cost.IsNegative() {
			return domain.InventoryItem{}, store.ErrInvalidInput
		}
		updated.Cost = *req.Cost
	}
	if req.DateAdded != nil {
		date, err := time.Parse(dateLayout, strings.TrimSpace(*req.DateAdded))
		if err != nil {
			return domain.InventoryItem{}, store.ErrInvalidInput
		}
		updated.DateAdded = date.UTC()
	}

	// The SKU keeps its original code even when club or player change,
	// so printed labels stay valid.
	saved, err := s.repo.UpdateItem(ctx, updated)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	s.logAudit(ctx, "item_update", "inventory_item", saved.ID, fmt.Sprintf("sku=%s", saved.SKU))
	s.invalidateMetrics(ctx)

	return *saved, nil
}

// UpdateStatus toggles between In Stock and Listed. Sold is reached only
// through SellItem and is terminal.
func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (domain.InventoryItem, error) {
	id = strings.TrimSpace(id)
	status = strings.TrimSpace(status)
	if id == "" {
		return domain.InventoryItem{}, store.ErrInvalidInput
	}
	if status != domain.StatusInStock && status != domain.StatusListed {
		return domain.InventoryItem{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	if existing.Status == domain.StatusSold {
		return domain.InventoryItem{}, store.ErrItemSold
	}

	updated, err := s.repo.UpdateItemStatus(ctx, id, status)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	s.logAudit(ctx, "item_status", "inventory_item", updated.ID, fmt.Sprintf("sku=%s,status=%s", updated.SKU, status))
	s.invalidateMetrics(ctx)

	return *updated, nil
}

// BulkUpdateStatus applies the status change item by item. A failure
// does not roll back the items already updated.
func (s *Service) BulkUpdateStatus(ctx context.Context, req domain.BulkStatusRequest) (domain.BulkStatusResponse, error) {
	status := strings.TrimSpace(req.Status)
	if len(req.ItemIDs) == 0 {
		return domain.BulkStatusResponse{}, store.ErrInvalidInput
	}
	if status != domain.StatusInStock && status != domain.StatusListed {
		return domain.BulkStatusResponse{}, store.ErrInvalidInput
	}

	resp := domain.BulkStatusResponse{
		Updated: make([]string, 0, len(req.ItemIDs)),
		Failed:  make([]domain.BulkStatusFailure, 0),
	}

	for _, id := range req.ItemIDs {
		if _, err := s.UpdateStatus(ctx, id, status); err != nil {
			resp.Failed = append(resp.Failed, domain.BulkStatusFailure{
				ItemID: id,
				Reason: err.Error(),
			})
			continue
		}
		resp.Updated = append(resp.Updated, id)
	}

	return resp, nil
}

func (s *Service) SellItem(ctx context.Context, itemID string, req domain.SellRequest) (domain.SellResponse, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return domain.SellResponse{}, store.ErrInvalidInput
	}
	if !req.SalePrice.IsPositive() || req.PlatformFees.IsNegative() || req.ShippingCost.IsNegative() {
		return domain.SellResponse{}, store.ErrInvalidInput
	}

	saleDate, err := parseDateOrToday(req.SaleDate)
	if err != nil {
		return domain.SellResponse{}, store.ErrInvalidInput
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return domain.SellResponse{}, err
	}
	if item.Status == domain.StatusSold {
		return domain.SellResponse{}, store.ErrItemSold
	}

	sale := domain.Sale{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		SalePrice:    req.SalePrice,
		PlatformFees: req.PlatformFees,
		ShippingCost: req.ShippingCost,
		Profit:       saleProfit(req.SalePrice, req.PlatformFees, req.ShippingCost, item.Cost),
		Platform:     strings.TrimSpace(req.Platform),
		SaleDate:     saleDate,
		CreatedAt:    time.Now().UTC(),
	}

	recorded, err := s.repo.RecordSale(ctx, sale)
	if err != nil {
		return domain.SellResponse{}, err
	}

	soldItem := *item
	soldItem.Status = domain.StatusSold

	s.logAudit(ctx, "item_sell", "sale", recorded.ID, fmt.Sprintf("sku=%s,price=%s,profit=%s", item.SKU, recorded.SalePrice, recorded.Profit))
	s.invalidateMetrics(ctx)

	return domain.SellResponse{Sale: *recorded, Item: soldItem}, nil
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}

	item, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		return err
	}
	if item.Status == domain.StatusSold && !s.allowSoldDelete {
		return store.ErrItemSold
	}

	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}

	s.logAudit(ctx, "item_delete", "inventory_item", id, fmt.Sprintf("sku=%s,status=%s", item.SKU, item.Status))
	s.invalidateMetrics(ctx)

	return nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

// UpdateSale recomputes profit against the item's current cost, not the
// cost at sale time.
func (s *Service) UpdateSale(ctx context.Context, id string, req domain.SaleUpdateRequest) (domain.Sale, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Sale{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}

	updated := *existing
	if req.SalePrice != nil {
		if !req.SalePrice.IsPositive() {
			return domain.Sale{}, store.ErrInvalidInput
		}
		updated.SalePrice = *req.SalePrice
	}
	if req.PlatformFees != nil {
		if req.PlatformFees.IsNegative() {
			return domain.Sale{}, store.ErrInvalidInput
		}
		updated.PlatformFees = *req.PlatformFees
	}
	if req.ShippingCost != nil {
		if req.ShippingCost.IsNegative() {
			return domain.Sale{}, store.ErrInvalidInput
		}
		updated.ShippingCost = *req.ShippingCost
	}
	if req.Platform != nil {
		updated.Platform = strings.TrimSpace(*req.Platform)
	}
	if req.SaleDate != nil {
		date, err := time.Parse(dateLayout, strings.TrimSpace(*req.SaleDate))
		if err != nil {
			return domain.Sale{}, store.ErrInvalidInput
		}
		updated.SaleDate = date.UTC()
	}

	itemCost := decimal.Zero
	if existing.Item != nil {
		itemCost = existing.Item.Cost
	}
	updated.Profit = saleProfit(updated.SalePrice, updated.PlatformFees, updated.ShippingCost, itemCost)

	saved, err := s.repo.UpdateSale(ctx, updated)
	if err != nil {
		return domain.Sale{}, err
	}
	saved.Item = existing.Item

	s.logAudit(ctx, "sale_update", "sale", saved.ID, fmt.Sprintf("price=%s,profit=%s", saved.SalePrice, saved.Profit))
	s.invalidateMetrics(ctx)

	return *saved, nil
}

// DeleteSale removes the sale row only. The item stays Sold; restocking
// a deleted sale is a manual correction.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}

	if err := s.repo.DeleteSale(ctx, id); err != nil {
		return err
	}

	s.logAudit(ctx, "sale_delete", "sale", id, "")
	s.invalidateMetrics(ctx)

	return nil
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	description := strings.TrimSpace(req.Description)
	category := strings.TrimSpace(req.Category)
	if description == "" || !domain.IsValidExpenseCategory(category) {
		return domain.Expense{}, store.ErrInvalidInput
	}
	if !req.Amount.IsPositive() {
		return domain.Expense{}, store.ErrInvalidInput
	}

	expenseDate, err := parseDateOrToday(req.ExpenseDate)
	if err != nil {
		return domain.Expense{}, store.ErrInvalidInput
	}

	expense := domain.Expense{
		ID:          uuid.NewString(),
		Description: description,
		Amount:      req.Amount,
		Category:    category,
		ExpenseDate: expenseDate,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}

	s.logAudit(ctx, "expense_create", "expense", created.ID, fmt.Sprintf("category=%s,amount=%s", created.Category, created.Amount))
	s.invalidateMetrics(ctx)

	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

func (s *Service) UpdateExpense(ctx context.Context, id string, req domain.ExpenseUpdateRequest) (domain.Expense, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Expense{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return domain.Expense{}, err
	}

	updated := *existing
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			return domain.Expense{}, store.ErrInvalidInput
		}
		updated.Description = description
	}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return domain.Expense{}, store.ErrInvalidInput
		}
		updated.Amount = *req.Amount
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if !domain.IsValidExpenseCategory(category) {
			return domain.Expense{}, store.ErrInvalidInput
		}
		updated.Category = category
	}
	if req.ExpenseDate != nil {
		date, err := time.Parse(dateLayout, strings.TrimSpace(*req.ExpenseDate))
		if err != nil {
			return domain.Expense{}, store.ErrInvalidInput
		}
		updated.ExpenseDate = date.UTC()
	}

	saved, err := s.repo.UpdateExpense(ctx, updated)
	if err != nil {
		return domain.Expense{}, err
	}

	s.logAudit(ctx, "expense_update", "expense", saved.ID, fmt.Sprintf("category=%s,amount=%s", saved.Category, saved.Amount))
	s.invalidateMetrics(ctx)

	return *saved, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}

	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}

	s.logAudit(ctx, "expense_delete", "expense", id, "")
	s.invalidateMetrics(ctx)

	return nil
}

func (s *Service) DashboardMetrics(ctx context.Context) (domain.DashboardMetrics, error) {
	if cached, ok, err := s.metricsCache.Get(ctx, metricsCacheKey); err == nil && ok {
		return *cached, nil
	}

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}

	result := metrics.Aggregate(items, sales, expenses)
	_ = s.metricsCache.Set(ctx, metricsCacheKey, &result, s.metricsTTL)

	return result, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	day, err := parseDateOrToday(date)
	if err != nil {
		return nil, store.ErrInvalidInput
	}
	if limit < 1 {
		limit = 100
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("audit log write failed",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func (s *Service) invalidateMetrics(ctx context.Context) {
	if err := s.metricsCache.Invalidate(ctx, metricsCacheKey); err != nil {
		s.logger.Warn("metrics cache invalidation failed", zap.Error(err))
	}
}

func saleProfit(price decimal.Decimal, fees decimal.Decimal, shipping decimal.Decimal, itemCost decimal.Decimal) decimal.Decimal {
	return price.Sub(fees).Sub(shipping).Sub(itemCost)
}

func parseDateOrToday(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	parsed, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

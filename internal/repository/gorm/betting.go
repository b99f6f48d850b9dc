package gormrepository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"matka/internal/models"
	"matka/internal/repository"
)

const settleChunk = 500

func (s *Store) CreateBetting(ctx context.Context, item *models.Betting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListPendingBetsByMarket(ctx context.Context, marketID string) ([]models.Betting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Betting
	err := s.db.WithContext(ctx).
		Where("market_id = ? AND customer_betting_result = ?", strings.TrimSpace(marketID), models.BetPending).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSettledBetsByMarket(ctx context.Context, marketID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Betting{}).
		Where("market_id = ? AND customer_betting_result <> ?", strings.TrimSpace(marketID), models.BetPending).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListBetHistory(ctx context.Context, params repository.ListBetHistoryParams) ([]repository.BetHistoryRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Table("bettings AS b").
		Select(`b.id, b.market_id, COALESCE(m.name, '') AS market_name,
			b.rating_id, COALESCE(r.name, '') AS rating_name, COALESCE(r.type, '') AS rating_type,
			b.choosen_number AS chosen_number, b.amount, b.customer_betting_result AS result,
			b.opening_result, b.created_at, b.settled_at`).
		Joins("LEFT JOIN markets m ON m.id = b.market_id").
		Joins("LEFT JOIN ratings r ON r.id = b.rating_id").
		Where("b.customer_id = ?", strings.TrimSpace(params.CustomerID))
	if params.MarketID != nil && strings.TrimSpace(*params.MarketID) != "" {
		query = query.Where("b.market_id = ?", strings.TrimSpace(*params.MarketID))
	}
	if params.Result != nil && strings.TrimSpace(*params.Result) != "" {
		query = query.Where("b.customer_betting_result = ?", strings.TrimSpace(*params.Result))
	}
	var rows []repository.BetHistoryRow
	err := query.Order("b.created_at desc").
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) MarkBetsSettledTx(ctx context.Context, tx *gorm.DB, ids []string, result string, openingResult string, at time.Time) ([]string, error) {
	db := s.conn(tx)
	if db == nil {
		return nil, nil
	}
	if result != models.BetWin && result != models.BetLoss {
		return nil, errors.New("invalid bet result")
	}
	ids = cleanStrings(ids)
	moved := make([]string, 0, len(ids))
	for start := 0; start < len(ids); start += settleChunk {
		end := start + settleChunk
		if end > len(ids) {
			end = len(ids)
		}
		var rows []models.Betting
		err := db.WithContext(ctx).Model(&rows).
			Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
			Where("id IN ? AND customer_betting_result = ?", ids[start:end], models.BetPending).
			Updates(map[string]any{
				"customer_betting_result": result,
				"opening_result":          openingResult,
				"settled_at":              at,
				"updated_at":              at,
			}).Error
		if err != nil {
			return moved, err
		}
		for _, row := range rows {
			moved = append(moved, row.ID)
		}
	}
	return moved, nil
}

func (s *Store) GetBalanceByCustomerID(ctx context.Context, customerID string) (*models.Balance, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Balance
	err := s.db.WithContext(ctx).Where("customer_id = ?", strings.TrimSpace(customerID)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) IncrementBalancesTx(ctx context.Context, tx *gorm.DB, deltas map[string]decimal.Decimal, at time.Time) error {
	db := s.conn(tx)
	if db == nil || len(deltas) == 0 {
		return nil
	}
	// Sorted keys give concurrent sweeps the same row lock order.
	keys := make([]string, 0, len(deltas))
	for id := range deltas {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	rows := make([]models.Balance, 0, len(keys))
	for _, id := range keys {
		rows = append(rows, models.Balance{
			CustomerID:    id,
			BalanceAmount: deltas[id],
			CreatedAt:     at,
			UpdatedAt:     at,
		})
	}
	return createInBatches(db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance_amount": gorm.Expr("balances.balance_amount + excluded.balance_amount"),
			"updated_at":     gorm.Expr("excluded.updated_at"),
		}),
	}), rows, 200)
}

// --- settlement runs --------------------------------------------------------

func (s *Store) InsertSettlementRun(ctx context.Context, item *models.SettlementRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateSettlementRun(ctx context.Context, item *models.SettlementRun) error {
	if s == nil || s.db == nil || item == nil || item.ID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.SettlementRun{}).
		Where("id = ?", item.ID).
		Select("status", "outcome", "pending", "settled", "won", "lost", "unresolved", "customers", "details", "error", "finished_at").
		Updates(item).Error
}

func (s *Store) ListSettlementRuns(ctx context.Context, params repository.ListSettlementRunsParams) ([]models.SettlementRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SettlementRun{})
	if params.MarketID != nil && strings.TrimSpace(*params.MarketID) != "" {
		query = query.Where("market_id = ?", strings.TrimSpace(*params.MarketID))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	var items []models.SettlementRun
	err := applyOrder(query, "", nil, "started_at").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	if s == nil {
		return nil
	}
	return s.db
}

package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"matka/internal/models"
)

type MarketRepository interface {
	CreateMarket(ctx context.Context, item *models.Market) error
	// UpdateMarket writes the editable columns only; is_declared is never touched here.
	UpdateMarket(ctx context.Context, item *models.Market) error
	GetMarketByID(ctx context.Context, id string) (*models.Market, error)
	ListMarkets(ctx context.Context, params ListMarketsParams) ([]models.Market, error)
	// DeclareMarket flips is_declared false -> true and reports whether this call won the flip.
	DeclareMarket(ctx context.Context, id string, at time.Time) (bool, error)
	ListDeclaredMarketIDsWithPendingBets(ctx context.Context, limit int) ([]string, error)
}

type RatingRepository interface {
	CreateRating(ctx context.Context, item *models.Rating) error
	UpdateRating(ctx context.Context, item *models.Rating) error
	GetRatingByID(ctx context.Context, id string) (*models.Rating, error)
	ListRatings(ctx context.Context, params ListRatingsParams) ([]models.Rating, error)
	ListRatingsByIDs(ctx context.Context, ids []string) ([]models.Rating, error)
}

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, item *models.Customer) error
	GetCustomerByID(ctx context.Context, id string) (*models.Customer, error)
	GetCustomerByMobile(ctx context.Context, mobile string) (*models.Customer, error)
}

type BettingRepository interface {
	CreateBetting(ctx context.Context, item *models.Betting) error
	ListPendingBetsByMarket(ctx context.Context, marketID string) ([]models.Betting, error)
	CountSettledBetsByMarket(ctx context.Context, marketID string) (int64, error)
	ListBetHistory(ctx context.Context, params ListBetHistoryParams) ([]BetHistoryRow, error)
	// MarkBetsSettledTx moves the given bets out of Pending and returns the ids that actually moved.
	MarkBetsSettledTx(ctx context.Context, tx *gorm.DB, ids []string, result string, openingResult string, at time.Time) ([]string, error)
}

type BalanceRepository interface {
	GetBalanceByCustomerID(ctx context.Context, customerID string) (*models.Balance, error)
	// IncrementBalancesTx adds each delta to the customer's balance, creating missing rows at zero.
	IncrementBalancesTx(ctx context.Context, tx *gorm.DB, deltas map[string]decimal.Decimal, at time.Time) error
}

type SettlementRunRepository interface {
	InsertSettlementRun(ctx context.Context, item *models.SettlementRun) error
	UpdateSettlementRun(ctx context.Context, item *models.SettlementRun) error
	ListSettlementRuns(ctx context.Context, params ListSettlementRunsParams) ([]models.SettlementRun, error)
}

type SystemSettingRepository interface {
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
	CountSystemSettings(ctx context.Context, params ListSystemSettingsParams) (int64, error)
}

// SettlementRepository is the store surface a settlement sweep needs.
type SettlementRepository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	GetMarketByID(ctx context.Context, id string) (*models.Market, error)
	ListPendingBetsByMarket(ctx context.Context, marketID string) ([]models.Betting, error)
	ListRatingsByIDs(ctx context.Context, ids []string) ([]models.Rating, error)
	MarkBetsSettledTx(ctx context.Context, tx *gorm.DB, ids []string, result string, openingResult string, at time.Time) ([]string, error)
	IncrementBalancesTx(ctx context.Context, tx *gorm.DB, deltas map[string]decimal.Decimal, at time.Time) error
	InsertSettlementRun(ctx context.Context, item *models.SettlementRun) error
	UpdateSettlementRun(ctx context.Context, item *models.SettlementRun) error
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	MarketRepository
	RatingRepository
	CustomerRepository
	BettingRepository
	BalanceRepository
	SettlementRunRepository
	SystemSettingRepository
}

type ListMarketsParams struct {
	Limit      int
	Offset     int
	ActiveOnly bool
	Declared   *bool
	OrderBy    string
	Asc        *bool
}

type ListRatingsParams struct {
	Limit      int
	Offset     int
	ActiveOnly bool
	Type       *string
	OrderBy    string
	Asc        *bool
}

type ListBetHistoryParams struct {
	Limit      int
	Offset     int
	CustomerID string
	MarketID   *string
	Result     *string
}

type ListSettlementRunsParams struct {
	Limit    int
	Offset   int
	MarketID *string
	Status   *string
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}

// BetHistoryRow is a bet joined with the names a customer recognises.
type BetHistoryRow struct {
	ID            string
	MarketID      string
	MarketName    string
	RatingID      string
	RatingName    string
	RatingType    string
	ChosenNumber  string
	Amount        decimal.Decimal
	Result        string
	OpeningResult string
	CreatedAt     time.Time
	SettledAt     *time.Time
}

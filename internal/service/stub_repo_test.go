package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"matka/internal/models"
	"matka/internal/notify"
	"matka/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
type stubRepo struct {
	mu sync.Mutex

	markets   map[string]*models.Market
	ratings   map[string]*models.Rating
	customers map[string]*models.Customer
	bets      map[string]*models.Betting
	balances  map[string]decimal.Decimal
	settings  map[string]*models.SystemSetting
	runs      []models.SettlementRun
}

var _ repository.Repository = (*stubRepo)(nil)

func newStubRepo() *stubRepo {
	return &stubRepo{
		markets:   map[string]*models.Market{},
		ratings:   map[string]*models.Rating{},
		customers: map[string]*models.Customer{},
		bets:      map[string]*models.Betting{},
		balances:  map[string]decimal.Decimal{},
		settings:  map[string]*models.SystemSetting{},
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) CreateMarket(ctx context.Context, item *models.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.markets[item.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateMarket(ctx context.Context, item *models.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.markets[item.ID]
	if !ok {
		return nil
	}
	declared, at := cur.IsDeclared, cur.DeclaredAt
	cp := *item
	cp.IsDeclared, cp.DeclaredAt = declared, at
	s.markets[item.ID] = &cp
	return nil
}

func (s *stubRepo) GetMarketByID(ctx context.Context, id string) (*models.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markets[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *stubRepo) ListMarkets(ctx context.Context, params repository.ListMarketsParams) ([]models.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Market
	for _, m := range s.markets {
		if params.ActiveOnly && !m.IsActive {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubRepo) DeclareMarket(ctx context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markets[id]
	if !ok || m.IsDeclared {
		return false, nil
	}
	m.IsDeclared = true
	m.DeclaredAt = &at
	return true, nil
}

func (s *stubRepo) ListDeclaredMarketIDsWithPendingBets(ctx context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, b := range s.bets {
		m, ok := s.markets[b.MarketID]
		if !ok || !m.IsDeclared || b.Result != models.BetPending || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m.ID)
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) CreateRating(ctx context.Context, item *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.ratings[item.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateRating(ctx context.Context, item *models.Rating) error {
	return s.CreateRating(ctx, item)
}

func (s *stubRepo) GetRatingByID(ctx context.Context, id string) (*models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ratings[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *stubRepo) ListRatings(ctx context.Context, params repository.ListRatingsParams) ([]models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Rating
	for _, r := range s.ratings {
		if params.ActiveOnly && !r.IsActive {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *stubRepo) ListRatingsByIDs(ctx context.Context, ids []string) ([]models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Rating
	for _, id := range ids {
		if r, ok := s.ratings[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubRepo) CreateCustomer(ctx context.Context, item *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.customers[item.ID] = &cp
	return nil
}

func (s *stubRepo) GetCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *stubRepo) GetCustomerByMobile(ctx context.Context, mobile string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.Mobile == mobile {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) CreateBetting(ctx context.Context, item *models.Betting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.bets[item.ID] = &cp
	return nil
}

func (s *stubRepo) ListPendingBetsByMarket(ctx context.Context, marketID string) ([]models.Betting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Betting
	for _, b := range s.bets {
		if b.MarketID == marketID && b.Result == models.BetPending {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubRepo) CountSettledBetsByMarket(ctx context.Context, marketID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.bets {
		if b.MarketID == marketID && b.Result != models.BetPending {
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) ListBetHistory(ctx context.Context, params repository.ListBetHistoryParams) ([]repository.BetHistoryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.BetHistoryRow
	for _, b := range s.bets {
		if b.CustomerID != params.CustomerID {
			continue
		}
		out = append(out, repository.BetHistoryRow{
			ID:           b.ID,
			MarketID:     b.MarketID,
			RatingID:     b.RatingID,
			ChosenNumber: b.ChosenNumber,
			Amount:       b.Amount,
			Result:       b.Result,
		})
	}
	return out, nil
}

func (s *stubRepo) MarkBetsSettledTx(ctx context.Context, tx *gorm.DB, ids []string, result string, openingResult string, at time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var moved []string
	for _, id := range ids {
		b, ok := s.bets[id]
		if !ok || b.Result != models.BetPending {
			continue
		}
		b.Result = result
		b.OpeningResult = openingResult
		moved = append(moved, id)
	}
	return moved, nil
}

func (s *stubRepo) GetBalanceByCustomerID(ctx context.Context, customerID string) (*models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.balances[customerID]
	if !ok {
		return nil, nil
	}
	return &models.Balance{CustomerID: customerID, BalanceAmount: v}, nil
}

func (s *stubRepo) IncrementBalancesTx(ctx context.Context, tx *gorm.DB, deltas map[string]decimal.Decimal, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, d := range deltas {
		s.balances[k] = s.balances[k].Add(d)
	}
	return nil
}

func (s *stubRepo) InsertSettlementRun(ctx context.Context, item *models.SettlementRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *item)
	return nil
}

func (s *stubRepo) UpdateSettlementRun(ctx context.Context, item *models.SettlementRun) error {
	return nil
}

func (s *stubRepo) ListSettlementRuns(ctx context.Context, params repository.ListSettlementRunsParams) ([]models.SettlementRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SettlementRun
	for _, r := range s.runs {
		if params.MarketID != nil && r.MarketID != *params.MarketID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *stubRepo) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.settings[item.Key] = &cp
	return nil
}

func (s *stubRepo) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (s *stubRepo) ListSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SystemSetting
	for _, v := range s.settings {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *stubRepo) CountSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.settings)), nil
}

// recordingQueue captures submitted sweeps.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []string
	err  error
}

func (q *recordingQueue) Submit(marketID, trigger string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, marketID+"/"+trigger)
	return nil
}

func (q *recordingQueue) submitted() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.jobs...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *recordingSink) Notify(ctx context.Context, ev notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) count(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.Action == action {
			n++
		}
	}
	return n
}

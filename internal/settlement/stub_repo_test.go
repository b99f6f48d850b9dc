package settlement

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"matka/internal/models"
	"matka/internal/notify"
)

type stubRepo struct {
	mu sync.Mutex

	markets  map[string]*models.Market
	bets     map[string]*models.Betting
	ratings  map[string]models.Rating
	balances map[string]decimal.Decimal

	balanceWrites int
	runs          []models.SettlementRun
	incrementErr  error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		markets:  map[string]*models.Market{},
		bets:     map[string]*models.Betting{},
		ratings:  map[string]models.Rating{},
		balances: map[string]decimal.Decimal{},
	}
}

func (r *stubRepo) addBet(id, customer, market, rating, choice string, amount int64) {
	r.bets[id] = &models.Betting{
		ID:           id,
		CustomerID:   customer,
		MarketID:     market,
		RatingID:     rating,
		ChosenNumber: choice,
		Amount:       decimal.NewFromInt(amount),
		Result:       models.BetPending,
	}
}

func (r *stubRepo) result(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bets[id].Result
}

func (r *stubRepo) balance(customer string) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[customer]
}

func (r *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (r *stubRepo) GetMarketByID(ctx context.Context, id string) (*models.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markets[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *stubRepo) ListPendingBetsByMarket(ctx context.Context, marketID string) ([]models.Betting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Betting
	for _, b := range r.bets {
		if b.MarketID == marketID && b.Result == models.BetPending {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubRepo) ListRatingsByIDs(ctx context.Context, ids []string) ([]models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Rating
	for _, id := range ids {
		if rt, ok := r.ratings[id]; ok {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (r *stubRepo) MarkBetsSettledTx(ctx context.Context, tx *gorm.DB, ids []string, result string, openingResult string, at time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var moved []string
	for _, id := range ids {
		b, ok := r.bets[id]
		if !ok || b.Result != models.BetPending {
			continue
		}
		b.Result = result
		b.OpeningResult = openingResult
		t := at
		b.SettledAt = &t
		moved = append(moved, id)
	}
	return moved, nil
}

func (r *stubRepo) IncrementBalancesTx(ctx context.Context, tx *gorm.DB, deltas map[string]decimal.Decimal, at time.Time) error {
	if r.incrementErr != nil {
		return r.incrementErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, d := range deltas {
		r.balances[id] = r.balances[id].Add(d)
		r.balanceWrites++
	}
	return nil
}

func (r *stubRepo) InsertSettlementRun(ctx context.Context, item *models.SettlementRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = uint64(len(r.runs) + 1)
	r.runs = append(r.runs, *item)
	return nil
}

func (r *stubRepo) UpdateSettlementRun(ctx context.Context, item *models.SettlementRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == 0 || int(item.ID) > len(r.runs) {
		return nil
	}
	r.runs[item.ID-1] = *item
	return nil
}

func (r *stubRepo) lastRun() models.SettlementRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[len(r.runs)-1]
}

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) Notify(ctx context.Context, ev notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev.Action)
	return nil
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

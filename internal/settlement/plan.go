package settlement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"matka/internal/models"
)

// Decision is the terminal result computed for one pending bet.
type Decision struct {
	BetID      string
	CustomerID string
	Result     string
	Delta      decimal.Decimal
}

// Unresolved is a pending bet the sweep left untouched.
type Unresolved struct {
	BetID    string `json:"bet_id"`
	RatingID string `json:"rating_id"`
	Reason   string `json:"reason"`
}

type Plan struct {
	Decisions  []Decision
	Unresolved []Unresolved
	// UnknownType holds bets settled as a loss because their rating type is not recognised.
	UnknownType []string
}

// BuildPlan evaluates every bet against o. Bets whose rating is missing, or whose
// winning payout cannot be computed, land in Unresolved instead of Decisions.
func BuildPlan(o Outcome, bets []models.Betting, ratings map[string]models.Rating) Plan {
	var p Plan
	for _, bet := range bets {
		rating, ok := ratings[bet.RatingID]
		if !ok {
			p.Unresolved = append(p.Unresolved, Unresolved{
				BetID:    bet.ID,
				RatingID: bet.RatingID,
				Reason:   ErrUnresolvableRating.Error() + ": rating not found",
			})
			continue
		}
		won := false
		rt, err := ParseRatingType(rating.Type)
		if err != nil {
			p.UnknownType = append(p.UnknownType, bet.ID)
		} else {
			won = IsWinner(rt, bet.ChosenNumber, o)
		}
		payout := decimal.Zero
		if won {
			payout, err = Payout(bet.Amount, rating.ConvertA, rating.ConvertB)
			if err != nil {
				p.Unresolved = append(p.Unresolved, Unresolved{
					BetID:    bet.ID,
					RatingID: bet.RatingID,
					Reason:   fmt.Sprintf("%s: %v", ErrUnresolvableRating, err),
				})
				continue
			}
		}
		result := models.BetLoss
		if won {
			result = models.BetWin
		}
		p.Decisions = append(p.Decisions, Decision{
			BetID:      bet.ID,
			CustomerID: bet.CustomerID,
			Result:     result,
			Delta:      Delta(won, bet.Amount, payout),
		})
	}
	return p
}

// IDs returns the ids of decisions with the given result.
func (p Plan) IDs(result string) []string {
	var out []string
	for _, d := range p.Decisions {
		if d.Result == result {
			out = append(out, d.BetID)
		}
	}
	return out
}

// Deltas sums decisions per customer, counting only bets present in moved.
func (p Plan) Deltas(moved map[string]struct{}) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for _, d := range p.Decisions {
		if _, ok := moved[d.BetID]; !ok {
			continue
		}
		cid := strings.TrimSpace(d.CustomerID)
		out[cid] = out[cid].Add(d.Delta)
	}
	return out
}

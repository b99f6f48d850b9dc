package settlement

import (
	"fmt"
	"strings"
)

// ValidateChoice checks that choice has the shape a bet of type t is settled against.
func ValidateChoice(t RatingType, choice string) error {
	ok := false
	switch t {
	case Single:
		ok = len(choice) == 1 && isDigits(choice)
	case Jodi:
		ok = len(choice) == jodiLen && isDigits(choice)
	case SinglePanna, DoublePanna, TriplePanna:
		ok = len(choice) == pannaLen && isDigits(choice)
	case HalfSangam:
		left, right, found := strings.Cut(choice, "-")
		ok = found && len(left) == pannaLen && isDigits(left) && len(right) == 1 && isDigits(right)
	case FullSangam:
		left, right, found := strings.Cut(choice, "-")
		ok = found && len(left) == pannaLen && isDigits(left) && len(right) == pannaLen && isDigits(right)
	}
	if !ok {
		return fmt.Errorf("%w: %q for %s", ErrInvalidChoice, choice, t)
	}
	return nil
}

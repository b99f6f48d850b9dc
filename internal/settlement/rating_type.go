package settlement

import (
	"fmt"
	"strings"
)

type RatingType uint8

const (
	Single RatingType = iota
	Jodi
	SinglePanna
	DoublePanna
	TriplePanna
	HalfSangam
	FullSangam

	numRatingTypes
)

var ratingTypeNames = [...]string{
	Single:      "single",
	Jodi:        "jodi",
	SinglePanna: "single panna",
	DoublePanna: "double panna",
	TriplePanna: "triple panna",
	HalfSangam:  "half sangam",
	FullSangam:  "full sangam",
}

// Adding a RatingType without a name fails to compile.
var _ = [1]struct{}{}[len(ratingTypeNames)-int(numRatingTypes)]

func (t RatingType) String() string {
	if t >= numRatingTypes {
		return fmt.Sprintf("RatingType(%d)", uint8(t))
	}
	return ratingTypeNames[t]
}

// ParseRatingType accepts the stored names case-insensitively, with any run of
// spaces, dashes or underscores between words.
func ParseRatingType(s string) (RatingType, error) {
	norm := strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), " ")
	for i, name := range ratingTypeNames {
		if name == norm {
			return RatingType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRatingType, s)
}

// RatingTypeNames lists every accepted rating type name in declaration order.
func RatingTypeNames() []string {
	out := make([]string, len(ratingTypeNames))
	copy(out, ratingTypeNames[:])
	return out
}

package settlement

import (
	"strconv"
	"strings"
)

type evalFunc func(choice string, o Outcome) bool

var evaluators = [...]evalFunc{
	Single:      evalSingle,
	Jodi:        evalJodi,
	SinglePanna: evalPanna,
	DoublePanna: evalPanna,
	TriplePanna: evalPanna,
	HalfSangam:  evalHalfSangam,
	FullSangam:  evalFullSangam,
}

// Adding a RatingType without an evaluator fails to compile.
var _ = [1]struct{}{}[len(evaluators)-int(numRatingTypes)]

// IsWinner reports whether choice wins under rating type t for outcome o.
func IsWinner(t RatingType, choice string, o Outcome) bool {
	if t >= numRatingTypes {
		return false
	}
	return evaluators[t](choice, o)
}

func evalSingle(choice string, o Outcome) bool {
	n, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil {
		return false
	}
	return n == o.OpenAnk || n == o.CloseAnk
}

func evalJodi(choice string, o Outcome) bool {
	return choice == o.Jodi
}

func evalPanna(choice string, o Outcome) bool {
	return choice == o.OpenPanna || choice == o.ClosePanna
}

func evalHalfSangam(choice string, o Outcome) bool {
	return choice == o.OpenPanna+"-"+strconv.Itoa(o.CloseAnk) ||
		choice == o.ClosePanna+"-"+strconv.Itoa(o.OpenAnk)
}

func evalFullSangam(choice string, o Outcome) bool {
	return choice == o.OpenPanna+"-"+o.ClosePanna
}

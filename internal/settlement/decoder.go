package settlement

import (
	"fmt"
	"strings"
)

const (
	pannaLen = 3
	jodiLen  = 2
)

// Outcome is a declared market result with the single digits derived from each panna.
type Outcome struct {
	OpenPanna  string
	Jodi       string
	ClosePanna string
	OpenAnk    int
	CloseAnk   int
}

// String renders the triple the way it is stamped on settled bets.
func (o Outcome) String() string {
	return o.OpenPanna + " " + o.Jodi + " " + o.ClosePanna
}

// DeriveAnk returns the digit sum of panna modulo 10.
func DeriveAnk(panna string) (int, error) {
	if panna == "" {
		return 0, fmt.Errorf("%w: empty panna", ErrMalformedOutcome)
	}
	sum := 0
	for _, r := range panna {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q is not numeric", ErrMalformedOutcome, panna)
		}
		sum += int(r - '0')
	}
	return sum % 10, nil
}

// Decode validates a declared triple and derives its anks.
func Decode(openPanna, jodi, closePanna string) (Outcome, error) {
	o := Outcome{
		OpenPanna:  strings.TrimSpace(openPanna),
		Jodi:       strings.TrimSpace(jodi),
		ClosePanna: strings.TrimSpace(closePanna),
	}
	if err := checkDigits("open panna", o.OpenPanna, pannaLen); err != nil {
		return Outcome{}, err
	}
	if err := checkDigits("jodi", o.Jodi, jodiLen); err != nil {
		return Outcome{}, err
	}
	if err := checkDigits("close panna", o.ClosePanna, pannaLen); err != nil {
		return Outcome{}, err
	}
	var err error
	if o.OpenAnk, err = DeriveAnk(o.OpenPanna); err != nil {
		return Outcome{}, err
	}
	if o.CloseAnk, err = DeriveAnk(o.ClosePanna); err != nil {
		return Outcome{}, err
	}
	return o, nil
}

func checkDigits(field, v string, n int) error {
	if len(v) != n {
		return fmt.Errorf("%w: %s %q must be %d digits", ErrMalformedOutcome, field, v, n)
	}
	if !isDigits(v) {
		return fmt.Errorf("%w: %s %q is not numeric", ErrMalformedOutcome, field, v)
	}
	return nil
}

func isDigits(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

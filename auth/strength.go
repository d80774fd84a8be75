package auth

import (
	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// Strength is an advisory estimate. It is shown to the user, never enforced.
type Strength struct {
	Score     int // 0 (weakest) to 4
	CrackTime string
}

// Estimate scores pw with zxcvbn. userInputs are words the estimator should
// treat as guessable, such as the client name.
func Estimate(pw string, userInputs ...string) Strength {
	m := zxcvbn.PasswordStrength(pw, userInputs)
	return Strength{Score: m.Score, CrackTime: m.CrackTimeDisplay}
}

// Label names a zxcvbn score.
func (s Strength) Label() string {
	switch s.Score {
	case 0:
		return "very weak"
	case 1:
		return "weak"
	case 2:
		return "fair"
	case 3:
		return "strong"
	default:
		return "very strong"
	}
}

// Package terms normalizes free-form payment terms into a number of days
// between delivery and payment.
package terms

import (
	"regexp"
	"strconv"
	"strings"

	"deal-workers/internal/models"
)

// DefaultDays is used whenever a term carries no explicit zero-risk language
// and no readable NET period.
const DefaultDays = 30

var netDaysPattern = regexp.MustCompile(`net[\s-]*(\d+)`)

// Parse returns the payment period in days. Matching is case-insensitive and
// the first rule that matches wins; unreadable input yields DefaultDays.
func Parse(term string) int {
	t := strings.ToLower(strings.TrimSpace(term))

	switch {
	case containsAny(t, "advance", "prepaid", "100%"):
		return 0
	case strings.Contains(t, "net"):
		if m := netDaysPattern.FindStringSubmatch(t); m != nil {
			if days, err := strconv.Atoi(m[1]); err == nil {
				return days
			}
		}
		return DefaultDays
	case containsAny(t, "cod", "delivery"):
		return 0
	case containsAny(t, "letter of credit", "l/c"):
		return 0
	}
	return DefaultDays
}

// Classify returns the family of a term. Rules are checked in the same order
// as Parse so a term's kind and its day count always agree.
func Classify(term string) models.TermKind {
	t := strings.ToLower(strings.TrimSpace(term))

	switch {
	case containsAny(t, "advance", "prepaid", "100%"):
		return models.TermAdvance
	case strings.Contains(t, "net"):
		return models.TermNet
	case containsAny(t, "cod", "delivery"):
		return models.TermCashOnDelivery
	case containsAny(t, "letter of credit", "l/c"):
		return models.TermLetterOfCredit
	}
	return models.TermOther
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

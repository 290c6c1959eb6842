package pdfstatement

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// keywordTier is one level of the type-inference ladder.
type keywordTier struct {
	name     string
	keywords []string
	result   TransactionType
}

// typeTiers are checked in order; the first tier with any substring match
// decides the type.
var typeTiers = []keywordTier{
	{
		name: "strong_debit",
		keywords: []string{
			"card payment", "pos purchase", "atm withdrawal", "cash withdrawal",
			"direct debit", "service charge", "monthly rent", "cash wdl",
		},
		result: Debit,
	},
	{
		name: "strong_credit",
		keywords: []string{
			"preauthorized credit", "interest credit", "salary credit", "payroll deposit",
			"biweekly payment", "direct deposit", "credit wage", "wage credit",
		},
		result: Credit,
	},
	{
		name: "credit",
		keywords: []string{
			"credit", "deposit", "interest", "payroll", "refund",
			"salary", "pension", "benefit", "transfer in", "wage",
		},
		result: Credit,
	},
	{
		name: "debit",
		keywords: []string{
			"purchase", "pos", "withdrawal", "atm", "check", "payment",
			"debit", "fee", "charge", "transfer out", "wdl",
		},
		result: Debit,
	},
}

// TypeInferrer infers Credit or Debit from a description.
type TypeInferrer struct {
	mu       sync.Mutex
	matchers []*ahocorasick.Matcher
}

// NewTypeInferrer builds one matcher per keyword tier.
func NewTypeInferrer() *TypeInferrer {
	t := &TypeInferrer{matchers: make([]*ahocorasick.Matcher, len(typeTiers))}
	for i, tier := range typeTiers {
		t.matchers[i] = ahocorasick.NewStringMatcher(tier.keywords)
	}
	return t
}

// Infer returns the type of the first tier with a keyword contained in
// the description, defaulting to Debit.
func (t *TypeInferrer) Infer(description string) TransactionType {
	input := []byte(strings.ToLower(description))

	t.mu.Lock()
	defer t.mu.Unlock()

	for i, matcher := range t.matchers {
		if len(matcher.Match(input)) > 0 {
			return typeTiers[i].result
		}
	}
	return Debit
}

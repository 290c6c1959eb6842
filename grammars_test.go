package pdfstatement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrammars_Match(t *testing.T) {
	tests := []struct {
		name     string
		grammar  Grammar
		line     string
		expected TransactionCandidate
	}{
		{
			name:    "us with balance",
			grammar: USGrammar(),
			line:    "10/02 POS PURCHASE 4.23 697.73",
			expected: TransactionCandidate{
				Date: "10/02", Description: "POS PURCHASE", Amount: "4.23", Balance: "697.73",
				Currency: "USD", Source: "us",
			},
		},
		{
			name:    "us thousands separators",
			grammar: USGrammar(),
			line:    "10/02 ATM WITHDRAWAL 1,200.00 3,400.00",
			expected: TransactionCandidate{
				Date: "10/02", Description: "ATM WITHDRAWAL", Amount: "1,200.00", Balance: "3,400.00",
				Currency: "USD", Source: "us",
			},
		},
		{
			name:    "us without balance",
			grammar: USGrammar(),
			line:    "10/15/24 Store Purchase 25.50",
			expected: TransactionCandidate{
				Date: "10/15/24", Description: "Store Purchase", Amount: "25.50",
				Currency: "USD", Source: "us",
			},
		},
		{
			name:    "uk with pound signs",
			grammar: UKGrammar(),
			line:    "03/04/2023 Tesco Stores £12.40 £980.10",
			expected: TransactionCandidate{
				Date: "03/04/2023", Description: "Tesco Stores", Amount: "£12.40", Balance: "£980.10",
				Currency: "GBP", DayFirst: true, Source: "uk",
			},
		},
		{
			name:    "uk dashes",
			grammar: UKGrammar(),
			line:    "03-04 Council Tax 98.00",
			expected: TransactionCandidate{
				Date: "03-04", Description: "Council Tax", Amount: "98.00",
				Currency: "GBP", DayFirst: true, Source: "uk",
			},
		},
		{
			name:    "detailed",
			grammar: DetailedGrammar(),
			line:    "1 February Card payment - High St Petrol Station 24.50 39,975.50",
			expected: TransactionCandidate{
				Date: "1 February", Description: "Card payment - High St Petrol Station", Amount: "24.50", Balance: "39,975.50",
				Currency: "GBP", DayFirst: true, Source: "detailed",
			},
		},
		{
			name:    "compact",
			grammar: CompactGrammar(),
			line:    "23Jan Credit wage 1,550.21 2,118.70",
			expected: TransactionCandidate{
				Date: "23Jan", Description: "Credit wage", Amount: "1,550.21", Balance: "2,118.70",
				Currency: "USD", DayFirst: true, Source: "compact",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.grammar.Match(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGrammars_NoMatch(t *testing.T) {
	tests := []struct {
		name    string
		grammar Grammar
		line    string
	}{
		{"blank", USGrammar(), "   "},
		{"prose", USGrammar(), "Thank you for banking with us"},
		{"no amount", USGrammar(), "10/02 POS PURCHASE"},
		{"detailed header row", DetailedGrammar(), "1 February Description 1.00 2.00"},
		{"detailed short description", DetailedGrammar(), "1 February ab 1.00 2.00"},
		{"compact header row", CompactGrammar(), "23Jan Balance 1.00 2.00"},
		{"compact unknown month", CompactGrammar(), "23Foo Coffee 1.00 2.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.grammar.Match(tt.line)
			assert.False(t, ok)
		})
	}
}

func TestDefaultGrammars_Order(t *testing.T) {
	var names []string
	for _, g := range DefaultGrammars() {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"us", "uk", "detailed", "compact"}, names)
}

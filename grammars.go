package pdfstatement

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
)

// Grammar matches one statement line layout. Match returns false when the
// line does not fit.
type Grammar struct {
	Name  string
	Match func(line string) (TransactionCandidate, bool)
}

const (
	monthAlternation  = `(?i:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
	monthAbbreviation = `(?i:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`
	strictAmount      = `[£$€]?\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?`
	looseAmount       = `[£$€]?\d+(?:,\d{3})*(?:\.\d{1,2})?`

	// centsAmount always carries two decimals; thousands separators are
	// optional.
	centsAmount = `(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}`
)

var (
	usWithBalance    = regexp.MustCompile(`(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+(` + centsAmount + `)\s+(` + centsAmount + `)`)
	usWithoutBalance = regexp.MustCompile(`(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+(` + centsAmount + `)`)

	ukSlash = regexp.MustCompile(`(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+(£?\d+\.\d{2})\s*(£?\d+\.\d{2})?`)
	ukDash  = regexp.MustCompile(`(\d{1,2}-\d{1,2}(?:-\d{2,4})?)\s+(.+?)\s+(£?\d+\.\d{2})\s*(£?\d+\.\d{2})?`)

	detailedStrict = regexp.MustCompile(`(\d{1,2} ` + monthAlternation + `)\b\s+(.+?)\s+(` + strictAmount + `)\s+(` + strictAmount + `)`)
	detailedLoose  = regexp.MustCompile(`(\d{1,2} ` + monthAlternation + `)\b\s+(.+?)\s+(` + looseAmount + `)\s+(` + looseAmount + `)`)

	compactStrict = regexp.MustCompile(`(\d{1,2}` + monthAbbreviation + `)\s+(.+?)\s+(` + strictAmount + `)\s+(` + strictAmount + `)`)
	compactLoose  = regexp.MustCompile(`(\d{1,2}` + monthAbbreviation + `)\s+(.+?)\s+(` + looseAmount + `)\s+(` + looseAmount + `)`)
)

// headerWords are column titles that layout grammars must not read as
// descriptions.
var headerWords = map[string]bool{
	"description": true,
	"balance":     true,
	"amount":      true,
	"transaction": true,
	"debit":       true,
	"credit":      true,
}

// DefaultGrammars returns the line grammars in priority order.
func DefaultGrammars() []Grammar {
	return []Grammar{
		USGrammar(),
		UKGrammar(),
		DetailedGrammar(),
		CompactGrammar(),
	}
}

// USGrammar matches "MM/DD[/YY] DESCRIPTION AMOUNT [BALANCE]" lines.
func USGrammar() Grammar {
	return regexGrammar("us", money.USD, false, false, usWithBalance, usWithoutBalance)
}

// UKGrammar matches "DD/MM[/YY]" or "DD-MM[-YY]" lines with optional
// pound signs.
func UKGrammar() Grammar {
	return regexGrammar("uk", money.GBP, true, false, ukSlash, ukDash)
}

// DetailedGrammar matches "D Month DESCRIPTION AMOUNT BALANCE" lines with
// thousands separators.
func DetailedGrammar() Grammar {
	return regexGrammar("detailed", money.GBP, true, true, detailedStrict, detailedLoose)
}

// CompactGrammar matches "DDMon DESCRIPTION AMOUNT BALANCE" lines.
func CompactGrammar() Grammar {
	return regexGrammar("compact", money.USD, true, true, compactStrict, compactLoose)
}

// regexGrammar tries each pattern in turn. Patterns capture date,
// description, amount and, optionally, balance.
func regexGrammar(name, currency string, dayFirst, skipHeaders bool, patterns ...*regexp.Regexp) Grammar {
	return Grammar{
		Name: name,
		Match: func(line string) (TransactionCandidate, bool) {
			line = strings.TrimSpace(line)
			if line == "" {
				return TransactionCandidate{}, false
			}

			for _, pattern := range patterns {
				m := pattern.FindStringSubmatch(line)
				if m == nil {
					continue
				}

				description := strings.TrimSpace(m[2])
				if skipHeaders && isHeaderDescription(description) {
					continue
				}

				candidate := TransactionCandidate{
					Date:        m[1],
					Description: description,
					Amount:      m[3],
					Currency:    currency,
					DayFirst:    dayFirst,
					Source:      name,
				}
				if len(m) > 4 {
					candidate.Balance = m[4]
				}
				return candidate, true
			}
			return TransactionCandidate{}, false
		},
	}
}

func isHeaderDescription(description string) bool {
	return utf8.RuneCountInString(description) < 3 || headerWords[strings.ToLower(description)]
}

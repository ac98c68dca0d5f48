// Package ingest turns loosely structured statement rows into canonical
// transactions.
//
// A RawRow only exists inside this package and the statement readers that
// produce it; everything downstream of Build works on models.Transaction.
package ingest

import (
	"regexp"
	"sort"
	"strings"
)

// RawRow is one statement line keyed by whatever column names the bank used.
type RawRow map[string]any

// FieldMap names the column holding each semantic field. Empty means absent.
type FieldMap struct {
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
	Withdrawal  string `json:"withdrawal,omitempty"`
	Deposit     string `json:"deposit,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Category    string `json:"category,omitempty"`
	Type        string `json:"type,omitempty"`
}

// HasAmount reports whether any amount-bearing column was found.
func (f FieldMap) HasAmount() bool {
	return f.Withdrawal != "" || f.Deposit != "" || f.Amount != ""
}

// HasSplitColumns reports whether the export uses separate debit/credit columns.
func (f FieldMap) HasSplitColumns() bool {
	return f.Withdrawal != "" || f.Deposit != ""
}

// fieldPattern matches a header name exactly first, then by substring.
type fieldPattern struct {
	exact    *regexp.Regexp
	contains *regexp.Regexp
}

var (
	datePattern        = fieldPattern{exact: regexp.MustCompile(`(?i)^date$`), contains: regexp.MustCompile(`(?i)date|time`)}
	descriptionPattern = fieldPattern{contains: regexp.MustCompile(`(?i)description|narration|particulars`)}
	withdrawalPattern  = fieldPattern{contains: regexp.MustCompile(`(?i)withdrawal|debit`)}
	depositPattern     = fieldPattern{contains: regexp.MustCompile(`(?i)deposit|credit`)}
	amountPattern      = fieldPattern{exact: regexp.MustCompile(`(?i)^amount$`)}
	categoryPattern    = fieldPattern{contains: regexp.MustCompile(`(?i)category`)}
	typePattern        = fieldPattern{exact: regexp.MustCompile(`(?i)^(type|transaction type|txn type|dr\s*/\s*cr|cr\s*/\s*dr)$`)}
)

// ResolveFields locates the semantic fields of a single representative row.
//
// Exact matches beat substring matches. Among equal candidates the first key
// in lexicographic order wins, so the result does not depend on the order the
// row's keys were produced in. A column is never assigned to two roles.
func ResolveFields(row RawRow) FieldMap {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	return resolveKeys(keys)
}

// ResolveBatch resolves fields once for a whole batch, using the union of
// every row's keys as the representative row.
func ResolveBatch(rows []RawRow) FieldMap {
	seen := make(map[string]bool)
	keys := make([]string, 0)
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return resolveKeys(keys)
}

func resolveKeys(keys []string) FieldMap {
	sort.Strings(keys)
	used := make(map[string]bool, 8)

	pick := func(p fieldPattern) string {
		if p.exact != nil {
			for _, k := range keys {
				if !used[k] && p.exact.MatchString(strings.TrimSpace(k)) {
					used[k] = true
					return k
				}
			}
		}
		if p.contains != nil {
			for _, k := range keys {
				if !used[k] && p.contains.MatchString(k) {
					used[k] = true
					return k
				}
			}
		}
		return ""
	}

	var f FieldMap
	f.Date = pick(datePattern)
	f.Description = pick(descriptionPattern)
	f.Withdrawal = pick(withdrawalPattern)
	f.Deposit = pick(depositPattern)
	f.Amount = pick(amountPattern)
	f.Category = pick(categoryPattern)
	f.Type = pick(typePattern)
	return f
}

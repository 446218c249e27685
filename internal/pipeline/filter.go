package pipeline

import (
	"strings"

	"github.com/theirongolddev/finboard/internal/model"
)

// Filter sentinels.
const (
	AllCategories = "All Categories"
	AllTypes      = "all"
)

// TypeOptions lists the selectable type filter values in display order.
var TypeOptions = []string{AllTypes, string(model.Income), string(model.Expense)}

// Criteria selects transactions. The zero value, like DefaultCriteria,
// matches everything.
type Criteria struct {
	Search   string
	Category string
	Type     string
}

// DefaultCriteria returns criteria with both sentinels selected.
func DefaultCriteria() Criteria {
	return Criteria{Category: AllCategories, Type: AllTypes}
}

// IsDefault reports whether c matches every transaction.
func (c Criteria) IsDefault() bool {
	return c.Search == "" &&
		(c.Category == "" || c.Category == AllCategories) &&
		(c.Type == "" || c.Type == AllTypes)
}

// Match reports whether tx passes all three predicates.
func (c Criteria) Match(tx model.Transaction) bool {
	return c.matchSearch(tx) && c.matchCategory(tx) && c.matchType(tx)
}

func (c Criteria) matchSearch(tx model.Transaction) bool {
	if c.Search == "" {
		return true
	}
	return containsIgnoreCase(tx.Description, c.Search) || containsIgnoreCase(tx.Client, c.Search)
}

func (c Criteria) matchCategory(tx model.Transaction) bool {
	return c.Category == "" || c.Category == AllCategories || tx.Category.Name == c.Category
}

func (c Criteria) matchType(tx model.Transaction) bool {
	return c.Type == "" || c.Type == AllTypes || string(tx.Type) == c.Type
}

// Filter returns the transactions matching c, preserving order.
func Filter(txs []model.Transaction, c Criteria) []model.Transaction {
	if c.IsDefault() {
		return txs
	}
	var result []model.Transaction
	for _, tx := range txs {
		if c.Match(tx) {
			result = append(result, tx)
		}
	}
	return result
}

// Categories returns the sentinel followed by each distinct category
// name in first-seen order.
func Categories(txs []model.Transaction) []string {
	seen := make(map[string]struct{}, len(txs))
	names := []string{AllCategories}
	for _, tx := range txs {
		name := tx.Category.Name
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Cycle returns the option after current, wrapping around. Unknown
// values restart at the first option.
func Cycle(options []string, current string, step int) string {
	if len(options) == 0 {
		return current
	}
	for i, o := range options {
		if o == current {
			n := (i + step) % len(options)
			if n < 0 {
				n += len(options)
			}
			return options[n]
		}
	}
	return options[0]
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

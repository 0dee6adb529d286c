package domain

import (
	"fmt"
	"strings"
)

// Filter rules
const (
	RuleContains = "contains"
	RuleEquals   = "equals"
	RuleGreater  = "greater"
	RuleLess     = "less"
	RuleExists   = "exists"
)

// Filter comparators
const (
	ComparatorAnd = "AND"
	ComparatorOr  = "OR"
)

// filterRules is the allow-list of (field, rule) pairs. Anything outside it
// fails compilation with ErrInvalidFilter.
var filterRules = map[string][]string{
	"name":  {RuleContains},
	"price": {RuleEquals, RuleGreater, RuleLess},
	"stock": {RuleEquals, RuleGreater, RuleLess, RuleExists},
}

// Filter is one structured predicate term of a product query. Comparator
// describes how the term joins the preceding one.
type Filter struct {
	Field      string `json:"field"`
	Rule       string `json:"rule"`
	Value      string `json:"value"`
	Negate     bool   `json:"negate"`
	Comparator string `json:"comparator"`
}

// NewFilter builds a filter and fails fast on an unrecognized comparator.
// An empty comparator defaults to AND.
func NewFilter(field, rule, value string, negate bool, comparator string) (*Filter, error) {
	if comparator == "" {
		comparator = ComparatorAnd
	}
	if comparator != ComparatorAnd && comparator != ComparatorOr {
		return nil, fmt.Errorf("%w: comparator %q must be one of [AND OR]", ErrInvalidFilter, comparator)
	}
	return &Filter{
		Field:      field,
		Rule:       rule,
		Value:      value,
		Negate:     negate,
		Comparator: comparator,
	}, nil
}

// IsZero reports whether the filter carries no condition. Zero filters are
// treated as absent, not as an error.
func (f *Filter) IsZero() bool {
	return f == nil || (f.Field == "" && f.Rule == "" && f.Value == "")
}

func (f *Filter) allowed() bool {
	rules, ok := filterRules[f.Field]
	if !ok {
		return false
	}
	for _, r := range rules {
		if r == f.Rule {
			return true
		}
	}
	return false
}

func (f *Filter) String() string {
	return fmt.Sprintf("%s %s %s", f.Field, f.Rule, f.Value)
}

// CompileFilters turns a filter list into a SQL predicate fragment plus the
// bound parameter values for it. Values are always bound, never spliced into
// the query text. Placeholder numbering starts at argOffset+1 so the fragment
// can follow other bound arguments in the enclosing query.
//
// The fragment is meant to be appended to a "WHERE TRUE" base clause, so the
// first term joins with its own comparator just like every later one. An
// empty list compiles to an empty fragment (no filtering).
func CompileFilters(filters []*Filter, argOffset int) (string, []any, error) {
	var (
		sb   strings.Builder
		args []any
	)

	for _, f := range filters {
		if f.IsZero() {
			continue
		}
		if !f.allowed() {
			return "", nil, fmt.Errorf("%w: %s (allowed rules for %q: %v)",
				ErrInvalidFilter, f, f.Field, filterRules[f.Field])
		}

		var term string
		switch f.Rule {
		case RuleContains:
			args = append(args, f.Value)
			term = fmt.Sprintf("%s LIKE '%%' || $%d || '%%'", f.Field, argOffset+len(args))
		case RuleEquals:
			args = append(args, f.Value)
			term = fmt.Sprintf("%s = $%d", f.Field, argOffset+len(args))
		case RuleGreater:
			args = append(args, f.Value)
			term = fmt.Sprintf("%s > $%d", f.Field, argOffset+len(args))
		case RuleLess:
			args = append(args, f.Value)
			term = fmt.Sprintf("%s < $%d", f.Field, argOffset+len(args))
		case RuleExists:
			term = fmt.Sprintf("%s > 0", f.Field)
		}

		if f.Negate {
			term = "NOT (" + term + ")"
		}

		sb.WriteString(" ")
		sb.WriteString(f.Comparator)
		sb.WriteString(" ")
		sb.WriteString(term)
	}

	return sb.String(), args, nil
}

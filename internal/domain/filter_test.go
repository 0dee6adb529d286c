package domain

import (
	"errors"
	"testing"
)

func TestNewFilter(t *testing.T) {
	tests := []struct {
		name       string
		comparator string
		wantErr    bool
		wantComp   string
	}{
		{name: "empty comparator defaults to AND", comparator: "", wantComp: ComparatorAnd},
		{name: "explicit AND", comparator: "AND", wantComp: ComparatorAnd},
		{name: "explicit OR", comparator: "OR", wantComp: ComparatorOr},
		{name: "lowercase rejected", comparator: "and", wantErr: true},
		{name: "garbage rejected", comparator: "XOR", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter("price", RuleGreater, "10", false, tt.comparator)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for comparator %q, got none", tt.comparator)
				}
				if !errors.Is(err, ErrInvalidFilter) {
					t.Errorf("expected ErrInvalidFilter, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Comparator != tt.wantComp {
				t.Errorf("comparator = %q, want %q", f.Comparator, tt.wantComp)
			}
		})
	}
}

func TestCompileFilters(t *testing.T) {
	mustFilter := func(field, rule, value string, negate bool, comparator string) *Filter {
		t.Helper()
		f, err := NewFilter(field, rule, value, negate, comparator)
		if err != nil {
			t.Fatalf("NewFilter(%s %s %s): %v", field, rule, value, err)
		}
		return f
	}

	t.Run("empty list compiles to nothing", func(t *testing.T) {
		clause, args, err := CompileFilters(nil, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if clause != "" {
			t.Errorf("clause = %q, want empty", clause)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want none", args)
		}
	})

	t.Run("zero filter is skipped", func(t *testing.T) {
		filters := []*Filter{nil, {}, mustFilter("price", RuleEquals, "5", false, "")}
		clause, args, err := CompileFilters(filters, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if clause != " AND price = $1" {
			t.Errorf("clause = %q", clause)
		}
		if len(args) != 1 || args[0] != "5" {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("contains binds the value inside LIKE", func(t *testing.T) {
		clause, args, err := CompileFilters([]*Filter{
			mustFilter("name", RuleContains, "rose", false, ""),
		}, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := " AND name LIKE '%' || $1 || '%'"
		if clause != want {
			t.Errorf("clause = %q, want %q", clause, want)
		}
		if len(args) != 1 || args[0] != "rose" {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("exists takes no argument", func(t *testing.T) {
		clause, args, err := CompileFilters([]*Filter{
			mustFilter("stock", RuleExists, "", false, ""),
		}, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if clause != " AND stock > 0" {
			t.Errorf("clause = %q", clause)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want none", args)
		}
	})

	t.Run("negate wraps the term", func(t *testing.T) {
		clause, _, err := CompileFilters([]*Filter{
			mustFilter("stock", RuleExists, "", true, ""),
		}, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if clause != " AND NOT (stock > 0)" {
			t.Errorf("clause = %q", clause)
		}
	})

	t.Run("OR joins with its own comparator", func(t *testing.T) {
		clause, args, err := CompileFilters([]*Filter{
			mustFilter("price", RuleLess, "10", false, ""),
			mustFilter("stock", RuleGreater, "0", false, "OR"),
		}, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := " AND price < $1 OR stock > $2"
		if clause != want {
			t.Errorf("clause = %q, want %q", clause, want)
		}
		if len(args) != 2 {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("placeholders honor the offset", func(t *testing.T) {
		clause, _, err := CompileFilters([]*Filter{
			mustFilter("price", RuleEquals, "5", false, ""),
			mustFilter("stock", RuleLess, "3", false, ""),
		}, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := " AND price = $5 AND stock < $6"
		if clause != want {
			t.Errorf("clause = %q, want %q", clause, want)
		}
	})

	t.Run("field outside allow-list fails", func(t *testing.T) {
		_, _, err := CompileFilters([]*Filter{
			mustFilter("password", RuleEquals, "x", false, ""),
		}, 0)
		if !errors.Is(err, ErrInvalidFilter) {
			t.Fatalf("expected ErrInvalidFilter, got %v", err)
		}
	})

	t.Run("rule not allowed for field fails", func(t *testing.T) {
		_, _, err := CompileFilters([]*Filter{
			mustFilter("name", RuleGreater, "a", false, ""),
		}, 0)
		if !errors.Is(err, ErrInvalidFilter) {
			t.Fatalf("expected ErrInvalidFilter, got %v", err)
		}
	})
}

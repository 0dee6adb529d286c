package domain

import (
	"errors"
	"testing"
)

func TestParseStockAction(t *testing.T) {
	tests := []struct {
		input   string
		want    StockAction
		wantErr bool
	}{
		{input: "add", want: StockActionAdd},
		{input: "subtract", want: StockActionSubtract},
		{input: "", wantErr: true},
		{input: "ADD", wantErr: true},
		{input: "remove", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseStockAction(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidAction) {
				t.Errorf("ParseStockAction(%q) error = %v, want ErrInvalidAction", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStockAction(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStockAction(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestProductValidate(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		wantErr bool
	}{
		{name: "valid", product: Product{Name: "rose", Price: 2.5, Stock: 10}},
		{name: "zero price is fine", product: Product{Name: "freebie"}},
		{name: "missing name", product: Product{Price: 1}, wantErr: true},
		{name: "negative price", product: Product{Name: "rose", Price: -1}, wantErr: true},
		{name: "negative stock", product: Product{Name: "rose", Stock: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.Validate()
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() = %v, want ErrValidation", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestProductPatchIsEmpty(t *testing.T) {
	if !(&ProductPatch{}).IsEmpty() {
		t.Error("empty patch should report IsEmpty")
	}
	name := "tulip"
	if (&ProductPatch{Name: &name}).IsEmpty() {
		t.Error("patch with a field should not report IsEmpty")
	}
}

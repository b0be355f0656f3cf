package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// maxUint256 is 2^256 - 1.
const maxUint256 = "115792089237316195423570985008687907853269984665640564039457584007913129639935"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"Decimal", "4900", "4900", false},
		{"Zero", "0", "0", false},
		{"Hex", "0xff", "255", false},
		{"Whitespace", "  42 ", "42", false},
		{"Max", maxUint256, maxUint256, false},
		{"Empty", "", "", true},
		{"Negative", "-1", "", true},
		{"Garbage", "12ab", "", true},
		{"Too large", maxUint256 + "0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() (Amount, error)
		expected Amount
	}{
		{"Add", func() (Amount, error) { return NewAmount(100).Add(NewAmount(200)) }, NewAmount(300)},
		{"Sub", func() (Amount, error) { return NewAmount(500).Sub(NewAmount(200)) }, NewAmount(300)},
		{"Sub to zero", func() (Amount, error) { return NewAmount(7).Sub(NewAmount(7)) }, NewAmount(0)},
		{"Scale", func() (Amount, error) { return NewAmount(3).Scale(2) }, NewAmount(300)},
		{"Scale zero decimals", func() (Amount, error) { return NewAmount(300).Scale(0) }, NewAmount(300)},
		{"Scale 18", func() (Amount, error) { return NewAmount(1).Scale(18) }, MustParseAmount("1000000000000000000")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.op()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.Equal(tt.expected) {
				t.Errorf("got %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestAmountOverflow(t *testing.T) {
	max := MustParseAmount(maxUint256)

	if _, err := max.Add(NewAmount(1)); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("Add: expected ErrAmountOverflow, got %v", err)
	}
	if _, err := max.Scale(1); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("Scale: expected ErrAmountOverflow, got %v", err)
	}
	if _, err := NewAmount(1).Scale(78); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("Scale(78): expected ErrAmountOverflow, got %v", err)
	}
	if _, err := NewAmount(1).Sub(NewAmount(2)); !errors.Is(err, ErrAmountUnderflow) {
		t.Errorf("Sub: expected ErrAmountUnderflow, got %v", err)
	}
}

func TestAmountComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Amount
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", NewAmount(100), NewAmount(100), false, false, true},
		{"Less", NewAmount(50), NewAmount(100), true, false, false},
		{"Greater", NewAmount(200), NewAmount(100), false, true, false},
		{"Zero equal", NewAmount(0), Amount{}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestAmountIsValueType(t *testing.T) {
	a := NewAmount(10)
	b := a
	b, _ = b.Add(NewAmount(5))

	if a.String() != "10" {
		t.Errorf("original mutated: %s", a)
	}
	if b.String() != "15" {
		t.Errorf("copy: got %s, want 15", b)
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		amount   Amount
		decimals uint8
		want     string
	}{
		{NewAmount(4900), 2, "49.00"},
		{NewAmount(150), 2, "1.50"},
		{NewAmount(5), 2, "0.05"},
		{NewAmount(0), 2, "0.00"},
		{NewAmount(100), 0, "100"},
		{MustParseAmount("1000000000000000000"), 18, "1.000000000000000000"},
	}

	for _, tt := range tests {
		if got := tt.amount.FormatUnits(tt.decimals); got != tt.want {
			t.Errorf("FormatUnits(%s, %d): got %s, want %s", tt.amount, tt.decimals, got, tt.want)
		}
	}
}

func TestAmountJSON(t *testing.T) {
	payload := struct {
		Value Amount `json:"value"`
	}{Value: MustParseAmount(maxUint256)}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"value":"`+maxUint256+`"`) {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded struct {
		Value Amount `json:"value"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Value.Equal(payload.Value) {
		t.Errorf("got %s, want %s", decoded.Value, payload.Value)
	}
}

func TestAmountScan(t *testing.T) {
	var a Amount
	if err := a.Scan("12345"); err != nil || a.String() != "12345" {
		t.Errorf("Scan string: got %s, %v", a, err)
	}
	if err := a.Scan([]byte("7")); err != nil || a.String() != "7" {
		t.Errorf("Scan bytes: got %s, %v", a, err)
	}
	if err := a.Scan(int64(9)); err != nil || a.String() != "9" {
		t.Errorf("Scan int64: got %s, %v", a, err)
	}
	if err := a.Scan(int64(-1)); err == nil {
		t.Error("expected error for negative int64")
	}
	if err := a.Scan(nil); err != nil || !a.IsZero() {
		t.Errorf("Scan nil: got %s, %v", a, err)
	}
	if err := a.Scan(3.14); err == nil {
		t.Error("expected error for float")
	}
}

func TestSum(t *testing.T) {
	total, err := Sum(NewAmount(1), NewAmount(2), NewAmount(3))
	if err != nil || total.String() != "6" {
		t.Errorf("Sum: got %s, %v", total, err)
	}
	if _, err := Sum(MustParseAmount(maxUint256), NewAmount(1)); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("Sum overflow: got %v", err)
	}
}

package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Contract is one historical loan/claim entry. Contracts arrive untyped,
// so every field is an optional Value and Valid marks whether the entry
// was a JSON object at all. Entries with Valid == false carry no fields.
type Contract struct {
	Valid        bool
	ContractDate Value
	ClaimDate    Value
	Bank         Value
	LoanSumma    Value
	Summa        Value
}

// ContractFromMap picks the known fields out of a decoded JSON object.
// Unknown fields are ignored.
func ContractFromMap(m map[string]any) Contract {
	return Contract{
		Valid:        true,
		ContractDate: lookup(m, "contract_date"),
		ClaimDate:    lookup(m, "claim_date"),
		Bank:         lookup(m, "bank"),
		LoanSumma:    lookup(m, "loan_summa"),
		Summa:        lookup(m, "summa"),
	}
}

func lookup(m map[string]any, key string) Value {
	raw, ok := m[key]
	if !ok {
		return Value{}
	}
	return NewValue(raw)
}

// Value is a single untrusted JSON field. The zero Value is "absent".
type Value struct {
	raw     any
	present bool
}

func NewValue(raw any) Value {
	return Value{raw: raw, present: true}
}

func (v Value) Present() bool { return v.present }

// IsNull reports whether the field is absent or JSON null.
func (v Value) IsNull() bool { return !v.present || v.raw == nil }

func (v Value) Raw() any { return v.raw }

// Text returns the field when it holds a JSON string.
func (v Value) Text() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

// Truthy applies JSON value truthiness: null, false, numeric zero, the
// empty string and empty arrays/objects are false; everything else is true.
func (v Value) Truthy() bool {
	switch x := v.raw.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		// out-of-range numbers are huge, never zero
		f, err := strconv.ParseFloat(x.String(), 64)
		return err != nil || f != 0
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

// Float converts the field to a finite number. Numbers, booleans and
// numeric strings convert; anything else, and NaN or infinite results,
// report false.
func (v Value) Float() (float64, bool) {
	var f float64
	switch x := v.raw.(type) {
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		parsed, ok := parseNumber(x.String())
		if !ok {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		parsed, ok := parseNumber(x)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseNumber accepts decimal float text with optional surrounding
// whitespace and single underscores between digits. Hex notation is rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX") {
		return 0, false
	}

	if strings.Contains(s, "_") {
		if !underscoresBetweenDigits(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, "_", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func underscoresBetweenDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

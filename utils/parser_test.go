package utils

import "testing"

func TestParseFlyerPrice(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"Comma Decimal", "je 1,99", 1.99, true},
		{"Dot Decimal", "nur 0.79", 0.79, true},
		{"Integer", "ab 3", 3.0, true},
		{"Trailing Currency", "je 2,49 €", 2.49, true},
		{"Missing Number", "1,99", UnparsedPrice, false},
		{"Not A Number", "je gratis", UnparsedPrice, false},
		{"Empty", "", UnparsedPrice, false},
		{"NaN Token", "je nan/1 l", UnparsedPrice, false},
		{"Infinity Token", "ab inf", UnparsedPrice, false},
		{"Signed Infinity", "je -Infinity", UnparsedPrice, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, ok := ParseFlyerPrice(tc.input)
			if result != tc.expected || ok != tc.ok {
				t.Errorf("ParseFlyerPrice(%q) = %f, %v; want %f, %v", tc.input, result, ok, tc.expected, tc.ok)
			}
		})
	}
}

func TestSplitOnce(t *testing.T) {
	if got := SplitOnce("je 1,99 - 2,99", "-"); got != "je 1,99 " {
		t.Errorf("SplitOnce = %q", got)
	}
	if got := SplitOnce("je 1,99", "-"); got != "je 1,99" {
		t.Errorf("SplitOnce without separator = %q", got)
	}
}

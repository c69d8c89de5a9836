package amount

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"two_decimals", "Spent 12.99 on lunch", "12.99", true},
		{"one_decimal", "coffee 4.5", "4.50", true},
		{"integer", "Add 50 to Tesco", "50.00", true},
		{"pound_prefix", "£4.50 coffee", "4.50", true},
		{"dollar_prefix", "uber $25", "25.00", true},
		{"currency_code", "paid GBP 100 for electricity", "100.00", true},
		{"trailing_integer", "Salary 2400", "2400.00", true},
		{"two_decimals_beat_earlier_integer", "2 coffees for 6.40", "6.40", true},
		{"one_decimal_beats_earlier_integer", "3 items 7.5", "7.50", true},
		{"extra_digits_truncate_to_two", "petrol 65.309", "65.30", true},
		{"thousands_separator", "rent 1,250.00", "1250.00", true},
		{"comma_is_not_a_decimal_point", "2,30 stamps", "2.00", true},
		{"comma_list_takes_first_integer", "cafe 4,50", "4.00", true},
		{"no_amount", "hello there", "", false},
		{"empty", "", "", false},
		{"zero", "spent 0 today", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Extract(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.StringFixed(2) != tt.want {
				t.Errorf("Extract(%q) = %s, want %s", tt.text, got.StringFixed(2), tt.want)
			}
			if got.Exponent() < -2 {
				t.Errorf("Extract(%q) has more than two decimal places: %s", tt.text, got)
			}
		})
	}
}

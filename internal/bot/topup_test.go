package bot

import (
	"testing"

	"vpn-store-bot/internal/store"
)

func TestParseTopupAmount(t *testing.T) {
	settings := store.TopupSettings{MinAmount: 10000, MaxAmount: 1000000}
	cases := []struct {
		in     string
		amount int
		ok     bool
	}{
		{"50000", 50000, true},
		{"Rp 50.000", 50000, true},
		{"  25000  ", 25000, true},
		{"10000", 10000, true},   // inclusive lower bound
		{"1000000", 1000000, true}, // inclusive upper bound
		{"9999", 0, false},
		{"1000001", 0, false},
		{"0", 0, false},
		{"-50000", 50000, true}, // sign is stripped with the other non-digits
		{"abc", 0, false},
		{"", 0, false},
		{"lima puluh ribu", 0, false},
	}
	for _, c := range cases {
		amount, ok := parseTopupAmount(c.in, settings)
		if ok != c.ok || (ok && amount != c.amount) {
			t.Errorf("parseTopupAmount(%q) = %d, %v; want %d, %v", c.in, amount, ok, c.amount, c.ok)
		}
	}
}

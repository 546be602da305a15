package cache

import (
	"strconv"
	"strings"
	"testing"
)

func TestDeriveKey_PermutationInvariant(t *testing.T) {
	a := []DeviceFields{
		{Name: "Geyser", Watts: 3000, HoursPerDay: 2},
		{Name: "Fridge", Watts: 150, HoursPerDay: 24},
		{Name: "Kettle", Watts: 2000, HoursPerDay: 0.5},
	}
	b := []DeviceFields{a[2], a[0], a[1]}

	if DeriveKey(a) != DeriveKey(b) {
		t.Fatalf("permutations should produce the same key: %s vs %s", DeriveKey(a), DeriveKey(b))
	}
}

func TestDeriveKey_Prefix(t *testing.T) {
	key := DeriveKey([]DeviceFields{{Name: "TV", Watts: 100}})
	if !strings.HasPrefix(key, "devices_") {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestDeriveKey_DistinguishesFields(t *testing.T) {
	base := DeriveKey([]DeviceFields{{Name: "TV", Watts: 100, HoursPerDay: 4}})
	hours := DeriveKey([]DeviceFields{{Name: "TV", Watts: 100, HoursPerDay: 5}})
	watts := DeriveKey([]DeviceFields{{Name: "TV", Watts: 120, HoursPerDay: 4}})

	if base == hours || base == watts {
		t.Fatalf("expected distinct keys: %s %s %s", base, hours, watts)
	}
}

func TestDeriveKey_MatchesRollingHash(t *testing.T) {
	// "a:1:0" -> 31-based rolling hash computed by hand.
	var want int32
	for _, c := range "a:1:0" {
		want = want*31 + int32(c)
	}

	got := DeriveKey([]DeviceFields{{Name: "a", Watts: 1}})
	if got != "devices_"+strconv.FormatInt(int64(want), 10) {
		t.Fatalf("expected devices_%d, got %s", want, got)
	}
}

func TestDeriveKey_Empty(t *testing.T) {
	if got := DeriveKey(nil); got != "devices_0" {
		t.Fatalf("expected devices_0, got %s", got)
	}
}

func TestDeriveKey_NegativeHashWraps(t *testing.T) {
	long := DeriveKey([]DeviceFields{{Name: strings.Repeat("Pool Pump ", 20), Watts: 1100, HoursPerDay: 8}})
	if !strings.HasPrefix(long, "devices_") {
		t.Fatalf("unexpected key %q", long)
	}
}

func TestCategoryKey(t *testing.T) {
	devices := []DeviceFields{{Name: "Geyser", Watts: 3000}}

	if got := CategoryKey("", devices); got != DeriveKey(devices) {
		t.Fatalf("empty category should not prefix: %s", got)
	}
	if got := CategoryKey("habits", devices); got != "habits_"+DeriveKey(devices) {
		t.Fatalf("unexpected habits key %s", got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		1500: "1500",
		2.5:  "2.5",
		0:    "0",
		0.25: "0.25",
	}
	for in, want := range cases {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

package tariff

import (
	"testing"
	"time"
)

func TestGetRate_ExactMatchIgnoresCase(t *testing.T) {
	r := GetRate("cape town")
	if r.Municipality != "Cape Town" {
		t.Fatalf("expected Cape Town, got %s", r.Municipality)
	}
	if r.Rate != 2.95 || !r.IsIBT {
		t.Fatalf("unexpected rate %+v", r)
	}
}

func TestGetRate_PartialMatch(t *testing.T) {
	r := GetRate("Sandton Central")
	if r.Municipality != "Sandton" {
		t.Fatalf("expected Sandton, got %s", r.Municipality)
	}

	r = GetRate("Tshwane")
	if r.Municipality != "City of Tshwane" {
		t.Fatalf("expected City of Tshwane, got %s", r.Municipality)
	}
}

func TestGetRate_FallsBackToEskom(t *testing.T) {
	for _, loc := range []string{"", "   ", "Atlantis-on-Mars"} {
		r := GetRate(loc)
		if r.Municipality != EskomDirectName {
			t.Fatalf("%q: expected Eskom Direct, got %s", loc, r.Municipality)
		}
		if r.Rate != 2.72 || r.IsIBT {
			t.Fatalf("%q: unexpected rate %+v", loc, r)
		}
	}
}

func TestGetSeasonalRate(t *testing.T) {
	winter := GetSeasonalRate("Cape Town", time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	if winter.Season != Winter || winter.Multiplier != 1.15 {
		t.Fatalf("unexpected winter rate %+v", winter)
	}
	if winter.SeasonalRate != 3.39 {
		t.Fatalf("expected 3.39, got %v", winter.SeasonalRate)
	}

	summer := GetSeasonalRate("Johannesburg", time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC))
	if summer.Season != Summer || summer.SeasonalRate != 3.10 {
		t.Fatalf("unexpected summer rate %+v", summer)
	}
}

func TestSeasonBoundaries(t *testing.T) {
	cases := map[time.Month]Season{
		time.April:     Summer,
		time.May:       Winter,
		time.August:    Winter,
		time.September: Summer,
	}
	for m, want := range cases {
		if got := SeasonFor(time.Date(2025, m, 15, 0, 0, 0, 0, time.UTC)); got != want {
			t.Errorf("%s: got %s want %s", m, got, want)
		}
	}
}

func TestPeakSunHours(t *testing.T) {
	if got := PeakSunHours("Northern Cape"); got != 6.0 {
		t.Fatalf("expected 6.0, got %v", got)
	}
	if got := PeakSunHours("Atlantis"); got != 5.0 {
		t.Fatalf("expected default 5.0, got %v", got)
	}
}

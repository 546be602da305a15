// Package tariff holds the static South African electricity tariff table
// (2024/25 financial year, approximate) used as context for advice prompts.
package tariff

import (
	"math"
	"strings"
	"time"
)

// Rates are R/kWh prices for one distributor.
type Rates struct {
	Prepaid      float64 `json:"prepaid"`
	Conventional float64 `json:"conventional"`
	TOUPeak      float64 `json:"tou_peak"`
	TOUOffPeak   float64 `json:"tou_offpeak"`
}

type Rate struct {
	Rate         float64 `json:"rate"`
	Municipality string  `json:"municipality"`
	IsIBT        bool    `json:"isIBT"`
	Rates        Rates   `json:"rates"`
}

type SeasonalRate struct {
	Rate
	Season       Season  `json:"season"`
	Multiplier   float64 `json:"multiplier"`
	SeasonalRate float64 `json:"seasonalRate"`
}

type Season string

const (
	Winter Season = "WINTER"
	Summer Season = "SUMMER"
)

const (
	EskomDirectName     = "Eskom Direct"
	defaultPeakSunHours = 5.0
)

var multipliers = map[Season]float64{
	Winter: 1.15,
	Summer: 1.0,
}

type municipality struct {
	name  string
	rates Rates
}

// Table order matters for partial matches: the first hit wins.
var municipalities = func() []municipality {
	var (
		joburg     = Rates{3.10, 2.85, 4.20, 1.55}
		capeTown   = Rates{2.95, 2.70, 3.85, 1.45}
		ethekwini  = Rates{2.88, 2.65, 3.90, 1.50}
		tshwane    = Rates{2.98, 2.75, 4.05, 1.50}
		ekurhuleni = Rates{3.05, 2.80, 4.10, 1.52}
		nmb        = Rates{2.92, 2.68, 3.80, 1.42}
		mangaung   = Rates{2.85, 2.62, 3.75, 1.40}
		buffalo    = Rates{2.80, 2.58, 3.70, 1.38}
		polokwane  = Rates{2.78, 2.55, 3.65, 1.35}
		mbombela   = Rates{2.82, 2.60, 3.72, 1.38}
	)
	return []municipality{
		{"City of Johannesburg", joburg},
		{"Johannesburg", joburg},
		{"Sandton", joburg},
		{"Soweto", joburg},

		{"City of Cape Town", capeTown},
		{"Cape Town", capeTown},

		{"eThekwini", ethekwini},
		{"Durban", ethekwini},

		{"City of Tshwane", tshwane},
		{"Pretoria", tshwane},
		{"Centurion", tshwane},

		{"Ekurhuleni", ekurhuleni},
		{"Germiston", ekurhuleni},
		{"Benoni", ekurhuleni},

		{"Nelson Mandela Bay", nmb},
		{"Port Elizabeth", nmb},
		{"Gqeberha", nmb},

		{"Mangaung", mangaung},
		{"Bloemfontein", mangaung},

		{"Buffalo City", buffalo},
		{"East London", buffalo},

		{"Polokwane", polokwane},
		{"Pietersburg", polokwane},

		{"Mbombela", mbombela},
		{"Nelspruit", mbombela},

		{"Rustenburg", Rates{2.75, 2.52, 3.60, 1.32}},
		{"Kimberley", Rates{2.70, 2.48, 3.55, 1.30}},
		{"Mahikeng", Rates{2.72, 2.50, 3.58, 1.32}},

		// province-level fallbacks
		{"Gauteng", Rates{3.02, 2.78, 4.10, 1.52}},
		{"Western Cape", Rates{2.90, 2.65, 3.80, 1.42}},
		{"KwaZulu-Natal", Rates{2.85, 2.62, 3.85, 1.45}},
		{"Eastern Cape", Rates{2.78, 2.55, 3.65, 1.35}},
		{"Free State", Rates{2.75, 2.52, 3.60, 1.32}},
		{"Limpopo", Rates{2.72, 2.50, 3.58, 1.30}},
		{"Mpumalanga", Rates{2.78, 2.55, 3.65, 1.35}},
		{"North West", Rates{2.72, 2.50, 3.55, 1.30}},
		{"Northern Cape", Rates{2.68, 2.45, 3.50, 1.28}},
	}
}()

var eskomDirect = Rates{2.72, 2.45, 3.50, 1.28}

var peakSunHours = map[string]float64{
	"Gauteng":       5.5,
	"Western Cape":  5.0,
	"KwaZulu-Natal": 4.8,
	"Eastern Cape":  5.0,
	"Free State":    5.8,
	"Limpopo":       5.6,
	"Mpumalanga":    5.2,
	"North West":    5.7,
	"Northern Cape": 6.0,
}

// GetRate resolves a city, metro or province to its prepaid tariff. Matching
// is case-insensitive: exact name first, then the first entry where either
// string contains the other. Unknown or empty locations fall back to Eskom
// Direct. Municipal prepaid tariffs are inclining-block; Eskom Direct is
// quoted flat.
func GetRate(location string) Rate {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return eskomRate()
	}

	for _, m := range municipalities {
		if strings.ToLower(m.name) == loc {
			return municipalRate(m)
		}
	}

	for _, m := range municipalities {
		name := strings.ToLower(m.name)
		if strings.Contains(name, loc) || strings.Contains(loc, name) {
			return municipalRate(m)
		}
	}

	return eskomRate()
}

// GetSeasonalRate applies the winter (May to August) surcharge for the
// month of now.
func GetSeasonalRate(location string, now time.Time) SeasonalRate {
	base := GetRate(location)
	season := SeasonFor(now)
	multiplier := multipliers[season]

	return SeasonalRate{
		Rate:         base,
		Season:       season,
		Multiplier:   multiplier,
		SeasonalRate: round2(base.Rate * multiplier),
	}
}

func SeasonFor(t time.Time) Season {
	if m := t.Month(); m >= time.May && m <= time.August {
		return Winter
	}
	return Summer
}

// PeakSunHours returns average daily peak sun hours for a province.
func PeakSunHours(province string) float64 {
	if h, ok := peakSunHours[province]; ok {
		return h
	}
	return defaultPeakSunHours
}

func municipalRate(m municipality) Rate {
	return Rate{Rate: m.rates.Prepaid, Municipality: m.name, IsIBT: true, Rates: m.rates}
}

func eskomRate() Rate {
	return Rate{Rate: eskomDirect.Prepaid, Municipality: EskomDirectName, Rates: eskomDirect}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

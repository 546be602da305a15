package advice

import (
	"errors"
	"strings"

	"staticfund-api/internal/cache"
	"staticfund-api/internal/tariff"
)

// Category names an advice flavour. Cached categories each own a cache.
type Category string

const (
	CategoryTips         Category = "tips"
	CategoryHabits       Category = "habits"
	CategoryCompleteness Category = "completeness"
	CategoryInterview    Category = "interview"
	CategoryOnboard      Category = "onboard"
	CategorySolarQuotes  Category = "solar_quotes"
	CategoryScan         Category = "scan"
)

// Device is an appliance as submitted by the client or read from the store.
type Device struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name" validate:"required,max=255"`
	Watts       float64 `json:"watts" validate:"gte=0,lte=50000"`
	SurgeWatts  float64 `json:"surge_watts,omitempty" validate:"gte=0,lte=100000"`
	HoursPerDay float64 `json:"hours_per_day,omitempty" validate:"gte=0,lte=24"`
	DaysPerWeek float64 `json:"days_per_week,omitempty" validate:"gte=0,lte=7"`
}

func keyFields(devices []Device) []cache.DeviceFields {
	out := make([]cache.DeviceFields, len(devices))
	for i, d := range devices {
		out[i] = cache.DeviceFields{Name: d.Name, Watts: d.Watts, HoursPerDay: d.HoursPerDay}
	}
	return out
}

// Household is the onboarding profile used to personalise prompts.
type Household struct {
	Name          string   `json:"name,omitempty"`
	City          string   `json:"city,omitempty"`
	Province      string   `json:"province,omitempty"`
	HouseholdSize string   `json:"household_size,omitempty"`
	PropertyType  string   `json:"property_type,omitempty"`
	HasPool       *bool    `json:"has_pool,omitempty"`
	CookingFuel   string   `json:"cooking_fuel,omitempty"`
	WorkFromHome  *bool    `json:"work_from_home,omitempty"`
	MonthlySpend  float64  `json:"monthly_spend,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
}

// Location picks the most specific place for tariff lookup.
func (h Household) Location() string {
	if strings.TrimSpace(h.City) != "" {
		return h.City
	}
	return h.Province
}

type Tip struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	PotentialSavings    string   `json:"potential_savings"`
	ImplementationSteps []string `json:"implementation_steps"`
	Priority            string   `json:"priority"`
	PaybackPeriod       string   `json:"payback_period"`
}

type TipsResult struct {
	Tips    []Tip `json:"tips"`
	Cached  bool  `json:"cached,omitempty"`
	Offline bool  `json:"offline,omitempty"`
}

func (r *TipsResult) validate() error {
	if len(r.Tips) == 0 {
		return errors.New("no tips in response")
	}
	return nil
}

type Habit struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImpactLevel string `json:"impact_level"`
}

type HabitsResult struct {
	Habits []Habit `json:"habits"`
	Cached bool    `json:"cached,omitempty"`
}

func (r *HabitsResult) validate() error {
	if r.Habits == nil {
		return errors.New("habits missing from response")
	}
	for i := range r.Habits {
		if strings.TrimSpace(r.Habits[i].Title) == "" {
			return errors.New("habit without title")
		}
		if r.Habits[i].ImpactLevel == "" {
			r.Habits[i].ImpactLevel = "MEDIUM"
		}
	}
	return nil
}

type MissingItem struct {
	Name           string  `json:"name"`
	Question       string  `json:"question"`
	EstimatedWatts float64 `json:"estimated_watts"`
}

type CompletenessResult struct {
	MissingItems []MissingItem `json:"missing_items"`
	Cached       bool          `json:"cached,omitempty"`
}

func (r *CompletenessResult) validate() error {
	if r.MissingItems == nil {
		r.MissingItems = []MissingItem{}
	}
	return nil
}

type SuggestedDevice struct {
	Name       string  `json:"name"`
	Watts      float64 `json:"watts"`
	SurgeWatts float64 `json:"surge_watts"`
}

// InterviewQuestion asks about the single most likely missing appliance.
type InterviewQuestion struct {
	Question        string          `json:"question"`
	SuggestedDevice SuggestedDevice `json:"suggested_device"`
}

func (q *InterviewQuestion) validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("interview question is empty")
	}
	return nil
}

// OnboardQuestion is the next question of the household-profile interview.
// Field names the profile attribute the answer fills in.
type OnboardQuestion struct {
	Field    string   `json:"field"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
}

func (q *OnboardQuestion) validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("onboarding question is empty")
	}
	if !onboardFields[q.Field] {
		return errors.New("onboarding question targets unknown field " + q.Field)
	}
	return nil
}

var onboardFields = map[string]bool{
	"household_size": true,
	"property_type":  true,
	"has_pool":       true,
	"cooking_fuel":   true,
	"work_from_home": true,
}

type SolarPackage struct {
	Tier           string   `json:"tier"`
	Name           string   `json:"name"`
	InverterKW     float64  `json:"inverter_kw"`
	PanelCount     int      `json:"panel_count"`
	PanelWatts     float64  `json:"panel_watts"`
	BatteryKWh     float64  `json:"battery_kwh"`
	EstimatedCost  string   `json:"estimated_cost"`
	MonthlySavings string   `json:"monthly_savings"`
	PaybackYears   float64  `json:"payback_years"`
	CoveredDevices []string `json:"covered_devices"`
	Description    string   `json:"description"`
}

type SolarQuotesResult struct {
	DailyKWh      float64             `json:"daily_kwh"`
	PeakLoadWatts float64             `json:"peak_load_watts"`
	PeakSunHours  float64             `json:"peak_sun_hours"`
	Tariff        tariff.SeasonalRate `json:"tariff"`
	Packages      []SolarPackage      `json:"packages"`
	Cached        bool                `json:"cached,omitempty"`
}

func (r *SolarQuotesResult) validate() error {
	if len(r.Packages) == 0 {
		return errors.New("no solar packages in response")
	}
	return nil
}

// ScanResult is the AI's reading of an appliance photo.
type ScanResult struct {
	Name        string  `json:"name"`
	Watts       float64 `json:"watts"`
	SurgeWatts  float64 `json:"surge_watts"`
	HoursPerDay float64 `json:"hours_per_day"`
	DaysPerWeek float64 `json:"days_per_week"`
}

func (r *ScanResult) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("device name missing from scan")
	}
	if r.DaysPerWeek == 0 {
		r.DaysPerWeek = 7
	}
	return nil
}

package store

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ProfileUpdate is one change to a user's household profile. The set of
// implementations is closed; each maps to fixed columns.
type ProfileUpdate interface {
	assignments() []assignment
}

type assignment struct {
	column string
	value  any
}

type (
	HouseholdSize       string
	PropertyType        string
	HasPool             bool
	CookingFuel         string
	WorkFromHome        bool
	OnboardingCompleted bool
	MonthlySpend        float64
	City                string
	Province            string
)

// Location sets both coordinates together.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (v HouseholdSize) assignments() []assignment {
	return []assignment{{"household_size", string(v)}}
}
func (v PropertyType) assignments() []assignment { return []assignment{{"property_type", string(v)}} }
func (v HasPool) assignments() []assignment      { return []assignment{{"has_pool", bool(v)}} }
func (v CookingFuel) assignments() []assignment  { return []assignment{{"cooking_fuel", string(v)}} }
func (v WorkFromHome) assignments() []assignment { return []assignment{{"work_from_home", bool(v)}} }
func (v OnboardingCompleted) assignments() []assignment {
	return []assignment{{"onboarding_completed", bool(v)}}
}
func (v MonthlySpend) assignments() []assignment { return []assignment{{"monthly_spend", float64(v)}} }
func (v City) assignments() []assignment         { return []assignment{{"city", string(v)}} }
func (v Province) assignments() []assignment     { return []assignment{{"province", string(v)}} }
func (v Location) assignments() []assignment {
	return []assignment{{"latitude", v.Latitude}, {"longitude", v.Longitude}}
}

// profileFields decodes one JSON member into its update.
var profileFields = map[string]func(json.RawMessage) (ProfileUpdate, error){
	"household_size":       decodeAs[HouseholdSize],
	"property_type":        decodeAs[PropertyType],
	"has_pool":             decodeAs[HasPool],
	"cooking_fuel":         decodeAs[CookingFuel],
	"work_from_home":       decodeAs[WorkFromHome],
	"onboarding_completed": decodeAs[OnboardingCompleted],
	"monthly_spend":        decodeAs[MonthlySpend],
	"city":                 decodeAs[City],
	"province":             decodeAs[Province],
	"location":             decodeAs[Location],
}

func decodeAs[T ProfileUpdate](raw json.RawMessage) (ProfileUpdate, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeProfileUpdates turns a JSON object of profile fields into updates,
// in key order. Unknown fields and mistyped values are errors.
func DecodeProfileUpdates(body []byte) ([]ProfileUpdate, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("profile body: %w", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]ProfileUpdate, 0, len(keys))
	for _, k := range keys {
		decode, ok := profileFields[k]
		if !ok {
			return nil, fmt.Errorf("unknown profile field %q", k)
		}
		u, err := decode(fields[k])
		if err != nil {
			return nil, fmt.Errorf("profile field %q: %w", k, err)
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// Onboarding is the full household questionnaire saved at the end of
// onboarding.
type Onboarding struct {
	HouseholdSize       string   `json:"household_size"`
	PropertyType        string   `json:"property_type"`
	HasPool             bool     `json:"has_pool"`
	CookingFuel         string   `json:"cooking_fuel"`
	WorkFromHome        bool     `json:"work_from_home"`
	Latitude            *float64 `json:"latitude"`
	Longitude           *float64 `json:"longitude"`
	OnboardingCompleted bool     `json:"onboarding_completed"`
}

// Updates expands the questionnaire into profile updates. Coordinates are
// only written when both are present.
func (o Onboarding) Updates() []ProfileUpdate {
	out := []ProfileUpdate{
		HouseholdSize(o.HouseholdSize),
		PropertyType(o.PropertyType),
		HasPool(o.HasPool),
		CookingFuel(o.CookingFuel),
		WorkFromHome(o.WorkFromHome),
		OnboardingCompleted(o.OnboardingCompleted),
	}
	if o.Latitude != nil && o.Longitude != nil {
		out = append(out, Location{Latitude: *o.Latitude, Longitude: *o.Longitude})
	}
	return out
}

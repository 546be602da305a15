package advice

import (
	"encoding/json"
	"fmt"
	"strings"

	"staticfund-api/internal/tariff"
)

func devicesJSON(devices []Device) string {
	b, err := json.Marshal(devices)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func tariffLine(rate tariff.SeasonalRate) string {
	return fmt.Sprintf("R%.2f/kWh (%s, %s season)", rate.SeasonalRate, rate.Municipality, strings.ToLower(string(rate.Season)))
}

const scanPrompt = `Analyze this image of an electrical device.
Identify the device type and estimate its power consumption details.
Return ONLY a JSON object with the following fields:
- name: (string) A short, descriptive name (e.g., "Kettle", "LED Bulb").
- watts: (number) Estimated running wattage.
- surge_watts: (number) Estimated surge wattage (0 if none).
- hours_per_day: (number) Estimated average daily usage in hours (e.g., 0.5 for a kettle).
- days_per_week: (number) Estimated usage days per week (usually 7).

If you cannot identify the device, make a best guess based on similar looking appliances.
Do not include markdown formatting. Just the raw JSON object.`

func tipsPrompt(devices []Device, rate tariff.SeasonalRate) string {
	return fmt.Sprintf(`You are a Senior Electrical Engineer and Energy Consultant with 20+ years of experience in South African residential energy systems. You are conducting a professional energy audit.

Analyze the following electrical device inventory and usage patterns:
%s

Provide professional, engineering-grade recommendations covering load management, efficient
technologies (inverter motors, LED, VSD drives) and behavioural efficiency ("Run dishwasher only
when full", "Reduce washing temperature to 30°C").

Specific checks:
- Dishwasher/Washing Machine: full loads, eco-cycles, lower temperatures.
- Geyser: timing, temperature settings, blankets.
- Pool Pump: reduced running hours in winter vs summer.
- Fridge: seals and spacing if consumption seems high.

Format your response as JSON only (no markdown):
{
  "tips": [
    {
      "title": "Technical title",
      "description": "Consumption analysis, cause of inefficiency, solution with wattage comparisons, savings calculation",
      "potential_savings": "R###/month",
      "implementation_steps": ["Step 1", "Step 2", "Step 3"],
      "priority": "HIGH/MEDIUM/LOW",
      "payback_period": "X months"
    }
  ]
}

Always cite specific wattages and calculations. Use the current electricity rate of %s.
Prioritize by ROI and ease of implementation.
Return ONLY the JSON object.`, devicesJSON(devices), tariffLine(rate))
}

func habitsPrompt(devices []Device) string {
	return fmt.Sprintf(`Act as a Professional Energy Consultant.
Analyze this inventory for a South African home:
%s

Create 5-7 personalized daily energy-saving habits.
Focus on behavioural changes based on the specific devices present.

Examples:
- If Pool Pump exists -> "Run pool pump for 4h only (Winter)"
- If Tumble Dryer exists -> "Sun dry one load of laundry"
- If Geyser exists -> "Shower in under 5 minutes"
- General -> "Turn off lights in empty rooms"

Return JSON ONLY:
{
  "habits": [
    { "title": "Short Title", "description": "Actionable description", "impact_level": "HIGH/MEDIUM/LOW" }
  ]
}`, devicesJSON(devices))
}

func completenessPrompt(devices []Device) string {
	return fmt.Sprintf(`Analyze this list of electrical devices entered by a user for a home energy audit:
%s

Identify common household appliances that are MISSING from this list. Check for:
Geyser / Water Heater, Refrigerator, Washing Machine, Electric Stove / Oven, WiFi Router,
Lighting, Kettle, TV.

Return ONLY a JSON object with a "missing_items" array. Each item has:
- name: (string) the missing appliance
- question: (string) a friendly question to ask the user
- estimated_watts: (number) typical wattage

Limit to the top 3 most likely missing essential items. If the list looks complete, return an empty array.
Do not include markdown formatting.`, devicesJSON(devices))
}

func interviewPrompt(devices []Device) string {
	return fmt.Sprintf(`You are an inquisitive Energy Auditor.
Review this list of devices:
%s

Determine the ONE most critical appliance that a typical home has but is missing here (e.g., Geyser, Fridge, Stove, Kettle).
If the list has all essentials, return null.
Otherwise ask a friendly question to check if they have it, and give the device details to add if they say yes.

Return JSON ONLY:
{
  "question": "I noticed you don't have a Geyser listed. Do you use an electric water heater?",
  "suggested_device": { "name": "Geyser (150L)", "watts": 3000, "surge_watts": 0 }
}
OR return null if complete.`, devicesJSON(devices))
}

func onboardPrompt(h Household, devices []Device) string {
	profile, err := json.Marshal(h)
	if err != nil {
		profile = []byte("{}")
	}
	return fmt.Sprintf(`You are onboarding a South African household for an energy audit.
Known profile:
%s
Known devices:
%s

Pick the ONE unanswered profile field that would most improve the audit and ask about it.
Allowed fields: household_size, property_type, has_pool, cooking_fuel, work_from_home.
If every field is answered, return null.

Return JSON ONLY:
{ "field": "cooking_fuel", "question": "How do you mostly cook?", "options": ["Electric", "Gas", "Both"] }
OR return null if complete.`, profile, devicesJSON(devices))
}

func solarPrompt(devices []Device, loc Household, rate tariff.SeasonalRate, dailyKWh, peakWatts, sunHours float64) string {
	var parts []string
	for _, p := range []string{loc.City, loc.Province} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	place := "South Africa"
	if len(parts) > 0 {
		place = strings.Join(parts, ", ")
	}
	return fmt.Sprintf(`You are a solar installer quoting a South African home in %s.
Devices:
%s

Daily consumption: %.2f kWh. Peak simultaneous load: %.0f W. Average peak sun hours: %.1f.
Electricity costs %s.

Design three backup/solar packages, tiers BASIC, STANDARD and PREMIUM. BASIC covers essentials
during load shedding, PREMIUM offsets most of the daily consumption.

Return JSON ONLY:
{
  "packages": [
    {
      "tier": "BASIC",
      "name": "Essentials Backup",
      "inverter_kw": 3,
      "panel_count": 4,
      "panel_watts": 550,
      "battery_kwh": 5,
      "estimated_cost": "R45,000",
      "monthly_savings": "R600",
      "payback_years": 6.5,
      "covered_devices": ["Fridge", "Lights"],
      "description": "..."
    }
  ]
}`, place, devicesJSON(devices), dailyKWh, peakWatts, sunHours, tariffLine(rate))
}

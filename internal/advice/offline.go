package advice

import "strings"

type offlineRule struct {
	keywords []string
	tip      Tip
}

// offlineRules are checked in order; each contributes at most one tip.
var offlineRules = []offlineRule{
	{
		keywords: []string{"geyser", "water heater"},
		tip: Tip{
			Title:            "Geyser Timer Installation",
			Description:      "Your geyser (water heater) is likely your highest energy consumer at ~3000W. Installing a timer to run only 2 hours before peak usage times (morning/evening) can reduce consumption by 40-50%.",
			PotentialSavings: "R200-400/month",
			ImplementationSteps: []string{
				"Purchase a geyser timer (R150-300 at hardware stores)",
				"Set timer for 4-6am and 4-6pm",
				"Consider a geyser blanket for additional 10% savings",
			},
			Priority:      "HIGH",
			PaybackPeriod: "1 month",
		},
	},
	{
		keywords: []string{"fridge", "refrigerator"},
		tip: Tip{
			Title:            "Refrigerator Efficiency",
			Description:      "Running at optimal temperature (3-4°C for fridge, -18°C for freezer) prevents overcooling. Ensure door seals are intact and coils are dust-free.",
			PotentialSavings: "R50-100/month",
			ImplementationSteps: []string{
				"Check door seal by closing on a piece of paper - it should grip",
				"Clean condenser coils at the back",
				"Don't place hot food directly in fridge",
			},
			Priority:      "MEDIUM",
			PaybackPeriod: "Immediate",
		},
	},
	{
		keywords: []string{"light", "bulb", "lamp"},
		tip: Tip{
			Title:            "LED Lighting Upgrade",
			Description:      "Replacing old incandescent or CFL bulbs with LEDs reduces lighting energy by 75-85%. A 60W incandescent = 7W LED with same brightness.",
			PotentialSavings: "R80-150/month",
			ImplementationSteps: []string{
				"Count all bulbs in home",
				"Replace most-used bulbs first (living room, kitchen)",
				"Choose warm white (2700K) for living areas",
			},
			Priority:      "HIGH",
			PaybackPeriod: "3-6 months",
		},
	},
	{
		keywords: []string{"pool", "pump"},
		tip: Tip{
			Title:            "Pool Pump Scheduling",
			Description:      "Pool pumps typically run 8+ hours but often only need 4-6 hours. Run during off-peak hours (10pm-6am) for lower rates.",
			PotentialSavings: "R150-300/month",
			ImplementationSteps: []string{
				"Reduce run time to 6 hours in summer, 4 hours in winter",
				"Install a timer if not present",
				"Consider a variable speed pump for 70% savings",
			},
			Priority:      "HIGH",
			PaybackPeriod: "Immediate with timer",
		},
	},
	{
		keywords: []string{"stove", "oven", "hob"},
		tip: Tip{
			Title:            "Cooking Efficiency",
			Description:      "Electric stoves at 1500-2500W are major consumers. Use correctly sized pots (matching element size) and lids to reduce cooking time by 25%.",
			PotentialSavings: "R50-100/month",
			ImplementationSteps: []string{
				"Match pot size to element size",
				"Always use lids when boiling",
				"Turn off elements 5 minutes before food is done",
			},
			Priority:      "MEDIUM",
			PaybackPeriod: "Immediate",
		},
	},
}

var standbyTip = Tip{
	Title:            "Standby Power Elimination",
	Description:      "Devices on standby consume 5-10% of household electricity. TVs, gaming consoles, and chargers are common culprits.",
	PotentialSavings: "R30-80/month",
	ImplementationSteps: []string{
		"Use power strips with switches",
		"Unplug phone chargers when not in use",
		"Switch off entertainment center at wall when sleeping",
	},
	Priority:      "LOW",
	PaybackPeriod: "Immediate",
}

// OfflineTips picks canned tips by case-insensitive substring match on device
// names. Output follows rule order, each rule at most once, and always ends
// with the standby tip.
func OfflineTips(devices []Device) TipsResult {
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = strings.ToLower(d.Name)
	}

	tips := make([]Tip, 0, len(offlineRules)+1)
	for _, rule := range offlineRules {
		if anyContains(names, rule.keywords) {
			tips = append(tips, cloneTip(rule.tip))
		}
	}
	tips = append(tips, cloneTip(standbyTip))

	return TipsResult{Tips: tips, Offline: true}
}

func anyContains(names, keywords []string) bool {
	for _, n := range names {
		for _, k := range keywords {
			if strings.Contains(n, k) {
				return true
			}
		}
	}
	return false
}

// cloneTip copies the steps slice so callers cannot mutate the table.
func cloneTip(t Tip) Tip {
	t.ImplementationSteps = append([]string(nil), t.ImplementationSteps...)
	return t
}

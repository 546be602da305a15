package cache

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

// DeviceFields are the device attributes that identify an advice request.
type DeviceFields struct {
	Name        string
	Watts       float64
	HoursPerDay float64
}

const keyPrefix = "devices_"

// DeriveKey builds an order-independent cache key for a device list.
//
// Each device becomes "name:watts:hours"; the strings are sorted, joined with
// "|" and folded through a 32-bit rolling hash (h*31 + c over UTF-16 code
// units). Permutations of the same list always map to the same key.
func DeriveKey(devices []DeviceFields) string {
	parts := make([]string, len(devices))
	for i, d := range devices {
		parts[i] = d.Name + ":" + formatNumber(d.Watts) + ":" + formatNumber(d.HoursPerDay)
	}
	sort.Strings(parts)

	return keyPrefix + strconv.FormatInt(int64(rollingHash(strings.Join(parts, "|"))), 10)
}

// CategoryKey namespaces DeriveKey for categories sharing the derivation,
// e.g. "habits_devices_-1234".
func CategoryKey(category string, devices []DeviceFields) string {
	if category == "" {
		return DeriveKey(devices)
	}
	return category + "_" + DeriveKey(devices)
}

func rollingHash(s string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(unit)
	}
	return h
}

// formatNumber renders the shortest representation, so 1500 stays "1500"
// and 2.5 stays "2.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

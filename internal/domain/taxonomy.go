// Package domain defines the portal's core data model: the snapshot that holds
// all marketplace state (providers, services, bookings, chat threads, admin
// queues), the fixed service taxonomy, and the status enums with their derived
// display labels and tones. Everything here is plain data plus pure functions;
// normalization of whole snapshots lives in the derive package.
package domain

import "strings"

// DefaultCategory is the category assigned when an incoming value does not
// match the taxonomy.
const DefaultCategory = "Home Service"

// DefaultAvailability is the availability text seeded into provider settings.
const DefaultAvailability = "Mon - Sat, 9 AM - 8 PM"

// DefaultRadius is the service radius seeded into provider settings.
const DefaultRadius = "10 km"

// DefaultServicePrice is the placeholder price for a provider's synthesized
// first catalog entry.
const DefaultServicePrice = 499

// ServiceCategoryOrder lists the taxonomy categories in display order.
var ServiceCategoryOrder = []string{
	"Home Service",
	"Electrical",
	"Plumbing",
	"Carpentry",
	"AC Repair",
	"Appliance",
	"Mechanic",
}

// ServiceCategories maps each category to its fixed subcategory list. The
// first subcategory of a category doubles as the default when an incoming
// subcategory is unrecognized.
var ServiceCategories = map[string][]string{
	"Home Service": {
		"House Cleaning",
		"Bathroom Cleaning",
		"Painting",
		"Deep Cleaning",
		"Sofa Cleaning",
	},
	"Electrical": {"Wiring Repair", "Switch/Socket Fix", "Fan Installation", "DB Panel Check"},
	"Plumbing":   {"Tap Repair", "Pipe Leakage", "Drain Blockage", "Bathroom Fitting"},
	"Carpentry":  {"Furniture Repair", "Door Lock Fix", "Shelf Installation", "Custom Woodwork"},
	"AC Repair":  {"Gas Refill", "Cooling Issue", "AC Installation", "Periodic Servicing"},
	"Appliance":  {"Washing Machine", "Refrigerator", "Microwave", "Water Purifier"},
	"Mechanic":   {"Bike Service", "Car Service", "Puncture Repair", "Battery Replacement"},
}

// SlotOptions is the default list of bookable time slots, used whenever a
// snapshot carries none of its own.
var SlotOptions = []string{
	"08:00 AM - 09:00 AM",
	"09:30 AM - 10:30 AM",
	"11:00 AM - 12:00 PM",
	"01:30 PM - 02:30 PM",
	"04:00 PM - 05:00 PM",
	"06:30 PM - 07:30 PM",
}

// NormalizeServiceCategory coerces an arbitrary category value into the fixed
// taxonomy. Matching is case-insensitive; empty or unrecognized input maps to
// DefaultCategory.
func NormalizeServiceCategory(value string) string {
	incoming := strings.TrimSpace(value)
	if incoming == "" {
		return DefaultCategory
	}
	for _, category := range ServiceCategoryOrder {
		if strings.EqualFold(category, incoming) {
			return category
		}
	}
	return DefaultCategory
}

// NormalizeServiceSubcategory coerces a subcategory into the list belonging
// to the (normalized) category. Unrecognized values map to the category's
// first subcategory.
func NormalizeServiceSubcategory(category, value string) string {
	normalized := NormalizeServiceCategory(category)
	options := ServiceCategories[normalized]
	incoming := strings.TrimSpace(value)

	if len(options) == 0 {
		if incoming != "" {
			return incoming
		}
		return "General Service"
	}
	for _, option := range options {
		if strings.EqualFold(option, incoming) {
			return option
		}
	}
	return options[0]
}

// SanitizeSlots trims, drops empties, and deduplicates slot strings while
// preserving first-seen order.
func SanitizeSlots(slots []string) []string {
	seen := make(map[string]struct{}, len(slots))
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		trimmed := strings.TrimSpace(slot)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

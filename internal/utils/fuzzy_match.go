package utils

import (
	"strings"
)

// statusAliases maps a canonical load status to the words people use for it
var statusAliases = map[string][]string{
	"available":  {"available", "open", "posted", "unassigned"},
	"booked":     {"booked", "assigned", "covered", "dispatched", "scheduled"},
	"in_transit": {"in transit", "in_transit", "intransit", "en route", "enroute", "moving", "rolling", "on the road"},
	"delivered":  {"delivered", "completed", "complete", "dropped", "unloaded"},
	"invoiced":   {"invoiced", "billed"},
	"paid":       {"paid", "settled"},
	"delayed":    {"delayed", "late", "behind schedule"},
	"cancelled":  {"cancelled", "canceled", "tonu"},
}

// statusLabels are the display forms of canonical statuses
var statusLabels = map[string]string{
	"available":  "Available",
	"booked":     "Booked",
	"in_transit": "In Transit",
	"delivered":  "Delivered",
	"invoiced":   "Invoiced",
	"paid":       "Paid",
	"delayed":    "Delayed",
	"cancelled":  "Cancelled",
}

// CanonicalStatus returns the canonical status key for a raw status or alias,
// or "" when the value is not recognized
func CanonicalStatus(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "-", " ")
	if _, ok := statusAliases[value]; ok {
		return value
	}
	for canonical, aliases := range statusAliases {
		for _, alias := range aliases {
			if value == alias {
				return canonical
			}
		}
	}
	return ""
}

// FuzzyMatchStatus reports whether a search term refers to the given load status.
// A plain substring match counts, as does any alias of the status's canonical form.
func FuzzyMatchStatus(term, status string) bool {
	termLower := strings.ToLower(strings.TrimSpace(term))
	statusLower := strings.ToLower(strings.TrimSpace(status))
	if termLower == "" || statusLower == "" {
		return false
	}

	if strings.Contains(statusLower, termLower) {
		return true
	}

	canonical := CanonicalStatus(statusLower)
	if canonical == "" {
		return false
	}
	for _, alias := range statusAliases[canonical] {
		if alias == termLower || (len(termLower) >= 4 && strings.Contains(alias, termLower)) {
			return true
		}
	}
	return false
}

// StatusLabel normalizes a status for display ("in_transit" -> "In Transit")
func StatusLabel(status string) string {
	if label, ok := statusLabels[CanonicalStatus(status)]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(strings.TrimSpace(status), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

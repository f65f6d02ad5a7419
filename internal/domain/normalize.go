package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// Every fullName accepted at intake or provisioning goes through it.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package resolver turns user-typed id prefixes into full note and header ids.
package resolver

import (
	"fmt"
	"slices"
	"strings"
)

// MinShortIDLength is the minimum length of an id prefix.
const MinShortIDLength = 4

// Resolve returns the one id in ids that equals or starts with shortID.
// An exact match always wins, so ids shorter than MinShortIDLength still resolve.
func Resolve(ids []string, shortID string) (string, error) {
	shortID = strings.TrimSpace(shortID)
	if slices.Contains(ids, shortID) {
		return shortID, nil
	}
	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, shortID) {
			matches = append(matches, id)
		}
	}
	slices.Sort(matches)

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// ResolveAll resolves every prefix in shortIDs, stopping at the first failure.
func ResolveAll(ids []string, shortIDs []string) ([]string, error) {
	out := make([]string, 0, len(shortIDs))
	for _, s := range shortIDs {
		id, err := Resolve(ids, s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// NotFoundError indicates no id matched the prefix.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no ids found matching '%s'", e.ShortID)
}

// AmbiguousError indicates several ids matched the prefix.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d ids", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists the matching ids (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: ambiguous short ID '%s' matches %d ids:\n", err.ShortID, len(err.Matches))

	displayCount := min(len(err.Matches), 10)
	for _, m := range err.Matches[:displayCount] {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	if len(err.Matches) > 10 {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-10)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the note.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}

// Package datatypes defines shared enumerations for content items (priority levels, source platforms).
package datatypes

import (
	"errors"
	"fmt"
)

// ErrInvalidPriority is returned when a priority name or level is not recognized.
var ErrInvalidPriority = errors.New("invalid priority")

// Priority is the coarse importance level a connector assigns to a content item.
// The numeric value is what gets persisted; the string form is used in the API.
type Priority uint8

// Priority levels, ordered from least to most important.
const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

// priorityMap is the single source of truth for valid priority strings.
var priorityMap = map[string]Priority{
	"low":    PriorityLow,
	"medium": PriorityMedium,
	"high":   PriorityHigh,
	"urgent": PriorityUrgent,
}

var reversePriorityMap map[Priority]string

func init() {
	reversePriorityMap = make(map[Priority]string, len(priorityMap))
	for str, p := range priorityMap {
		reversePriorityMap[p] = str
	}
}

// String returns the API name of the priority, or "" when the level is unknown.
func (p Priority) String() string {
	return reversePriorityMap[p]
}

// IsValid reports whether p is one of the defined levels.
func (p Priority) IsValid() bool {
	_, ok := reversePriorityMap[p]

	return ok
}

// ParsePriority converts an API name ("low", "medium", "high", "urgent") to a Priority.
func ParsePriority(s string) (Priority, bool) {
	p, ok := priorityMap[s]

	return p, ok
}

// PriorityFromLevel converts a persisted numeric level back to a Priority.
func PriorityFromLevel(level int16) (Priority, error) {
	if level < int16(PriorityLow) || level > int16(PriorityUrgent) {
		return 0, fmt.Errorf("%w: level %d", ErrInvalidPriority, level)
	}

	return Priority(level), nil
}

// MarshalText encodes the priority by name.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: level %d", ErrInvalidPriority, p)
	}

	return []byte(p.String()), nil
}

// UnmarshalText decodes a priority name.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, ok := ParsePriority(string(text))
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, string(text))
	}

	*p = parsed

	return nil
}

// AllPriorities returns every priority name, lowest first.
func AllPriorities() []string {
	return []string{"low", "medium", "high", "urgent"}
}

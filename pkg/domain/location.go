package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLocation is returned when an invalid location value is provided
var ErrInvalidLocation = errors.New("invalid location value")

// Location represents an immutable shelf position in a warehouse.
// Canonical format: ZONE,AISLE,RACK,LEVEL (e.g., "A,0,1,2")
type Location struct {
	zone  string
	aisle int
	rack  int
	level int
}

// NewLocation creates a new Location value object with validation
func NewLocation(zone string, aisle, rack, level int) (Location, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return Location{}, fmt.Errorf("%w: zone is required", ErrInvalidLocation)
	}
	if strings.ContainsAny(zone, ", \t") {
		return Location{}, fmt.Errorf("%w: zone %q contains a separator", ErrInvalidLocation, zone)
	}
	if aisle < 0 || rack < 0 || level < 0 {
		return Location{}, fmt.Errorf("%w: aisle, rack and level must not be negative", ErrInvalidLocation)
	}

	return Location{
		zone:  zone,
		aisle: aisle,
		rack:  rack,
		level: level,
	}, nil
}

// ParseLocation parses a location from its four components as they appear in
// CSV columns or script tokens.
func ParseLocation(parts ...string) (Location, error) {
	if len(parts) != 4 {
		return Location{}, fmt.Errorf("%w: expected 4 components, got %d", ErrInvalidLocation, len(parts))
	}

	indexes := make([]int, 3)
	for i, raw := range parts[1:] {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Location{}, fmt.Errorf("%w: %q is not a number", ErrInvalidLocation, raw)
		}
		indexes[i] = n
	}

	return NewLocation(parts[0], indexes[0], indexes[1], indexes[2])
}

// ParseLocationKey parses the canonical "zone,aisle,rack,level" form
func ParseLocationKey(key string) (Location, error) {
	return ParseLocation(strings.Split(key, ",")...)
}

// MustNewLocation creates a Location or panics if invalid (use for fixtures only)
func MustNewLocation(zone string, aisle, rack, level int) Location {
	location, err := NewLocation(zone, aisle, rack, level)
	if err != nil {
		panic(err)
	}
	return location
}

// Zone returns the zone component
func (l Location) Zone() string {
	return l.zone
}

// Aisle returns the aisle number
func (l Location) Aisle() int {
	return l.aisle
}

// Rack returns the rack number
func (l Location) Rack() int {
	return l.rack
}

// Level returns the level number
func (l Location) Level() int {
	return l.level
}

// IsZero reports whether the location was never set
func (l Location) IsZero() bool {
	return l.zone == ""
}

// Key returns the canonical comma separated form used in exports
func (l Location) Key() string {
	return fmt.Sprintf("%s,%d,%d,%d", l.zone, l.aisle, l.rack, l.level)
}

// String returns the space separated form used in picker instructions
func (l Location) String() string {
	return fmt.Sprintf("%s %d %d %d", l.zone, l.aisle, l.rack, l.level)
}

// Equals checks if two locations are equal
func (l Location) Equals(other Location) bool {
	return l == other
}

// IsSameZone checks if this location is in the same zone as another
func (l Location) IsSameZone(other Location) bool {
	return l.zone == other.zone
}

// IsSameAisle checks if this location is in the same aisle as another
func (l Location) IsSameAisle(other Location) bool {
	return l.zone == other.zone && l.aisle == other.aisle
}

// DistanceFrom calculates a simple distance metric to another location
// Returns Manhattan distance, with a fixed penalty for crossing zones
func (l Location) DistanceFrom(other Location) int {
	zoneDiff := 0
	if l.zone != other.zone {
		zoneDiff = 100
	}

	return zoneDiff + abs(l.aisle-other.aisle) + abs(l.rack-other.rack) + abs(l.level-other.level)
}

// MarshalText implements encoding.TextMarshaler for JSON/BSON serialization
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.Key()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON/BSON deserialization
func (l *Location) UnmarshalText(text []byte) error {
	location, err := ParseLocationKey(string(text))
	if err != nil {
		return err
	}
	*l = location
	return nil
}

// abs returns absolute value of an integer
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

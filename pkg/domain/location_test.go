package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocation(t *testing.T) {
	tests := []struct {
		name    string
		zone    string
		aisle   int
		rack    int
		level   int
		wantErr bool
	}{
		{name: "valid", zone: "A", aisle: 0, rack: 1, level: 2},
		{name: "trims zone", zone: " B ", aisle: 1, rack: 0, level: 0},
		{name: "empty zone", zone: "", wantErr: true},
		{name: "zone with comma", zone: "A,B", wantErr: true},
		{name: "negative aisle", zone: "A", aisle: -1, wantErr: true},
		{name: "negative level", zone: "A", level: -3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := NewLocation(tt.zone, tt.aisle, tt.rack, tt.level)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.aisle, loc.Aisle())
			assert.Equal(t, tt.rack, loc.Rack())
			assert.Equal(t, tt.level, loc.Level())
		})
	}
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("A", "1", "0", "3")
	require.NoError(t, err)
	assert.Equal(t, "A,1,0,3", loc.Key())
	assert.Equal(t, "A 1 0 3", loc.String())

	_, err = ParseLocation("A", "x", "0", "3")
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = ParseLocation("A", "1")
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestLocationComparisons(t *testing.T) {
	a := MustNewLocation("A", 0, 1, 2)
	b := MustNewLocation("A", 0, 3, 0)
	c := MustNewLocation("B", 2, 1, 2)

	assert.True(t, a.Equals(MustNewLocation("A", 0, 1, 2)))
	assert.False(t, a.Equals(b))
	assert.True(t, a.IsSameAisle(b))
	assert.False(t, a.IsSameZone(c))
	assert.Equal(t, 4, a.DistanceFrom(b))
	assert.Equal(t, 102, a.DistanceFrom(c))
}

func TestLocationJSON(t *testing.T) {
	loc := MustNewLocation("C", 1, 2, 3)

	data, err := json.Marshal(loc)
	require.NoError(t, err)
	assert.JSONEq(t, `"C,1,2,3"`, string(data))

	var decoded Location
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, loc.Equals(decoded))
}

package domain

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	shared "github.com/wms-platform/fulfillment-simulator/pkg/domain"
)

var numericSKU = regexp.MustCompile(`^[0-9]+$`)

// LocationDirectory resolves a sku to the shelf it is stocked on
type LocationDirectory interface {
	Location(sku string) (shared.Location, error)
}

// Optimize orders a batch of skus into a travel route.
//
// If any sku in the batch is all digits, the whole batch is sorted by numeric
// value; otherwise it is sorted lexicographically. The rule looks at
// membership, not unanimity, so one numeric sku switches a mixed batch to
// numeric ordering. In that case the non-numeric skus follow the numeric ones
// in lexicographic order. The input slice is not modified.
func Optimize(skus []string, directory LocationDirectory) ([]RouteStop, error) {
	sorted := SortSKUs(skus)

	route := make([]RouteStop, 0, len(sorted))
	for _, sku := range sorted {
		location, err := directory.Location(sku)
		if err != nil {
			return nil, fmt.Errorf("optimize route: %w", err)
		}
		route = append(route, RouteStop{SKU: sku, Location: location})
	}
	return route, nil
}

// IsNumericBatch reports whether any sku in the batch is all digits
func IsNumericBatch(skus []string) bool {
	return slices.ContainsFunc(skus, numericSKU.MatchString)
}

// SortSKUs returns a sorted copy of skus using the batch classification
// described on Optimize.
func SortSKUs(skus []string) []string {
	sorted := slices.Clone(skus)
	if IsNumericBatch(sorted) {
		slices.SortStableFunc(sorted, compareNumeric)
	} else {
		slices.Sort(sorted)
	}
	return sorted
}

// compareNumeric compares all-digit strings by value without parsing, so
// skus longer than an int64 still order correctly and leading zeros are kept.
func compareNumeric(a, b string) int {
	aNum, bNum := numericSKU.MatchString(a), numericSKU.MatchString(b)
	switch {
	case aNum && !bNum:
		return -1
	case !aNum && bNum:
		return 1
	case !aNum && !bNum:
		return strings.Compare(a, b)
	}

	ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
	if c := cmp.Compare(len(ta), len(tb)); c != 0 {
		return c
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

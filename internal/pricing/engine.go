// Package pricing estimates the cost and duration of a furniture assembly
// job from the customer's answers. Both estimators are pure functions:
// identical inputs always produce identical quotes.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

// Size categorizes a used-furniture job.
type Size string

const (
	SizeSmall           Size = "small"
	SizeMedium          Size = "medium"
	SizeLarge           Size = "large"
	SizeKitchenOrPieces Size = "kitchen_or_pieces"
)

// Quote is the estimate shown to the customer before scheduling.
type Quote struct {
	Cost          float64  `json:"cost"`
	DurationHours float64  `json:"duration_hours"`
	LineItems     []string `json:"line_items"`
}

var (
	// ErrInvalidMagnitude is returned for a non-finite or non-positive
	// monetary value or piece count.
	ErrInvalidMagnitude = errors.New("invalid magnitude")

	// ErrIncompleteRequest is returned when a field required by the
	// furniture condition is missing.
	ErrIncompleteRequest = errors.New("incomplete request")
)

// Cost tiers for new furniture, by declared furniture value.
const (
	newFlatTierLimit = 600.0 // value <= limit: flat cost
	newFlatCost      = 60.0
	newMidTierLimit  = 1000.0 // flat limit < value <= mid limit: 10%
	newMidRate       = 0.10
	newHighRate      = 0.13 // value > mid limit

	mirrorSurchargeRate = 0.20
)

// Duration thresholds for new furniture. These deliberately do not match
// the cost tiers above (600/1000 vs 1000/1500); the tuning is independent.
const (
	newShortDurationLimit = 1000.0
	newMidDurationLimit   = 1500.0

	newShortDurationHours = 2.0
	newMidDurationHours   = 3.0
	newLongDurationHours  = 5.0
)

// Used-furniture pricing and duration contributions.
const (
	costPerPiece = 40.0
	costSmall    = 80.0
	costMedium   = 100.0
	costLarge    = 150.0

	disassemblySurchargeRate = 0.30
	disassemblyHours         = 1.5

	hoursPerPiece    = 1.0
	hoursSmall       = 1.0
	hoursMediumLarge = 2.0
)

// EstimateNew quotes assembly of newly purchased furniture from its
// declared value and whether it includes a mirror.
func EstimateNew(value float64, hasMirror bool) (Quote, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return Quote{}, fmt.Errorf("furniture value %v: %w", value, ErrInvalidMagnitude)
	}

	var cost float64
	switch {
	case value <= newFlatTierLimit:
		cost = newFlatCost
	case value <= newMidTierLimit:
		cost = value * newMidRate
	default:
		cost = value * newHighRate
	}

	if hasMirror {
		// Compounds on the tiered base, not a flat surcharge.
		cost *= 1 + mirrorSurchargeRate
	}

	var duration float64
	switch {
	case value <= newShortDurationLimit:
		duration = newShortDurationHours
	case value <= newMidDurationLimit:
		duration = newMidDurationHours
	default:
		duration = newLongDurationHours
	}

	items := []string{
		"Type: new furniture",
		fmt.Sprintf("Furniture value: %.2f", value),
	}
	if hasMirror {
		items = append(items, "Has mirror: yes")
	}

	return Quote{Cost: cost, DurationHours: duration, LineItems: items}, nil
}

// EstimateUsed quotes assembly of used furniture from its size category.
// pieces is required (>= 1) only for SizeKitchenOrPieces and ignored
// otherwise.
func EstimateUsed(size Size, needsDisassembly bool, pieces int) (Quote, error) {
	var cost float64
	var sizeLabel string

	if size == SizeKitchenOrPieces {
		if pieces == 0 {
			return Quote{}, fmt.Errorf("piece count required for %s: %w", size, ErrIncompleteRequest)
		}
		if pieces < 0 {
			return Quote{}, fmt.Errorf("piece count %d: %w", pieces, ErrInvalidMagnitude)
		}
		cost = float64(pieces) * costPerPiece
		sizeLabel = fmt.Sprintf("kitchen/pieces (%d pieces)", pieces)
	} else {
		cost = SizeBaseCost(size)
		sizeLabel = string(size)
	}

	if needsDisassembly {
		cost *= 1 + disassemblySurchargeRate
	}

	var duration float64
	if needsDisassembly {
		duration += disassemblyHours
	}
	switch size {
	case SizeKitchenOrPieces:
		duration += float64(pieces) * hoursPerPiece
	case SizeSmall:
		duration += hoursSmall
	case SizeMedium, SizeLarge:
		duration += hoursMediumLarge
	}

	items := []string{
		"Type: used furniture",
		"Size: " + sizeLabel,
	}
	if needsDisassembly {
		items = append(items, "Needs disassembly: yes")
	}

	return Quote{Cost: cost, DurationHours: duration, LineItems: items}, nil
}

// SizeBaseCost returns the fixed base cost for a size category. An
// unrecognized category yields 0; that fallback is inherited behavior and
// intentionally kept rather than turned into an error.
func SizeBaseCost(size Size) float64 {
	switch size {
	case SizeSmall:
		return costSmall
	case SizeMedium:
		return costMedium
	case SizeLarge:
		return costLarge
	default:
		return 0
	}
}

// ValidSize reports whether size is one of the known categories.
func ValidSize(size Size) bool {
	switch size {
	case SizeSmall, SizeMedium, SizeLarge, SizeKitchenOrPieces:
		return true
	}
	return false
}

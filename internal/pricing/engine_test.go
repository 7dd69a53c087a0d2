package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateNewCostTiers(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		hasMirror bool
		wantCost  float64
	}{
		{"flat tier low", 100, false, 60},
		{"flat tier boundary inclusive", 600, false, 60},
		{"mid tier just above boundary", 600.01, false, 60.001},
		{"mid tier", 800, false, 80},
		{"mid tier upper boundary inclusive", 1000, false, 100},
		{"high tier just above boundary", 1000.01, false, 1000.01 * 0.13},
		{"high tier", 2000, false, 260},
		{"flat tier with mirror", 500, true, 72},
		{"mid tier with mirror", 800, true, 96},
		{"high tier with mirror", 2000, true, 312},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := EstimateNew(tt.value, tt.hasMirror)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantCost, q.Cost, 1e-9)
		})
	}
}

func TestEstimateNewDurationThresholds(t *testing.T) {
	// Duration uses its own threshold set (1000/1500), not the cost
	// tiers (600/1000).
	tests := []struct {
		value float64
		want  float64
	}{
		{100, 2},
		{1000, 2},
		{1000.01, 3},
		{1500, 3},
		{1500.01, 5},
		{5000, 5},
	}

	for _, tt := range tests {
		q, err := EstimateNew(tt.value, false)
		require.NoError(t, err)
		assert.Equal(t, tt.want, q.DurationHours, "value=%v", tt.value)

		// Mirror never changes the duration.
		qm, err := EstimateNew(tt.value, true)
		require.NoError(t, err)
		assert.Equal(t, q.DurationHours, qm.DurationHours)
	}
}

func TestEstimateNewInvalidValue(t *testing.T) {
	for _, value := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := EstimateNew(value, false)
		assert.ErrorIs(t, err, ErrInvalidMagnitude, "value=%v", value)
	}
}

func TestEstimateNewLineItems(t *testing.T) {
	q, err := EstimateNew(800, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Type: new furniture",
		"Furniture value: 800.00",
		"Has mirror: yes",
	}, q.LineItems)

	q, err = EstimateNew(800, false)
	require.NoError(t, err)
	assert.NotContains(t, q.LineItems, "Has mirror: yes")
}

func TestEstimateUsed(t *testing.T) {
	tests := []struct {
		name         string
		size         Size
		disassembly  bool
		pieces       int
		wantCost     float64
		wantDuration float64
	}{
		{"small", SizeSmall, false, 0, 80, 1},
		{"medium", SizeMedium, false, 0, 100, 2},
		{"large", SizeLarge, false, 0, 150, 2},
		{"large with disassembly", SizeLarge, true, 0, 195, 3.5},
		{"small with disassembly", SizeSmall, true, 0, 104, 2.5},
		{"kitchen three pieces", SizeKitchenOrPieces, false, 3, 120, 3},
		{"kitchen one piece with disassembly", SizeKitchenOrPieces, true, 1, 52, 2.5},
		{"pieces ignored for non-kitchen size", SizeMedium, false, 7, 100, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := EstimateUsed(tt.size, tt.disassembly, tt.pieces)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantCost, q.Cost, 1e-9)
			assert.InDelta(t, tt.wantDuration, q.DurationHours, 1e-9)
		})
	}
}

func TestEstimateUsedPieceValidation(t *testing.T) {
	_, err := EstimateUsed(SizeKitchenOrPieces, false, 0)
	assert.ErrorIs(t, err, ErrIncompleteRequest)

	_, err = EstimateUsed(SizeKitchenOrPieces, false, -2)
	assert.ErrorIs(t, err, ErrInvalidMagnitude)
}

func TestEstimateUsedUnknownSizeFallback(t *testing.T) {
	// Inherited fallback: an unrecognized category prices at 0 instead of
	// failing, and contributes no size time.
	q, err := EstimateUsed(Size("wardrobe"), false, 0)
	require.NoError(t, err)
	assert.Zero(t, q.Cost)
	assert.Zero(t, q.DurationHours)

	q, err = EstimateUsed(Size("wardrobe"), true, 0)
	require.NoError(t, err)
	assert.Zero(t, q.Cost) // 0 * 1.30
	assert.Equal(t, 1.5, q.DurationHours)
}

func TestEstimateIdempotent(t *testing.T) {
	a, err := EstimateNew(1234.56, true)
	require.NoError(t, err)
	b, err := EstimateNew(1234.56, true)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := EstimateUsed(SizeKitchenOrPieces, true, 4)
	require.NoError(t, err)
	d, err := EstimateUsed(SizeKitchenOrPieces, true, 4)
	require.NoError(t, err)
	assert.Equal(t, c, d)
}

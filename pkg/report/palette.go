package report

import (
	"math/rand/v2"
	"time"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/report/document"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/safeconv"
)

// colorChannels is the number of values an 8-bit channel can take.
const colorChannels = 256

// NewRand returns the generator used for chart colors. A zero seed draws a
// fresh seed from the clock, so colors differ between runs.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
}

// Palette returns n random colors, one per author.
func Palette(n int, rng *rand.Rand) []document.Color {
	colors := make([]document.Color, n)

	for i := range colors {
		colors[i] = document.Color{
			R: safeconv.MustIntToUint8(rng.IntN(colorChannels)),
			G: safeconv.MustIntToUint8(rng.IntN(colorChannels)),
			B: safeconv.MustIntToUint8(rng.IntN(colorChannels)),
		}
	}

	return colors
}

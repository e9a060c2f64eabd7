package planner

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Every slot of demand is either absorbed by a decrement of the availability
// list or counted as required: required + (sum before - sum after) = total.
func Test_MatchSlots_Conservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 1000
	properties := gopter.NewProperties(parameters)

	properties.Property("matched and unmet demand add up to total demand", prop.ForAll(
		func(avail []int, demands []int) bool {
			before := 0
			for _, a := range avail {
				before += a
			}
			total := 0
			for _, d := range demands {
				total += d
			}

			required := matchSlots(avail, pending(demands...))

			after := 0
			for _, a := range avail {
				after += a
			}
			return required+(before-after) == total
		},
		gen.SliceOf(gen.IntRange(0, 16)),
		gen.SliceOf(gen.IntRange(1, 32)),
	))

	properties.Property("required never exceeds total demand and covers what cannot fit", prop.ForAll(
		func(avail []int, demands []int) bool {
			free := 0
			for _, a := range avail {
				free += a
			}
			total := 0
			for _, d := range demands {
				total += d
			}

			required := matchSlots(avail, pending(demands...))

			return required >= total-free && required <= total
		},
		gen.SliceOf(gen.IntRange(0, 16)),
		gen.SliceOf(gen.IntRange(1, 32)),
	))

	properties.TestingRun(t)
}

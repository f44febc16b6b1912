package stretch

import "github.com/abworrall/quickfits/pkg/samples"

// median returns the element that would sit at index len(values)/2 if
// values were sorted; for even lengths that is the upper middle, with
// no interpolation. Reorders values in place.
func median[T samples.Sample](values []T) T {
	return nthElement(values, len(values)/2)
}

// nthElement is a quickselect: afterwards values[n] holds the element
// that belongs there in sorted order, smaller ones to its left.
func nthElement[T samples.Sample](values []T, n int) T {
	lo, hi := 0, len(values)-1
	for lo < hi {
		// median-of-three pivot, to keep flat & sorted inputs from going quadratic
		mid := lo + (hi-lo)/2
		if values[mid] < values[lo] { values[mid], values[lo] = values[lo], values[mid] }
		if values[hi] < values[lo]  { values[hi], values[lo] = values[lo], values[hi] }
		if values[hi] < values[mid] { values[hi], values[mid] = values[mid], values[hi] }
		pivot := values[mid]

		// Hoare partition
		i, j := lo, hi
		for i <= j {
			for values[i] < pivot { i++ }
			for values[j] > pivot { j-- }
			if i <= j {
				values[i], values[j] = values[j], values[i]
				i++
				j--
			}
		}

		switch {
		case n <= j: hi = j
		case n >= i: lo = i
		default:     return values[n]
		}
	}
	return values[n]
}

package formula

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Arg is one collected function argument: the raw display text of the cell
// or literal it came from, plus its numeric reading when it has one.
type Arg struct {
	Raw       string
	Num       float64
	IsNumeric bool
}

func numericArgs(args []Arg) []float64 {
	nums := make([]float64, 0, len(args))
	for _, a := range args {
		if a.IsNumeric {
			nums = append(nums, a.Num)
		}
	}
	return nums
}

// nth returns the i-th numeric argument or a default when it is absent,
// which is how optional parameters like ROUND's decimals work.
func nth(nums []float64, i int, def float64) float64 {
	if i < len(nums) {
		return nums[i]
	}
	return def
}

// numericFunctions operate on the numeric-parseable subset of their
// arguments; non-numeric entries are dropped before the call.
var numericFunctions = map[string]func(nums []float64) float64{
	"SUM": func(nums []float64) float64 {
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total
	},
	"AVERAGE": func(nums []float64) float64 {
		if len(nums) == 0 {
			return 0
		}
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total / float64(len(nums))
	},
	"COUNT": func(nums []float64) float64 {
		return float64(len(nums))
	},
	"MIN": func(nums []float64) float64 {
		if len(nums) == 0 {
			return 0
		}
		min := nums[0]
		for _, n := range nums[1:] {
			if n < min {
				min = n
			}
		}
		return min
	},
	"MAX": func(nums []float64) float64 {
		if len(nums) == 0 {
			return 0
		}
		max := nums[0]
		for _, n := range nums[1:] {
			if n > max {
				max = n
			}
		}
		return max
	},
	"PRODUCT": func(nums []float64) float64 {
		if len(nums) == 0 {
			return 0
		}
		product := 1.0
		for _, n := range nums {
			product *= n
		}
		return product
	},
	"ABS": func(nums []float64) float64 {
		return math.Abs(nth(nums, 0, 0))
	},
	"SQRT": func(nums []float64) float64 {
		return math.Sqrt(nth(nums, 0, 0))
	},
	"ROUND": func(nums []float64) float64 {
		x := nth(nums, 0, 0)
		scale := math.Pow(10, nth(nums, 1, 0))
		return math.Round(x*scale) / scale
	},
	"POWER": func(nums []float64) float64 {
		return math.Pow(nth(nums, 0, 0), nth(nums, 1, 2))
	},
	"INT": func(nums []float64) float64 {
		return math.Floor(nth(nums, 0, 0))
	},
	"TRUNC": func(nums []float64) float64 {
		return math.Trunc(nth(nums, 0, 0))
	},
	"MOD": func(nums []float64) float64 {
		b := nth(nums, 1, 0)
		if b == 0 {
			return 0
		}
		return math.Mod(nth(nums, 0, 0), b)
	},
	"CEILING": func(nums []float64) float64 {
		return snap(nth(nums, 0, 0), nth(nums, 1, 0), math.Ceil)
	},
	"FLOOR": func(nums []float64) float64 {
		return snap(nth(nums, 0, 0), nth(nums, 1, 0), math.Floor)
	},
	"LN": func(nums []float64) float64 {
		return math.Log(nth(nums, 0, 0))
	},
	"LOG10": func(nums []float64) float64 {
		return math.Log10(nth(nums, 0, 0))
	},
	"LOG": func(nums []float64) float64 {
		return math.Log(nth(nums, 0, 0)) / math.Log(nth(nums, 1, 10))
	},
	"EXP": func(nums []float64) float64 {
		return math.Exp(nth(nums, 0, 0))
	},
	"SIGN": func(nums []float64) float64 {
		x := nth(nums, 0, 0)
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	},
	"PI": func(nums []float64) float64 {
		return math.Pi
	},
	"RAND": func(nums []float64) float64 {
		return rand.Float64()
	},
}

// snap rounds x to a multiple of step with the given rounding direction, or
// applies the direction plainly when step is omitted or zero.
func snap(x, step float64, direction func(float64) float64) float64 {
	if step == 0 {
		return direction(x)
	}
	return direction(x/step) * step
}

// specialFunctions see the raw text of every argument in addition to the
// numeric readings.
var specialFunctions = map[string]func(args []Arg) float64{
	"COUNTA": func(args []Arg) float64 {
		count := 0
		for _, a := range args {
			if len(a.Raw) > 0 {
				count++
			}
		}
		return float64(count)
	},
	"MEDIAN": func(args []Arg) float64 {
		nums := numericArgs(args)
		if len(nums) == 0 {
			return 0
		}
		sort.Float64s(nums)
		mid := len(nums) / 2
		if len(nums)%2 == 0 {
			return (nums[mid-1] + nums[mid]) / 2
		}
		return nums[mid]
	},
	"STDEV": func(args []Arg) float64 {
		nums := numericArgs(args)
		if len(nums) < 2 {
			return 0
		}
		return stat.StdDev(nums, nil)
	},
	"VAR": func(args []Arg) float64 {
		nums := numericArgs(args)
		if len(nums) < 2 {
			return 0
		}
		return stat.Variance(nums, nil)
	},
}

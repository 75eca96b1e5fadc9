package series

// TargetGridlines is the number of y gridlines TickStep aims for
const TargetGridlines = 6

// TickStep picks the smallest step from {1,2,5}x10^k with max/step <= TargetGridlines
func TickStep(max int) int {
	for mag := 1; ; mag *= 10 {
		for _, m := range []int{1, 2, 5} {
			if step := m * mag; step*TargetGridlines >= max {
				return step
			}
		}
	}
}

// Ticks lists 0, step, 2*step ... up to the first value at or above max
func Ticks(max int) []int {
	step := TickStep(max)
	out := []int{0}
	for v := step; ; v += step {
		out = append(out, v)
		if v >= max {
			return out
		}
	}
}

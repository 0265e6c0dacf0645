package oasis

// Points is the point value assigned to one clinical variable. The zero
// value is undefined. Undefined propagates through Add but never suppresses
// a defined value in Max, which mirrors how repeated bedside measurements
// are folded: a missing reading does not erase a valid one.
type Points struct {
	value   int
	defined bool
}

func PointsOf(v int) Points {
	return Points{value: v, defined: true}
}

func Undefined() Points {
	return Points{}
}

func (p Points) Defined() bool {
	return p.defined
}

// Value returns the point value and whether it is defined.
func (p Points) Value() (int, bool) {
	return p.value, p.defined
}

// Add lifts integer addition: the sum is undefined if either operand is.
func (p Points) Add(other Points) Points {
	if !p.defined || !other.defined {
		return Undefined()
	}
	return PointsOf(p.value + other.value)
}

// Max returns the larger of two point values. The result is undefined only
// when both operands are.
func Max(a, b Points) Points {
	switch {
	case !a.defined:
		return b
	case !b.defined:
		return a
	case b.value > a.value:
		return b
	}
	return a
}

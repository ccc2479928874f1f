package mirror

import "slices"

// Rank orders the table in place: working entries first, fastest first,
// then every entry without a score in its original relative order.
func Rank(t Table) {
	slices.SortStableFunc(t, compare)
}

func compare(a, b Entry) int {
	aw, bw := a.Speed.Measured(), b.Speed.Measured()
	switch {
	case aw && !bw:
		return -1
	case !aw && bw:
		return 1
	case !aw && !bw:
		return 0
	case a.Speed < b.Speed:
		return -1
	case a.Speed > b.Speed:
		return 1
	default:
		return 0
	}
}

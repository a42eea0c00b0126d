package world

import "math/rand"

// PlaceNewEntity draws grid-aligned coordinates uniformly over the field and
// redraws while the candidate equals an occupied position or the reserved
// craft start cell. There is no retry cap; on any field with a free cell the
// loop terminates with probability 1.
//
// Placement is best effort: two spawns racing on different goroutines may
// still pick the same cell.
func PlaceNewEntity(rng *rand.Rand, g Geometry, occupied []Point) Point {
	taken := make(map[Point]struct{}, len(occupied)+1)
	for _, p := range occupied {
		taken[p] = struct{}{}
	}
	taken[g.CraftStart] = struct{}{}

	for {
		candidate := Point{
			X: rng.Intn(g.Columns()) * g.Step,
			Y: rng.Intn(g.Rows()) * g.Step,
		}
		if _, clash := taken[candidate]; !clash {
			return candidate
		}
	}
}

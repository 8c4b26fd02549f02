package geo

import (
	"fmt"
	"math"
)

// CellSizeDeg is the edge length of a grid cell used for cache tagging.
const CellSizeDeg = 0.25

const (
	gridRows = int(180 / CellSizeDeg)
	gridCols = int(360 / CellSizeDeg)
)

// Cell is one square of the fixed lat/lng grid.
type Cell struct {
	Row int
	Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("%d:%d", c.Row, c.Col)
}

func CellOf(p Point) Cell {
	return Cell{Row: cellIndex(p.Lat+90, gridRows), Col: cellIndex(p.Lng+180, gridCols)}
}

// CellsCovering lists the cells intersecting the circle's bounds. ok is false
// when the circle is too large (more than limit cells), covers a pole or
// crosses the antimeridian; callers then fall back to a coarse tag.
func CellsCovering(c Circle, limit int) (cells []Cell, ok bool) {
	boxes := c.Bounds()
	if len(boxes) != 1 {
		return nil, false
	}
	b := boxes[0]
	if b.MinLng <= -180 && b.MaxLng >= 180 {
		return nil, false
	}

	lo := CellOf(Point{Lat: b.MinLat, Lng: b.MinLng})
	hi := CellOf(Point{Lat: b.MaxLat, Lng: b.MaxLng})
	n := (hi.Row - lo.Row + 1) * (hi.Col - lo.Col + 1)
	if limit > 0 && n > limit {
		return nil, false
	}

	cells = make([]Cell, 0, n)
	for r := lo.Row; r <= hi.Row; r++ {
		for col := lo.Col; col <= hi.Col; col++ {
			cells = append(cells, Cell{Row: r, Col: col})
		}
	}
	return cells, true
}

func cellIndex(offset float64, count int) int {
	i := int(math.Floor(offset / CellSizeDeg))
	if i < 0 {
		return 0
	}
	if i >= count {
		return count - 1
	}
	return i
}

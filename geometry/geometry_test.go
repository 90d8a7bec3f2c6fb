package geometry

import "testing"

func TestCellPositionsDeterministic(t *testing.T) {
	a := CellPositions(CellSpacing, CellDimensions, CellsOffset)
	b := CellPositions(CellSpacing, CellDimensions, CellsOffset)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic cell count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if len(a) == 0 || len(a) >= CellDimensions*CellDimensions {
		t.Fatalf("expected a proper subset of the %dx%d grid, got %d cells", CellDimensions, CellDimensions, len(a))
	}
}

func TestCellPositionsExcludeCorners(t *testing.T) {
	cells := CellPositions(CellSpacing, CellDimensions, CellsOffset)
	grid := IndexGrid(cells, CellSpacing, CellsOffset, CellDimensions)
	corners := [][2]int{{0, 0}, {0, CellDimensions - 1}, {CellDimensions - 1, 0}, {CellDimensions - 1, CellDimensions - 1}}
	for _, c := range corners {
		if grid[c[0]][c[1]] != -1 {
			t.Fatalf("expected corner %v to be excluded (anchor), got cell index %d", c, grid[c[0]][c[1]])
		}
	}
}

func TestCellPositionsIndexIsSequential(t *testing.T) {
	cells := CellPositions(CellSpacing, CellDimensions, CellsOffset)
	for i, c := range cells {
		if c.Index != i {
			t.Fatalf("cell at position %d has Index %d", i, c.Index)
		}
	}
}

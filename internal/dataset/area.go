package dataset

import (
	"fmt"
	"math"

	"github.com/lox/buildcast/internal/workbook"
)

const (
	DefaultAreaIDColumn    = "Buid_ID"
	DefaultAreaValueColumn = "Area [m2]"
)

// AreaLookup maps a building identifier to its floor area in m².
type AreaLookup map[string]float64

// Area returns the floor area, or NaN when the building is unknown.
func (a AreaLookup) Area(building string) float64 {
	v, ok := a[building]
	if !ok {
		return math.NaN()
	}
	return v
}

// LoadAreas reads the area sheet. The first row for a building wins; an
// empty or non-numeric area is stored as NaN.
func LoadAreas(sheet *workbook.Sheet, idColumn, areaColumn string) (AreaLookup, error) {
	idIdx := sheet.Index(idColumn)
	areaIdx := sheet.Index(areaColumn)
	if idIdx < 0 || areaIdx < 0 {
		return nil, fmt.Errorf("area sheet %q: need columns %q and %q", sheet.Name, idColumn, areaColumn)
	}

	areas := make(AreaLookup)
	for _, row := range sheet.Rows {
		id := row[idIdx]
		if id == "" {
			continue
		}
		if _, seen := areas[id]; seen {
			continue
		}
		v, ok := workbook.ParseNumber(row[areaIdx])
		if !ok {
			v = math.NaN()
		}
		areas[id] = v
	}
	return areas, nil
}

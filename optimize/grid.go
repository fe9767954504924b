package optimize

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyGrid means the grid has no parameters or a parameter
	// with no values.
	ErrEmptyGrid = errors.New("empty parameter grid")

	// ErrNameCollision means a parameter name shadows a performance
	// metric name, which would corrupt the flattened result rows.
	ErrNameCollision = errors.New("parameter name collides with metric name")
)

// Params is one point in the parameter grid.
type Params map[string]float64

// Grid is an ordered set of named parameter ranges. Enumeration is
// row-major with the last-added parameter varying fastest, so results
// come out in a reproducible order.
type Grid struct {
	names  []string
	ranges [][]float64
}

// NewGrid returns an empty grid.
func NewGrid() *Grid { return &Grid{} }

// Add appends a parameter range. Re-adding a name replaces its range
// in place, keeping the original position.
func (g *Grid) Add(name string, values ...float64) *Grid {
	for i, n := range g.names {
		if n == name {
			g.ranges[i] = append([]float64(nil), values...)
			return g
		}
	}
	g.names = append(g.names, name)
	g.ranges = append(g.ranges, append([]float64(nil), values...))
	return g
}

// AddInts appends an integer range as float64 values.
func (g *Grid) AddInts(name string, values ...int) *Grid {
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = float64(v)
	}
	return g.Add(name, floats...)
}

// Names returns the parameter names in insertion order.
func (g *Grid) Names() []string {
	return append([]string(nil), g.names...)
}

// Size returns the number of combinations in the Cartesian product.
func (g *Grid) Size() int {
	if len(g.names) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

func (g *Grid) validate() error {
	if len(g.names) == 0 {
		return fmt.Errorf("%w: no parameters", ErrEmptyGrid)
	}
	for i, r := range g.ranges {
		if len(r) == 0 {
			return fmt.Errorf("%w: parameter %q has no values", ErrEmptyGrid, g.names[i])
		}
	}
	return nil
}

// combination maps an ordinal in [0, Size()) to its parameter point.
func (g *Grid) combination(ordinal int) Params {
	params := make(Params, len(g.names))
	for i := len(g.names) - 1; i >= 0; i-- {
		r := g.ranges[i]
		params[g.names[i]] = r[ordinal%len(r)]
		ordinal /= len(r)
	}
	return params
}

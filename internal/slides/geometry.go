package slides

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type point struct {
	x, y float64
}

// bezierKappa places the control points of a quarter circle arc.
var bezierKappa = 4.0 / 3.0 * math.Tan(math.Pi/8)

// outline returns the start anchor and four cubic segments (two control
// points and an end anchor each). Circles and squares share this layout so
// one can be morphed into the other, with the circle's anchors on the
// diagonals where the square's corners sit.
func (s Shape) outline() (point, [4][3]point) {
	var segments [4][3]point
	switch s.Kind {
	case KindSquare:
		h := s.Size / 2
		corners := [5]point{{h, h}, {-h, h}, {-h, -h}, {h, -h}, {h, h}}
		for i := 0; i < 4; i++ {
			a, b := corners[i], corners[i+1]
			segments[i] = [3]point{
				{a.x + (b.x-a.x)/3, a.y + (b.y-a.y)/3},
				{a.x + 2*(b.x-a.x)/3, a.y + 2*(b.y-a.y)/3},
				b,
			}
		}
		return corners[0], segments
	default:
		r := s.Size
		at := func(angle float64) point { return point{r * math.Cos(angle), r * math.Sin(angle)} }
		tangent := func(angle float64) point { return point{-math.Sin(angle), math.Cos(angle)} }
		for i := 0; i < 4; i++ {
			a0 := math.Pi/4 + float64(i)*math.Pi/2
			a1 := a0 + math.Pi/2
			p0, p3 := at(a0), at(a1)
			t0, t1 := tangent(a0), tangent(a1)
			k := bezierKappa * r
			segments[i] = [3]point{
				{p0.x + k*t0.x, p0.y + k*t0.y},
				{p3.x - k*t1.x, p3.y - k*t1.y},
				p3,
			}
		}
		return at(math.Pi / 4), segments
	}
}

// pathData renders the outline as SVG path commands.
func (s Shape) pathData() string {
	start, segments := s.outline()
	var b strings.Builder
	fmt.Fprintf(&b, "M%s %s", num(start.x), num(start.y))
	for _, segment := range segments {
		fmt.Fprintf(&b, " C%s %s %s %s %s %s",
			num(segment[0].x), num(segment[0].y),
			num(segment[1].x), num(segment[1].y),
			num(segment[2].x), num(segment[2].y))
	}
	b.WriteString(" Z")
	return b.String()
}

func num(value float64) string {
	rounded := math.Round(value*10000) / 10000
	// drop negative zero
	if rounded == 0 {
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

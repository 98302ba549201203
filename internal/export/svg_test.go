package export

import (
	"strings"
	"testing"
)

func TestSeriesToSVG(t *testing.T) {
	if SeriesToSVG([]float64{1}, 100, 50, "#fff") != "" {
		t.Error("single point should render nothing")
	}

	svg := SeriesToSVG([]float64{0, 1, 2}, 100, 50, "#fff")
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document:\n%s", svg)
	}
	if !strings.Contains(svg, `stroke="#fff"`) {
		t.Error("missing stroke colour")
	}
	if !strings.Contains(svg, "M0.0,") || !strings.Contains(svg, " L100.0,") {
		t.Errorf("path does not span the width:\n%s", svg)
	}
	if n := strings.Count(svg, " L"); n != 2 {
		t.Errorf("expected 2 line segments, got %d", n)
	}
}

func TestSeriesToSVGFlat(t *testing.T) {
	svg := SeriesToSVG([]float64{3, 3, 3}, 10, 10, "#000")
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Errorf("flat series produced invalid coordinates:\n%s", svg)
	}
}

func TestResidualSVG(t *testing.T) {
	svg := ResidualSVG([]float64{1, 0.1, 0}, 80, 40)
	if svg == "" || strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Errorf("bad residual svg:\n%s", svg)
	}
}

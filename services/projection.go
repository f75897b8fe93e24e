package services

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"ai-startup-map/models"
)

// Project2D maps each row onto the first two principal components.
// Each component's sign is fixed so that its largest-magnitude loading is
// positive. With fewer than two rows or no columns every point is the origin;
// a missing second component leaves Y at 0.
func Project2D(rows [][]float64) ([]models.Point, error) {
	points := make([]models.Point, len(rows))
	if len(rows) < 2 || len(rows[0]) == 0 {
		return points, nil
	}

	n, d := len(rows), len(rows[0])
	x := mat.NewDense(n, d, nil)
	for i, row := range rows {
		x.SetRow(i, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, models.NewError(models.KindUnknown, "project", "principal component decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, comps := vecs.Dims()
	if comps > 2 {
		comps = 2
	}

	centered := mat.NewDense(n, d, nil)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, col[i]-mean)
		}
	}

	for c := 0; c < comps; c++ {
		loadings := mat.Col(nil, c, &vecs)
		sign := componentSign(loadings)
		for i := 0; i < n; i++ {
			var v float64
			for j := 0; j < d; j++ {
				v += centered.At(i, j) * loadings[j]
			}
			v *= sign
			if c == 0 {
				points[i].X = v
			} else {
				points[i].Y = v
			}
		}
	}
	return points, nil
}

// componentSign returns -1 when the largest-magnitude loading is negative.
func componentSign(loadings []float64) float64 {
	best, bestAbs := 0.0, -1.0
	for _, v := range loadings {
		if a := math.Abs(v); a > bestAbs {
			best, bestAbs = v, a
		}
	}
	if best < 0 {
		return -1
	}
	return 1
}

package chart

import (
	"errors"
	"fmt"

	matrix "github.com/skelterjohn/go.matrix"
)

// OLSResult holds a multi-variable least-squares fit: the intercept followed
// by one coefficient per regressor, plus fitted values and residuals for
// chart annotation.
type OLSResult struct {
	Coefficients []float64
	Fitted       []float64
	Residuals    []float64
}

// MultipleRegression solves the normal equations B = (XᵀX)⁻¹XᵀY for one
// dependent series and any number of independent series.
func MultipleRegression(ys []float64, xss ...[]float64) (OLSResult, error) {
	n := len(ys)
	if n == 0 {
		return OLSResult{}, errors.New("regression requires observations")
	}
	if len(xss) == 0 {
		return OLSResult{}, errors.New("regression requires at least one regressor")
	}
	if n <= len(xss)+1 {
		return OLSResult{}, fmt.Errorf("regression needs more than %d observations", len(xss)+1)
	}
	for i, xs := range xss {
		if len(xs) != n {
			return OLSResult{}, fmt.Errorf("regressor %d has %d observations, want %d", i, len(xs), n)
		}
	}

	// design matrix: a column of ones for the intercept, then the regressors
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	rows := append([][]float64{ones}, xss...)

	X := matrix.MakeDenseMatrixStacked(rows).Transpose()
	Y := matrix.MakeDenseMatrixStacked([][]float64{ys}).Transpose()

	Xt := X.Transpose()
	XtX, err := Xt.Times(X)
	if err != nil {
		return OLSResult{}, err
	}
	XtY, err := Xt.Times(Y)
	if err != nil {
		return OLSResult{}, err
	}
	XtXi, err := XtX.DenseMatrix().Inverse()
	if err != nil {
		return OLSResult{}, fmt.Errorf("singular design matrix: %w", err)
	}
	B, err := XtXi.Times(XtY)
	if err != nil {
		return OLSResult{}, err
	}

	result := OLSResult{
		Coefficients: make([]float64, len(xss)+1),
		Fitted:       make([]float64, n),
		Residuals:    make([]float64, n),
	}
	for k := range result.Coefficients {
		result.Coefficients[k] = B.Get(k, 0)
	}

	for i := 0; i < n; i++ {
		fitted := result.Coefficients[0]
		for k, xs := range xss {
			fitted += result.Coefficients[k+1] * xs[i]
		}
		result.Fitted[i] = fitted
		result.Residuals[i] = ys[i] - fitted
	}

	return result, nil
}

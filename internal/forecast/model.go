// Package forecast fits an autoregressive linear model to a price history
// and projects it forward one day at a time.
package forecast

import (
	"errors"
	"math"

	"pricecast/internal/domain"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultLag     = 7
	DefaultHorizon = 7

	// rcond is the relative singular-value cutoff used to decide the rank of
	// the lag matrix.
	rcond = 1e-12
)

// Coefficients is a fitted AR(lag) model: next = Intercept + sum(Weights[k] * window[k]).
type Coefficients struct {
	Intercept float64
	Weights   []float64
}

// Predict evaluates the model on the last len(Weights) values of window.
func (c Coefficients) Predict(window []float64) float64 {
	out := c.Intercept
	offset := len(window) - len(c.Weights)
	for k, w := range c.Weights {
		out += w * window[offset+k]
	}
	return out
}

type Model struct {
	lag     int
	horizon int
}

func New(lag, horizon int) *Model {
	if lag <= 0 {
		lag = DefaultLag
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &Model{lag: lag, horizon: horizon}
}

func (m *Model) Lag() int     { return m.lag }
func (m *Model) Horizon() int { return m.horizon }

// Fit solves the ordinary least-squares problem with intercept on the lag
// windows of values. The system is centred and solved through a thin SVD so
// rank-deficient windows (a flat price history, for one) get the minimum-norm
// solution instead of failing.
func (m *Model) Fit(values []float64) (Coefficients, error) {
	if len(values) <= m.lag {
		return Coefficients{}, domain.ErrNotEnoughData
	}

	rows := len(values) - m.lag
	xMean := make([]float64, m.lag)
	yMean := 0.0
	for i := 0; i < rows; i++ {
		for k := 0; k < m.lag; k++ {
			xMean[k] += values[i+k]
		}
		yMean += values[i+m.lag]
	}
	for k := range xMean {
		xMean[k] /= float64(rows)
	}
	yMean /= float64(rows)

	x := mat.NewDense(rows, m.lag, nil)
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		for k := 0; k < m.lag; k++ {
			x.Set(i, k, values[i+k]-xMean[k])
		}
		y.SetVec(i, values[i+m.lag]-yMean)
	}

	weights := make([]float64, m.lag)
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return Coefficients{}, errors.New("factorize lag matrix: svd did not converge")
	}
	if rank := svd.Rank(rcond); rank > 0 {
		var beta mat.VecDense
		svd.SolveVecTo(&beta, y, rank)
		for k := range weights {
			weights[k] = beta.AtVec(k)
		}
	}

	intercept := yMean
	for k, w := range weights {
		intercept -= w * xMean[k]
	}
	return Coefficients{Intercept: intercept, Weights: weights}, nil
}

// Forecast fits the model on history and predicts the next Horizon days,
// feeding each prediction back as input for the next one. Dates continue
// day by day from the last observation.
func (m *Model) Forecast(history []domain.PricePoint) (domain.ForecastSeries, error) {
	if len(history) <= m.lag {
		return nil, domain.ErrNotEnoughData
	}

	values := make([]float64, len(history), len(history)+m.horizon)
	for i, p := range history {
		values[i] = p.Price
	}

	coef, err := m.Fit(values)
	if err != nil {
		return nil, err
	}

	last := history[len(history)-1].Date
	series := make(domain.ForecastSeries, 0, m.horizon)
	for step := 1; step <= m.horizon; step++ {
		next := coef.Predict(values)
		values = append(values, next)
		series = append(series, domain.ForecastPoint{
			Date:  last.AddDate(0, 0, step).Format(domain.ForecastDateLayout),
			Price: roundCents(next),
		})
	}
	return series, nil
}

// roundCents rounds halves to even.
func roundCents(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

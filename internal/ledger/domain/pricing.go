package domain

import "github.com/shopspring/decimal"

const (
	ProbabilityPlaces = 5
	CoeficientPlaces  = 5
	AmountPlaces      = 2

	// BetPlacementDescription é a descrição da Transaction criada ao apostar
	BetPlacementDescription = "Bet placement"
)

// CoefficientFunc deriva o coeficiente de uma Quota a partir da probabilidade.
type CoefficientFunc func(probability decimal.Decimal) decimal.Decimal

var fixedCoeficient = decimal.RequireFromString("1.00001")

// FixedCoefficient devolve sempre 1.00001, independente da probabilidade.
// TODO: substituir pela fórmula de precificação quando o produto definir as odds.
func FixedCoefficient(decimal.Decimal) decimal.Decimal { return fixedCoeficient }

// Coeficient aplica fn e garante coeficiente >= 1 com 5 casas
func Coeficient(fn CoefficientFunc, probability decimal.Decimal) decimal.Decimal {
	if fn == nil {
		fn = FixedCoefficient
	}
	c := fn(probability).Round(CoeficientPlaces)
	if c.LessThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return c
}

// NormalizeProbability valida o intervalo [0,1] e arredonda para 5 casas
func NormalizeProbability(p decimal.Decimal) (decimal.Decimal, error) {
	p = p.Round(ProbabilityPlaces)
	if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, ErrInvalidProbability
	}
	return p, nil
}

// NormalizeAmount valida valores monetários (>= 0) e arredonda para 2 casas
func NormalizeAmount(a decimal.Decimal) (decimal.Decimal, error) {
	if a.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return a.Round(AmountPlaces), nil
}

// PotentialEarnings = amount × coeficient (sem arredondamento)
func PotentialEarnings(amount, coeficient decimal.Decimal) decimal.Decimal {
	return amount.Mul(coeficient)
}

// PrizeReward = probability × amount. Usa a probabilidade e não o coeficiente,
// diferente de PotentialEarnings; as duas fórmulas são mantidas separadas.
func PrizeReward(probability, amount decimal.Decimal) decimal.Decimal {
	return probability.Mul(amount)
}

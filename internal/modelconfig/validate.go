package modelconfig

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks struct tags, then cross-field constraints
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return ValidationError{fe.Namespace(), fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())}
		}
		return err
	}

	// === Indicators ===
	ind := cfg.Indicators
	if ind.MACDFast >= ind.MACDSlow {
		return ValidationError{"indicators.macd_fast", "must be < macd_slow"}
	}

	// === Factors ===
	f := cfg.Factors
	if f.BetaMin >= f.BetaMax {
		return ValidationError{"factors.beta_min", "must be < beta_max"}
	}
	if f.DefaultBeta < f.BetaMin || f.DefaultBeta > f.BetaMax {
		return ValidationError{"factors.default_beta", "must be within [beta_min, beta_max]"}
	}
	for symbol, beta := range f.BetaTable {
		if math.IsNaN(beta) || math.IsInf(beta, 0) {
			return ValidationError{fmt.Sprintf("factors.beta_table[%s]", symbol), "must be finite"}
		}
	}

	// === Ranking ===
	if err := validateWeightsSum(cfg.Ranking.Weights.Sum(), 1.0, 1e-6); err != nil {
		return ValidationError{"ranking.weights", err.Error()}
	}

	// === Signals ===
	s := cfg.Signals
	if s.SellBelow >= s.BuyAbove {
		return ValidationError{"signals", "sell_below must be < buy_above"}
	}
	if s.StrongBelow > s.SellBelow {
		return ValidationError{"signals", "strong_below must be <= sell_below"}
	}
	if s.BuyAbove > s.StrongAbove {
		return ValidationError{"signals", "buy_above must be <= strong_above"}
	}

	return nil
}

func validateWeightsSum(sum, target, epsilon float64) error {
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

package vault

import (
	"time"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/coin"
	"github.com/iov-one/timevault/errors"
)

// DefaultLockDuration is the lock period of the reference deployment.
const DefaultLockDuration = timevault.UnixDuration(24 * time.Hour / time.Second)

// Configuration is the deployment wide vault policy. It is fixed when the
// controller is built.
type Configuration struct {
	// LockDuration is counted from the vault creation.
	LockDuration timevault.UnixDuration `json:"lock_duration"`
	// PenaltyNumerator and PenaltyDenominator define the part of the
	// balance paid to the treasury on an early withdrawal.
	PenaltyNumerator   uint32 `json:"penalty_numerator"`
	PenaltyDenominator uint32 `json:"penalty_denominator"`
	// Treasury receives the penalties.
	Treasury timevault.Address `json:"treasury"`
	// Ticker is the only currency accepted by the vaults.
	Ticker string `json:"ticker"`
}

// DefaultConfiguration returns the reference policy: a one day lock and a
// 1/10 penalty.
func DefaultConfiguration(treasury timevault.Address, ticker string) Configuration {
	return Configuration{
		LockDuration:       DefaultLockDuration,
		PenaltyNumerator:   1,
		PenaltyDenominator: 10,
		Treasury:           treasury,
		Ticker:             ticker,
	}
}

// Validate returns an error if the policy cannot be applied.
func (c Configuration) Validate() error {
	var errs error
	if c.LockDuration <= 0 {
		errs = errors.Append(errs, errors.Field("LockDuration", errors.ErrInput, "must be positive"))
	}
	if c.PenaltyDenominator == 0 {
		errs = errors.Append(errs, errors.Field("PenaltyDenominator", errors.ErrInput, "zero division"))
	} else if c.PenaltyNumerator > c.PenaltyDenominator {
		errs = errors.Append(errs, errors.Field("PenaltyNumerator", errors.ErrInput, "penalty greater than the balance"))
	}
	errs = errors.AppendField(errs, "Treasury", c.Treasury.Validate())
	if !coin.IsCC(c.Ticker) {
		errs = errors.Append(errs, errors.Field("Ticker", errors.ErrCurrency, "invalid ticker %q", c.Ticker))
	}
	return errs
}

// Penalty returns the part of the balance paid on an early withdrawal.
func (c Configuration) Penalty() timevault.Fraction {
	return timevault.Fraction{
		Numerator:   c.PenaltyNumerator,
		Denominator: c.PenaltyDenominator,
	}
}

// Split divides the total into the penalty paid to the treasury and the
// payout released to the owner. The penalty is truncated, so both parts
// always sum up to the total.
func (c Configuration) Split(total uint64) (fee, payout uint64, err error) {
	fee, err = c.Penalty().Portion(total)
	if err != nil {
		return 0, 0, errors.Wrap(ErrOverflow, err.Error())
	}
	if fee > total {
		return 0, 0, errors.Wrap(errors.ErrHuman, "penalty greater than the balance")
	}
	return fee, total - fee, nil
}

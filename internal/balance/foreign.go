package balance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/ledgererr"
)

// ForeignAccount tracks money held in the foreign currency. Spending
// decreases it; deleting a record later does not give the money back.
type ForeignAccount struct {
	Balance decimal.Decimal
}

// Deposit adds a positive amount in foreign units.
func (a *ForeignAccount) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("deposit must be positive, got %s", amount)
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// DepositFromHome converts a home amount at rate and deposits it. It returns
// the foreign amount credited.
func (a *ForeignAccount) DepositFromHome(home, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, &ledgererr.InvalidRateError{Rate: rate.String()}
	}
	foreign := home.Mul(rate)
	if err := a.Deposit(foreign); err != nil {
		return decimal.Zero, err
	}
	return foreign, nil
}

// Spend subtracts amount. The balance may go negative.
func (a *ForeignAccount) Spend(amount decimal.Decimal) {
	a.Balance = a.Balance.Sub(amount)
}

// HomeEquivalent converts the balance to home units.
func (a *ForeignAccount) HomeEquivalent(rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, &ledgererr.InvalidRateError{Rate: rate.String()}
	}
	return a.Balance.Div(rate), nil
}

package rest

import (
	"context"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// Account is a securities account with its balances and, if requested,
// positions.
type Account struct {
	Type            string     `json:"type"`
	AccountID       string     `json:"accountId"`
	IsDayTrader     bool       `json:"isDayTrader"`
	RoundTrips      int        `json:"roundTrips"`
	Balances        Balances   `json:"currentBalances"`
	InitialBalances Balances   `json:"initialBalances"`
	Positions       []Position `json:"positions"`
}

type Balances struct {
	CashBalance            decimal.Decimal `json:"cashBalance"`
	AvailableFunds         decimal.Decimal `json:"availableFunds"`
	BuyingPower            decimal.Decimal `json:"buyingPower"`
	LiquidationValue       decimal.Decimal `json:"liquidationValue"`
	LongMarketValue        decimal.Decimal `json:"longMarketValue"`
	ShortMarketValue       decimal.Decimal `json:"shortMarketValue"`
	MoneyMarketFund        decimal.Decimal `json:"moneyMarketFund"`
	Equity                 decimal.Decimal `json:"equity"`
	MaintenanceRequirement decimal.Decimal `json:"maintenanceRequirement"`
}

type Position struct {
	Instrument           Instrument      `json:"instrument"`
	LongQuantity         decimal.Decimal `json:"longQuantity"`
	ShortQuantity        decimal.Decimal `json:"shortQuantity"`
	AveragePrice         decimal.Decimal `json:"averagePrice"`
	MarketValue          decimal.Decimal `json:"marketValue"`
	CurrentDayProfitLoss decimal.Decimal `json:"currentDayProfitLoss"`
}

type Instrument struct {
	AssetType   string `json:"assetType"`
	Symbol      string `json:"symbol"`
	Cusip       string `json:"cusip,omitempty"`
	Description string `json:"description,omitempty"`
}

// accountServer is how accounts come from the server: wrapped in an object
// keyed by the account type.
type accountServer struct {
	SecuritiesAccount Account `json:"securitiesAccount"`
}

// GetAccounts returns all accounts of the user, with positions.
func (c *RESTClient) GetAccounts(ctx context.Context) ([]Account, error) {
	var res []accountServer

	err := c.get(ctx, request{
		endpoint: "accounts",
		params:   map[string]string{"fields": "positions"},
	}, &res)
	if err != nil {
		return nil, errors.Trace(err)
	}

	accounts := make([]Account, 0, len(res))
	for _, a := range res {
		accounts = append(accounts, a.SecuritiesAccount)
	}

	return accounts, nil
}

// GetAccount returns the given account, with positions.
func (c *RESTClient) GetAccount(ctx context.Context, accountID string) (Account, error) {
	var res accountServer

	err := c.get(ctx, request{
		endpoint: "accounts/" + accountID,
		params:   map[string]string{"fields": "positions"},
	}, &res)
	if err != nil {
		return Account{}, errors.Trace(err)
	}

	return res.SecuritiesAccount, nil
}

package rest

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// Quote is a snapshot quote of a symbol. Fields which don't apply to the
// asset type are zero.
type Quote struct {
	AssetType   string          `json:"assetType"`
	Symbol      string          `json:"symbol"`
	Description string          `json:"description"`
	BidPrice    decimal.Decimal `json:"bidPrice"`
	BidSize     int64           `json:"bidSize"`
	AskPrice    decimal.Decimal `json:"askPrice"`
	AskSize     int64           `json:"askSize"`
	LastPrice   decimal.Decimal `json:"lastPrice"`
	LastSize    int64           `json:"lastSize"`
	OpenPrice   decimal.Decimal `json:"openPrice"`
	HighPrice   decimal.Decimal `json:"highPrice"`
	LowPrice    decimal.Decimal `json:"lowPrice"`
	ClosePrice  decimal.Decimal `json:"closePrice"`
	NetChange   decimal.Decimal `json:"netChange"`
	TotalVolume int64           `json:"totalVolume"`
	QuoteTimeMs int64           `json:"quoteTimeInLong"`
	TradeTimeMs int64           `json:"tradeTimeInLong"`
	Exchange    string          `json:"exchangeName"`
	Delayed     bool            `json:"delayed"`
}

// GetQuotes returns quotes of the given symbols, keyed by symbol. Unknown
// symbols are just absent from the result.
func (c *RESTClient) GetQuotes(ctx context.Context, symbols ...string) (map[string]Quote, error) {
	if len(symbols) == 0 {
		return map[string]Quote{}, nil
	}

	res := map[string]Quote{}

	err := c.get(ctx, request{
		endpoint: "marketdata/quotes",
		params:   map[string]string{"symbol": strings.ToUpper(strings.Join(symbols, ","))},
	}, &res)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return res, nil
}

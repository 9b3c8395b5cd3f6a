package rest

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// PriceHistoryParams selects the candles GetPriceHistory returns. Zero values
// are left to the server's defaults.
type PriceHistoryParams struct {
	// PeriodType is one of "day", "month", "year", "ytd".
	PeriodType string
	Period     int

	// FrequencyType is one of "minute", "daily", "weekly", "monthly".
	FrequencyType string
	Frequency     int

	// StartDate and EndDate, if set, take precedence over Period.
	StartDate time.Time
	EndDate   time.Time

	NeedExtendedHoursData bool
}

func (p PriceHistoryParams) query() map[string]string {
	q := map[string]string{}

	if p.PeriodType != "" {
		q["periodType"] = p.PeriodType
	}
	if p.Period > 0 {
		q["period"] = strconv.Itoa(p.Period)
	}
	if p.FrequencyType != "" {
		q["frequencyType"] = p.FrequencyType
	}
	if p.Frequency > 0 {
		q["frequency"] = strconv.Itoa(p.Frequency)
	}
	if !p.StartDate.IsZero() {
		q["startDate"] = strconv.FormatInt(p.StartDate.UnixNano()/int64(time.Millisecond), 10)
	}
	if !p.EndDate.IsZero() {
		q["endDate"] = strconv.FormatInt(p.EndDate.UnixNano()/int64(time.Millisecond), 10)
	}
	q["needExtendedHoursData"] = strconv.FormatBool(p.NeedExtendedHoursData)

	return q
}

// Candle is an OHLCV candle; Time is its open time.
type Candle struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

type priceHistoryServer struct {
	Symbol  string `json:"symbol"`
	Empty   bool   `json:"empty"`
	Candles []struct {
		Open     decimal.Decimal `json:"open"`
		High     decimal.Decimal `json:"high"`
		Low      decimal.Decimal `json:"low"`
		Close    decimal.Decimal `json:"close"`
		Volume   int64           `json:"volume"`
		Datetime int64           `json:"datetime"`
	} `json:"candles"`
}

// GetPriceHistory returns candles of the symbol in time ascending order.
func (c *RESTClient) GetPriceHistory(
	ctx context.Context, symbol string, params PriceHistoryParams,
) ([]Candle, error) {
	var res priceHistoryServer

	err := c.get(ctx, request{
		endpoint: "marketdata/" + strings.ToUpper(symbol) + "/pricehistory",
		params:   params.query(),
	}, &res)
	if err != nil {
		return nil, errors.Trace(err)
	}

	candles := make([]Candle, 0, len(res.Candles))
	for _, sc := range res.Candles {
		candles = append(candles, Candle{
			Time:   time.Unix(0, sc.Datetime*int64(time.Millisecond)).UTC(),
			Open:   sc.Open,
			High:   sc.High,
			Low:    sc.Low,
			Close:  sc.Close,
			Volume: sc.Volume,
		})
	}

	return candles, nil
}

package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// ErrUnknownField is returned when a field name is not in a FieldMap.
var ErrUnknownField = errors.New("unknown field")

// FieldMap maps semantic field names of a service to their position in the
// service's positional payload. It's immutable once built; all the maps
// below are shared by every stream connection.
type FieldMap struct {
	names   []string
	indices []int
	byName  map[string]int
	byIndex map[int]string
}

// newFieldMap builds a FieldMap where each name's index is its position in
// names.
func newFieldMap(names ...string) *FieldMap {
	indices := make([]int, len(names))
	for i := range names {
		indices[i] = i
	}

	return newFieldMapIndexed(names, indices)
}

// newFieldMapIndexed panics on duplicate names or indices; the maps are
// package-level constants, so that's a programming error.
func newFieldMapIndexed(names []string, indices []int) *FieldMap {
	if len(names) != len(indices) {
		panic(fmt.Sprintf("field map: %d names, %d indices", len(names), len(indices)))
	}

	fm := &FieldMap{
		names:   make([]string, len(names)),
		indices: make([]int, len(indices)),
		byName:  make(map[string]int, len(names)),
		byIndex: make(map[int]string, len(names)),
	}

	copy(fm.names, names)
	copy(fm.indices, indices)

	for i, name := range names {
		idx := indices[i]

		if _, dup := fm.byName[name]; dup {
			panic(fmt.Sprintf("field map: duplicate name %q", name))
		}
		if _, dup := fm.byIndex[idx]; dup {
			panic(fmt.Sprintf("field map: duplicate index %d", idx))
		}

		fm.byName[name] = idx
		fm.byIndex[idx] = name
	}

	return fm
}

// Index returns the position of the given field.
func (fm *FieldMap) Index(name string) (int, error) {
	idx, ok := fm.byName[name]
	if !ok {
		return 0, errors.Annotatef(ErrUnknownField, "%q", name)
	}

	return idx, nil
}

// MustIndex is like Index, but panics on unknown names.
func (fm *FieldMap) MustIndex(name string) int {
	idx, err := fm.Index(name)
	if err != nil {
		panic(err.Error())
	}

	return idx
}

// Name returns the field at the given position.
func (fm *FieldMap) Name(index int) (string, bool) {
	name, ok := fm.byIndex[index]
	return name, ok
}

// Names returns all field names in definition order.
func (fm *FieldMap) Names() []string {
	names := make([]string, len(fm.names))
	copy(names, fm.names)
	return names
}

// Indices returns all positions in definition order.
func (fm *FieldMap) Indices() []int {
	indices := make([]int, len(fm.indices))
	copy(indices, fm.indices)
	return indices
}

// Len returns the number of fields.
func (fm *FieldMap) Len() int {
	return len(fm.names)
}

// IndexList returns the comma-joined positions of the given fields, in the
// given order, e.g. "0,3,7". Called without names, it lists every field.
func (fm *FieldMap) IndexList(names ...string) (string, error) {
	if len(names) == 0 {
		return JoinIndices(fm.indices), nil
	}

	indices := make([]int, 0, len(names))
	for _, name := range names {
		idx, err := fm.Index(name)
		if err != nil {
			return "", errors.Trace(err)
		}
		indices = append(indices, idx)
	}

	return JoinIndices(indices), nil
}

// JoinIndices formats positions as a comma-separated list.
func JoinIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}

var (
	AccountActivityFields = newFieldMap(
		"subscriptionKey", "accountNumber", "messageType", "messageData",
	)

	// ChartEquityFields: index 8 (chartDay) is not decoded and not requested
	// by default.
	ChartEquityFields = newFieldMap(
		"key", "openPrice", "highPrice", "lowPrice", "closePrice", "volume",
		"sequence", "chartTime", "chartDay",
	)

	ChartFuturesFields = newFieldMap(
		"key", "chartTime", "openPrice", "highPrice", "lowPrice", "closePrice",
		"volume",
	)

	ChartOptionsFields = newFieldMap(
		"key", "chartTime", "openPrice", "highPrice", "lowPrice", "closePrice",
		"volume",
	)

	// ChartHistoryFuturesFields describes a chart history reply; "candles"
	// holds a list of records keyed by ChartCandleFields.
	ChartHistoryFuturesFields = newFieldMap(
		"key", "requestId", "count", "candles",
	)

	ChartCandleFields = newFieldMap(
		"chartTime", "openPrice", "highPrice", "lowPrice", "closePrice", "volume",
	)

	NewsHeadlineFields = newFieldMap(
		"symbol", "errorCode", "storyDatetime", "headlineId", "status",
		"headline", "storyId", "countForKeyword", "keywordArray", "isHot",
		"storySource",
	)

	TimeSaleFields = newFieldMap(
		"symbol", "tradeTime", "lastPrice", "lastSize", "lastSequence",
	)

	LevelOneEquityFields = newFieldMap(
		"symbol", "bidPrice", "askPrice", "lastPrice", "bidSize", "askSize",
		"askID", "bidID", "totalVolume", "lastSize", "tradeTime", "quoteTime",
		"highPrice", "lowPrice", "bidTick", "closePrice", "exchangeID",
		"marginable", "shortable", "islandBid", "islandAsk", "islandVolume",
		"quoteDay", "tradeDay", "volatility", "description", "lastID", "digits",
		"openPrice", "netChange", "52WeekHigh", "52WeekLow", "peRatio",
		"dividendAmount", "dividendYield", "islandBidSize", "islandAskSize",
		"nav", "fundPrice", "exchangeName", "dividendDate",
		"regularMarketQuote", "regularMarketTrade", "regularMarketLastPrice",
		"regularMarketLastSize", "regularMarketTradeTime",
		"regularMarketTradeDay", "regularMarketNetChange", "securityStatus",
		"mark", "quoteTimeInLong", "tradeTimeInLong",
		"regularMarketTradeTimeInLong",
	)

	LevelOneFuturesFields = newFieldMap(
		"symbol", "bidPrice", "askPrice", "lastPrice", "bidSize", "askSize",
		"askId", "bidId", "totalVolume", "lastSize", "quoteTime", "tradeTime",
		"highPrice", "lowPrice", "closePrice", "exchangeId", "description",
		"lastId", "openPrice", "netChange", "futurePercentChange",
		"exchangeName", "securityStatus", "openInterest", "mark", "tick",
		"tickAmount", "product", "futurePriceFormat", "futureTradingHours",
		"futureIsTradable", "futureMultiplier", "futureIsActive",
		"futureSettlementPrice", "futureActiveSymbol", "futureExpirationDate",
	)

	LevelOneOptionFields = newFieldMap(
		"symbol", "description", "bidPrice", "askPrice", "lastPrice",
		"highPrice", "lowPrice", "closePrice", "totalVolume", "openInterest",
		"volatility", "quoteTime", "tradeTime", "moneyIntrinsicValue",
		"quoteDay", "tradeDay", "expirationYear", "multiplier", "digits",
		"openPrice", "bidSize", "askSize", "lastSize", "netChange",
		"strikePrice", "contractType", "underlying", "expirationMonth",
		"deliverables", "timeValue", "expirationDay", "daysToExpiration",
		"delta", "gamma", "theta", "vega", "rho", "securityStatus",
		"theoreticalOptionValue", "underlyingPrice", "uvExpirationType",
		"mark",
	)

	// QOSLevels is the quality-of-service table: level name to wire value.
	QOSLevels = newFieldMap(
		string(QOSExpress), string(QOSRealtime), string(QOSFast),
		string(QOSModerate), string(QOSSlow), string(QOSDelayed),
	)
)

var fieldsByService = map[Service]*FieldMap{
	ServiceAccountActivity:     AccountActivityFields,
	ServiceChartEquity:         ChartEquityFields,
	ServiceChartFutures:        ChartFuturesFields,
	ServiceChartOptions:        ChartOptionsFields,
	ServiceChartHistoryFutures: ChartHistoryFuturesFields,
	ServiceNewsHeadline:        NewsHeadlineFields,
	ServiceTimeSaleEquity:      TimeSaleFields,
	ServiceTimeSaleFutures:     TimeSaleFields,
	ServiceTimeSaleForex:       TimeSaleFields,
	ServiceTimeSaleOptions:     TimeSaleFields,
	ServiceLevelOneEquity:      LevelOneEquityFields,
	ServiceLevelOneFutures:     LevelOneFuturesFields,
	ServiceLevelOneOption:      LevelOneOptionFields,
}

// FieldsFor returns the FieldMap of the given service.
func FieldsFor(s Service) (*FieldMap, bool) {
	fm, ok := fieldsByService[s]
	return fm, ok
}

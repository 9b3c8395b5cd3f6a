package websocket

import (
	"strconv"

	"github.com/sallewarkiran/tda-sdk-go/common"
)

// passthroughKeys are not positional and are copied as is.
var passthroughKeys = []string{"key", "seq"}

type transformFunc func(Record) Record

// projection decodes a positional record into the given fields of fm.
type projection struct {
	names []string
	keys  []string
}

// newProjection panics if a name isn't in fm.
func newProjection(fm *common.FieldMap, names ...string) projection {
	p := projection{
		names: names,
		keys:  make([]string, len(names)),
	}

	for i, name := range names {
		p.keys[i] = strconv.Itoa(fm.MustIndex(name))
	}

	return p
}

// allFields projects every field of fm but "key", which comes as a
// passthrough.
func allFields(fm *common.FieldMap) projection {
	names := make([]string, 0, fm.Len())
	for _, name := range fm.Names() {
		if name != "key" {
			names = append(names, name)
		}
	}
	return newProjection(fm, names...)
}

func (p projection) decode(raw Record, passthrough bool) Record {
	out := make(Record, len(p.names)+len(passthroughKeys))

	for i, key := range p.keys {
		if v, ok := raw[key]; ok {
			out[p.names[i]] = v
		}
	}

	if passthrough {
		for _, key := range passthroughKeys {
			if v, ok := raw[key]; ok {
				out[key] = v
			}
		}
	}

	return out
}

func (p projection) transform() transformFunc {
	return func(raw Record) Record {
		return p.decode(raw, true)
	}
}

var (
	chartEquityProjection = newProjection(
		common.ChartEquityFields,
		"chartTime", "openPrice", "highPrice", "lowPrice", "closePrice", "volume",
	)
	chartHistoryProjection = allFields(common.ChartHistoryFuturesFields)
	chartCandleProjection  = newProjection(common.ChartCandleFields, common.ChartCandleFields.Names()...)
)

// transformChartHistory also decodes the nested candles.
func transformChartHistory(raw Record) Record {
	out := chartHistoryProjection.decode(raw, true)

	list, ok := out["candles"].([]interface{})
	if !ok {
		return out
	}

	candles := make([]Record, 0, len(list))
	for _, c := range toRecords(list) {
		candles = append(candles, chartCandleProjection.decode(c, false))
	}
	out["candles"] = candles

	return out
}

var transforms = map[common.Service]transformFunc{
	common.ServiceAccountActivity:     allFields(common.AccountActivityFields).transform(),
	common.ServiceChartEquity:         chartEquityProjection.transform(),
	common.ServiceChartFutures:        allFields(common.ChartFuturesFields).transform(),
	common.ServiceChartOptions:        allFields(common.ChartOptionsFields).transform(),
	common.ServiceChartHistoryFutures: transformChartHistory,
	common.ServiceNewsHeadline:        allFields(common.NewsHeadlineFields).transform(),
	common.ServiceTimeSaleEquity:      allFields(common.TimeSaleFields).transform(),
	common.ServiceTimeSaleFutures:     allFields(common.TimeSaleFields).transform(),
	common.ServiceTimeSaleForex:       allFields(common.TimeSaleFields).transform(),
	common.ServiceTimeSaleOptions:     allFields(common.TimeSaleFields).transform(),
	common.ServiceLevelOneEquity:      allFields(common.LevelOneEquityFields).transform(),
	common.ServiceLevelOneFutures:     allFields(common.LevelOneFuturesFields).transform(),
	common.ServiceLevelOneOption:      allFields(common.LevelOneOptionFields).transform(),
}

// Transform decodes positional records of the given service into records
// keyed by field names. Indices absent in a raw record are absent in the
// result; the input is not modified. The second return value is false if
// the service has no decoder.
func Transform(service common.Service, content []Record) ([]Record, bool) {
	tf, ok := transforms[service]
	if !ok {
		return nil, false
	}

	out := make([]Record, len(content))
	for i, raw := range content {
		out[i] = tf(raw)
	}

	return out, true
}

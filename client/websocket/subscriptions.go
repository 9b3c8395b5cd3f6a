package websocket

import (
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/sallewarkiran/tda-sdk-go/common"
)

// subscription describes how subscription parameters of a service are
// shaped.
type subscription struct {
	fields *common.FieldMap

	// defaultFields is requested when the caller gives no fields; nil means
	// all fields.
	defaultFields []int

	// keepKeyCase is set for services whose keys aren't symbols.
	keepKeyCase bool
}

var subscriptions = map[common.Service]subscription{
	common.ServiceAccountActivity: {fields: common.AccountActivityFields, keepKeyCase: true},
	// chartDay (8) is pretty useless, so it's not requested by default.
	common.ServiceChartEquity:     {fields: common.ChartEquityFields, defaultFields: []int{0, 1, 2, 3, 4, 5, 6, 7}},
	common.ServiceChartFutures:    {fields: common.ChartFuturesFields},
	common.ServiceChartOptions:    {fields: common.ChartOptionsFields},
	common.ServiceNewsHeadline:    {fields: common.NewsHeadlineFields},
	common.ServiceTimeSaleEquity:  {fields: common.TimeSaleFields},
	common.ServiceTimeSaleFutures: {fields: common.TimeSaleFields},
	common.ServiceTimeSaleForex:   {fields: common.TimeSaleFields},
	common.ServiceTimeSaleOptions: {fields: common.TimeSaleFields},
	common.ServiceLevelOneEquity:  {fields: common.LevelOneEquityFields},
	common.ServiceLevelOneFutures: {fields: common.LevelOneFuturesFields},
	common.ServiceLevelOneOption:  {fields: common.LevelOneOptionFields},
}

func (s subscription) formatKeys(keys string) string {
	if s.keepKeyCase {
		return keys
	}
	return strings.ToUpper(keys)
}

func (s subscription) defaultFieldList() string {
	if s.defaultFields != nil {
		return common.JoinIndices(s.defaultFields)
	}
	return common.JoinIndices(s.fields.Indices())
}

// shapeRequest normalizes the parameters of a SUBS or UNSUBS request of a
// known service: keys are upper-cased, and subscriptions without "fields"
// get the service's default fields. Requests of other services are
// returned as is.
func shapeRequest(req Request) Request {
	s, ok := subscriptions[req.Service]
	if !ok {
		return req
	}

	params := req.Parameters.clone()
	if params == nil {
		params = Parameters{}
	}

	if keys, ok := params["keys"]; ok {
		params["keys"] = s.formatKeys(keys)
	}

	if req.Command == common.CommandSubs {
		if _, ok := params["fields"]; !ok {
			params["fields"] = s.defaultFieldList()
		}
	}

	req.Parameters = params
	return req
}

// subscriptionParams builds "keys" and "fields" from symbols and field
// names.
func subscriptionParams(service common.Service, keys []string, fieldNames []string) (Parameters, error) {
	s, ok := subscriptions[service]
	if !ok {
		return nil, errors.Errorf("no subscription for service %s", service)
	}

	params := Parameters{
		"keys": s.formatKeys(strings.Join(keys, ",")),
	}

	if len(fieldNames) == 0 {
		params["fields"] = s.defaultFieldList()
		return params, nil
	}

	fields, err := s.fields.IndexList(fieldNames...)
	if err != nil {
		return nil, errors.Annotatef(err, "%s fields", service)
	}
	params["fields"] = fields

	return params, nil
}

func (sc *StreamClient) subscribeService(service common.Service, keys []string, fieldNames []string) (RequestEnvelope, error) {
	params, err := subscriptionParams(service, keys, fieldNames)
	if err != nil {
		return RequestEnvelope{}, errors.Trace(err)
	}

	return sc.Subscribe(Request{Service: service, Parameters: params})
}

func (sc *StreamClient) unsubscribeService(service common.Service, keys []string) (RequestEnvelope, error) {
	return sc.Unsubscribe(Request{
		Service:    service,
		Parameters: Parameters{"keys": strings.Join(keys, ",")},
	})
}

// SubscribeChartEquity subscribes to minute candles of the given equities.
// Fields are names from common.ChartEquityFields; without them all fields
// but chartDay are requested.
func (sc *StreamClient) SubscribeChartEquity(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceChartEquity, symbols, fields)
}

func (sc *StreamClient) UnsubscribeChartEquity(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceChartEquity, symbols)
}

func (sc *StreamClient) SubscribeChartFutures(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceChartFutures, symbols, fields)
}

func (sc *StreamClient) UnsubscribeChartFutures(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceChartFutures, symbols)
}

func (sc *StreamClient) SubscribeChartOptions(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceChartOptions, symbols, fields)
}

func (sc *StreamClient) UnsubscribeChartOptions(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceChartOptions, symbols)
}

func (sc *StreamClient) SubscribeNewsHeadline(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceNewsHeadline, symbols, fields)
}

func (sc *StreamClient) UnsubscribeNewsHeadline(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceNewsHeadline, symbols)
}

// SubscribeTimeSaleEquity subscribes to trades of the given equities. The
// other TimeSale helpers work the same way for their asset class; all of
// them share common.TimeSaleFields and emit EventTimeSale.
func (sc *StreamClient) SubscribeTimeSaleEquity(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceTimeSaleEquity, symbols, fields)
}

func (sc *StreamClient) UnsubscribeTimeSaleEquity(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceTimeSaleEquity, symbols)
}

func (sc *StreamClient) SubscribeTimeSaleFutures(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceTimeSaleFutures, symbols, fields)
}

func (sc *StreamClient) UnsubscribeTimeSaleFutures(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceTimeSaleFutures, symbols)
}

func (sc *StreamClient) SubscribeTimeSaleForex(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceTimeSaleForex, symbols, fields)
}

func (sc *StreamClient) UnsubscribeTimeSaleForex(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceTimeSaleForex, symbols)
}

func (sc *StreamClient) SubscribeTimeSaleOptions(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceTimeSaleOptions, symbols, fields)
}

func (sc *StreamClient) UnsubscribeTimeSaleOptions(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceTimeSaleOptions, symbols)
}

// SubscribeLevelOneEquity subscribes to level one quotes of the given
// equities.
func (sc *StreamClient) SubscribeLevelOneEquity(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceLevelOneEquity, symbols, fields)
}

func (sc *StreamClient) UnsubscribeLevelOneEquity(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceLevelOneEquity, symbols)
}

func (sc *StreamClient) SubscribeLevelOneFutures(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceLevelOneFutures, symbols, fields)
}

func (sc *StreamClient) UnsubscribeLevelOneFutures(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceLevelOneFutures, symbols)
}

func (sc *StreamClient) SubscribeLevelOneOption(symbols []string, fields ...string) (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceLevelOneOption, symbols, fields)
}

func (sc *StreamClient) UnsubscribeLevelOneOption(symbols ...string) (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceLevelOneOption, symbols)
}

// SubscribeAccountActivity subscribes to order and position events of the
// session's account, using Session.AccountActivityKey.
func (sc *StreamClient) SubscribeAccountActivity() (RequestEnvelope, error) {
	return sc.subscribeService(common.ServiceAccountActivity, []string{sc.params.Session.AccountActivityKey}, nil)
}

func (sc *StreamClient) UnsubscribeAccountActivity() (RequestEnvelope, error) {
	return sc.unsubscribeService(common.ServiceAccountActivity, []string{sc.params.Session.AccountActivityKey})
}

// ChartHistoryParams is a request of historical futures candles. Either
// Period, or StartTime and EndTime, should be given.
type ChartHistoryParams struct {
	Symbol string

	// Frequency is e.g. "m1", "m5", "h1", "d1".
	Frequency string

	// Period is e.g. "d5", "w4", "y1".
	Period string

	StartTime time.Time
	EndTime   time.Time
}

// RequestChartHistoryFutures requests historical candles for a futures
// symbol; the reply is emitted as EventChartHistoryFutures, with the request
// id as its "requestId".
func (sc *StreamClient) RequestChartHistoryFutures(p ChartHistoryParams) (RequestEnvelope, error) {
	if p.Symbol == "" || p.Frequency == "" {
		return RequestEnvelope{}, errors.New("chart history: symbol and frequency are required")
	}

	params := Parameters{
		"symbol":    strings.ToUpper(p.Symbol),
		"frequency": p.Frequency,
	}

	switch {
	case p.Period != "":
		params["period"] = p.Period
	case !p.StartTime.IsZero() && !p.EndTime.IsZero():
		params["START_TIME"] = strconv.FormatInt(unixMillis(p.StartTime), 10)
		params["END_TIME"] = strconv.FormatInt(unixMillis(p.EndTime), 10)
	default:
		return RequestEnvelope{}, errors.New("chart history: either period or start and end time are required")
	}

	return sc.SendRequest(Request{
		Service:    common.ServiceChartHistoryFutures,
		Command:    common.CommandGet,
		Parameters: params,
	})
}

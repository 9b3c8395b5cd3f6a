package websocket

import (
	"github.com/sallewarkiran/tda-sdk-go/common"
)

// Event names a stream client emits, besides the state names (see
// ConnState.Event) and the SUBS / UNSUBS acknowledgements (EventSubs,
// EventUnsubs).
//
// Payload types: EventMessage and EventInvalidMessage carry the raw frame
// as a string; EventHeartbeat carries the heartbeat value;
// EventConnectionRefused carries the dial error; EventAuthenticationFailed
// carries the response content as a Record; everything else carries a
// Message.
const (
	EventMessage = "message"

	EventUnknownError         = "unknown_error"
	EventUnknownMessage       = "unknown_message"
	EventUnknownResponse      = "unknown_response"
	EventUnknownNotification  = "unknown_notification"
	EventUnknownData          = "unknown_data"
	EventInvalidMessage       = "invalid_message"
	EventConnectionRefused    = "connection_refused"
	EventAuthenticationFailed = "authentication_failed"

	EventAccountActivity     = "account_activity"
	EventChart               = "chart"
	EventNewsHeadline        = "news_headline"
	EventTimeSale            = "timesale"
	EventLevelOneEquity      = "level_one_equity"
	EventLevelOneFutures     = "level_one_futures"
	EventLevelOneOption      = "level_one_option"
	EventChartHistoryFutures = "chart_history_futures"
	EventHeartbeat           = "heartbeat"

	EventSubs   = string(common.CommandSubs)
	EventUnsubs = string(common.CommandUnsubs)
)

// dataEvents maps each decodable service to the event its data is emitted
// under.
var dataEvents = map[common.Service]string{
	common.ServiceAccountActivity:     EventAccountActivity,
	common.ServiceChartEquity:         EventChart,
	common.ServiceChartFutures:        EventChart,
	common.ServiceChartOptions:        EventChart,
	common.ServiceChartHistoryFutures: EventChartHistoryFutures,
	common.ServiceNewsHeadline:        EventNewsHeadline,
	common.ServiceTimeSaleEquity:      EventTimeSale,
	common.ServiceTimeSaleFutures:     EventTimeSale,
	common.ServiceTimeSaleForex:       EventTimeSale,
	common.ServiceTimeSaleOptions:     EventTimeSale,
	common.ServiceLevelOneEquity:      EventLevelOneEquity,
	common.ServiceLevelOneFutures:     EventLevelOneFutures,
	common.ServiceLevelOneOption:      EventLevelOneOption,
}

// StateChange is the payload of the state events.
type StateChange struct {
	From, To ConnState
}

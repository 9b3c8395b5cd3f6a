package common

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Service is the name of a streaming data service, as used in the "service"
// field of both requests and responses.
type Service string

// The following constants are all services the stream client knows how to
// request and decode.
const (
	ServiceAdmin               Service = "ADMIN"
	ServiceAccountActivity     Service = "ACCT_ACTIVITY"
	ServiceChartEquity         Service = "CHART_EQUITY"
	ServiceChartFutures        Service = "CHART_FUTURES"
	ServiceChartOptions        Service = "CHART_OPTIONS"
	ServiceChartHistoryFutures Service = "CHART_HISTORY_FUTURES"
	ServiceNewsHeadline        Service = "NEWS_HEADLINE"
	ServiceTimeSaleEquity      Service = "TIMESALE_EQUITY"
	ServiceTimeSaleFutures     Service = "TIMESALE_FUTURES"
	ServiceTimeSaleForex       Service = "TIMESALE_FOREX"
	ServiceTimeSaleOptions     Service = "TIMESALE_OPTIONS"
	ServiceLevelOneEquity      Service = "QUOTE"
	ServiceLevelOneFutures     Service = "LEVELONE_FUTURES"
	ServiceLevelOneOption      Service = "OPTION"
)

func (s Service) String() string {
	return string(s)
}

// Command is the action of a request; responses echo it back.
type Command string

// The following constants are all commands used by the stream client.
const (
	CommandLogin  Command = "LOGIN"
	CommandLogout Command = "LOGOUT"
	CommandQOS    Command = "QOS"
	CommandSubs   Command = "SUBS"
	CommandUnsubs Command = "UNSUBS"
	CommandGet    Command = "GET"
)

func (c Command) String() string {
	return string(c)
}

// QOSLevel is a named data delivery rate of the stream; the numeric wire
// value is its index in QOSLevels.
type QOSLevel string

// The following constants are all QOS levels, fastest first.
const (
	QOSExpress  QOSLevel = "express"
	QOSRealtime QOSLevel = "realtime"
	QOSFast     QOSLevel = "fast"
	QOSModerate QOSLevel = "moderate"
	QOSSlow     QOSLevel = "slow"
	QOSDelayed  QOSLevel = "delayed"
)

// ErrUnknownQOSLevel is returned when a QOS level name is not in QOSLevels.
var ErrUnknownQOSLevel = errors.New("unknown qos level")

// Value returns the wire value of the level, e.g. "0" for QOSExpress.
func (l QOSLevel) Value() (string, error) {
	idx, err := QOSLevels.Index(string(l))
	if err != nil {
		return "", errors.Annotatef(ErrUnknownQOSLevel, "%q", string(l))
	}

	return strconv.Itoa(idx), nil
}

// ParseQOSLevel parses a case-insensitive level name.
func ParseQOSLevel(s string) (QOSLevel, error) {
	l := QOSLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, err := l.Value(); err != nil {
		return "", errors.Trace(err)
	}

	return l, nil
}

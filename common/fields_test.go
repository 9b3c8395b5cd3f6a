package common

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestFieldMapLookups(t *testing.T) {
	assert := assert.New(t)

	idx, err := ChartEquityFields.Index("chartTime")
	assert.NoError(err)
	assert.Equal(7, idx)

	name, ok := ChartEquityFields.Name(8)
	assert.True(ok)
	assert.Equal("chartDay", name)

	_, ok = ChartEquityFields.Name(9)
	assert.False(ok)

	_, err = ChartEquityFields.Index("chartday")
	assert.Equal(ErrUnknownField, errors.Cause(err))

	assert.Panics(func() { TimeSaleFields.MustIndex("bogus") })

	assert.Equal(52, LevelOneEquityFields.MustIndex("regularMarketTradeTimeInLong"))
	assert.Equal(35, LevelOneFuturesFields.MustIndex("futureExpirationDate"))
	assert.Equal(41, LevelOneOptionFields.MustIndex("mark"))
	assert.Equal(10, NewsHeadlineFields.MustIndex("storySource"))
	assert.Equal(3, AccountActivityFields.MustIndex("messageData"))
}

func TestFieldMapIsolation(t *testing.T) {
	names := TimeSaleFields.Names()
	names[0] = "mutated"

	indices := TimeSaleFields.Indices()
	indices[0] = 42

	assert.Equal(t, "symbol", TimeSaleFields.Names()[0])
	assert.Equal(t, 0, TimeSaleFields.Indices()[0])
}

func TestFieldMapIndexList(t *testing.T) {
	testCases := []struct {
		descr   string
		fm      *FieldMap
		names   []string
		want    string
		wantErr error
	}{
		{descr: "all fields", fm: ChartFuturesFields, want: "0,1,2,3,4,5,6"},
		{descr: "subset keeps caller order", fm: TimeSaleFields, names: []string{"lastSize", "symbol"}, want: "3,0"},
		{descr: "unknown name", fm: TimeSaleFields, names: []string{"symbol", "nope"}, wantErr: ErrUnknownField},
	}

	for i, tc := range testCases {
		got, err := tc.fm.IndexList(tc.names...)
		if tc.wantErr != nil {
			assert.Equal(t, tc.wantErr, errors.Cause(err), "test case #%d (%s)", i, tc.descr)
			continue
		}

		if assert.NoError(t, err, "test case #%d (%s)", i, tc.descr) {
			assert.Equal(t, tc.want, got, "test case #%d (%s)", i, tc.descr)
		}
	}
}

func TestFieldMapDuplicatesPanic(t *testing.T) {
	assert.Panics(t, func() { newFieldMap("a", "b", "a") })
	assert.Panics(t, func() { newFieldMapIndexed([]string{"a", "b"}, []int{1, 1}) })
	assert.Panics(t, func() { newFieldMapIndexed([]string{"a"}, []int{1, 2}) })
}

func TestFieldsFor(t *testing.T) {
	for _, s := range []Service{
		ServiceTimeSaleEquity, ServiceTimeSaleFutures,
		ServiceTimeSaleForex, ServiceTimeSaleOptions,
	} {
		fm, ok := FieldsFor(s)
		assert.True(t, ok, "%s", s)
		assert.Equal(t, TimeSaleFields, fm, "%s", s)
	}

	_, ok := FieldsFor(ServiceAdmin)
	assert.False(t, ok)
}

func TestQOSLevels(t *testing.T) {
	v, err := QOSExpress.Value()
	assert.NoError(t, err)
	assert.Equal(t, "0", v)

	v, err = QOSDelayed.Value()
	assert.NoError(t, err)
	assert.Equal(t, "5", v)

	l, err := ParseQOSLevel(" Moderate ")
	assert.NoError(t, err)
	assert.Equal(t, QOSModerate, l)

	_, err = ParseQOSLevel("ludicrous")
	assert.Equal(t, ErrUnknownQOSLevel, errors.Cause(err))
}

func TestSessionStreamURL(t *testing.T) {
	s := Session{StreamerHost: "streamer-ws.example.com"}
	assert.Equal(t, "wss://streamer-ws.example.com/ws", s.StreamURL())
}

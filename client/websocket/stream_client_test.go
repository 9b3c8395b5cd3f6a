package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sallewarkiran/tda-sdk-go/common"
)

const (
	testAccountID = "123456789"
	testAppID     = "TESTAPP"
	testToken     = "0123456789abcdef"

	waitTimeout = 2 * time.Second
)

var testSession = common.Session{
	UserID:             testAccountID,
	AccountID:          testAccountID,
	AppID:              testAppID,
	Token:              testToken,
	TokenTimestamp:     time.Date(2020, 7, 10, 14, 0, 0, 0, time.UTC),
	Company:            "AMER",
	Segment:            "ADVNCED",
	CDDomainID:         "A000000012345678",
	UserGroup:          "ACCT",
	AccessLevel:        "ACCT",
	ACL:                "AKBPDRFSM1",
	StreamerHost:       "streamer-ws.example.com",
	AccountActivityKey: "activity-key-0123",
}

// testServerParams is what withTestServer gives to the test: everything the
// server receives is delivered to rx, and everything sent to tx is sent by
// the server to the client.
type testServerParams struct {
	url string
	rx  <-chan []byte
	tx  chan<- string
}

// withTestServer runs cb with a websocket server which accepts a single
// connection at a time.
func withTestServer(t *testing.T, cb func(tp *testServerParams)) {
	rx := make(chan []byte, 128)
	tx := make(chan string, 128)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		defer ws.Close()

		done := make(chan struct{})
		defer close(done)

		go func() {
			for {
				select {
				case msg := <-tx:
					if err := ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			rx <- data
		}
	}))
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	u.Scheme = "ws"

	cb(&testServerParams{
		url: u.String(),
		rx:  rx,
		tx:  tx,
	})
}

// expectRequest waits for a request frame, and returns its only request.
func (tp *testServerParams) expectRequest(t *testing.T) Request {
	t.Helper()

	select {
	case data := <-tp.rx:
		var env RequestEnvelope
		require.NoError(t, json.Unmarshal(data, &env))
		require.Len(t, env.Requests, 1)
		return env.Requests[0]

	case <-time.After(waitTimeout):
		t.Fatal("no request received")
	}

	return Request{}
}

func newTestClient(t *testing.T, url string, grace time.Duration, reg prometheus.Registerer) *StreamClient {
	t.Helper()

	sc, err := NewStreamClient(&StreamClientParams{
		Session:           testSession,
		URL:               url,
		LogoutGracePeriod: grace,
		Registerer:        reg,
	})
	require.NoError(t, err)

	return sc
}

var stateEvents = []string{
	ConnStateDisconnected.Event(),
	ConnStateConnecting.Event(),
	ConnStateConnected.Event(),
	ConnStateAuthenticated.Event(),
	ConnStateDisconnecting.Event(),
}

// recordEvents sends the name of each emitted event of the given ones to the
// returned channel.
func recordEvents(sc *StreamClient, events ...string) <-chan string {
	ch := make(chan string, 64)

	for _, event := range events {
		event := event
		sc.On(event, func(interface{}) {
			ch <- event
		})
	}

	return ch
}

func expectEvents(t *testing.T, ch <-chan string, want ...string) {
	t.Helper()

	for _, w := range want {
		select {
		case got := <-ch:
			require.Equal(t, w, got)
		case <-time.After(waitTimeout):
			t.Fatalf("expected event %q, got nothing", w)
		}
	}
}

func expectNoEvents(t *testing.T, ch <-chan string) {
	t.Helper()

	select {
	case got := <-ch:
		t.Fatalf("expected no events, got %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func loginResponse(requestID string, code int) string {
	return fmt.Sprintf(
		`{"response":[{"service":"ADMIN","command":"LOGIN","requestid":%q,"timestamp":1594425540000,"content":{"code":%d,"msg":"msg"}}]}`,
		requestID, code,
	)
}

func TestNewStreamClient(t *testing.T) {
	sc, err := NewStreamClient(&StreamClientParams{Session: testSession})
	require.NoError(t, err)
	assert.Equal(t, "wss://streamer-ws.example.com/ws", sc.URL())
	assert.Equal(t, ConnStateDisconnected, sc.State())
	assert.Equal(t, defaultLogoutGracePeriod, sc.params.LogoutGracePeriod)

	noHost := testSession
	noHost.StreamerHost = ""
	_, err = NewStreamClient(&StreamClientParams{Session: noHost})
	assert.Equal(t, ErrNoStreamerHost, errors.Cause(err))

	noToken := testSession
	noToken.Token = ""
	_, err = NewStreamClient(&StreamClientParams{Session: noToken})
	assert.Equal(t, ErrNoSessionToken, errors.Cause(err))
}

func TestStreamClientLoginLogout(t *testing.T) {
	const grace = 200 * time.Millisecond

	withTestServer(t, func(tp *testServerParams) {
		reg := prometheus.NewRegistry()
		sc := newTestClient(t, tp.url, grace, reg)
		events := recordEvents(sc, stateEvents...)

		require.NoError(t, sc.Connect())
		expectEvents(t, events, "connecting", "connected")

		login := tp.expectRequest(t)
		assert.Equal(t, common.ServiceAdmin, login.Service)
		assert.Equal(t, common.CommandLogin, login.Command)
		assert.Equal(t, testAccountID, login.Account)
		assert.Equal(t, testAppID, login.Source)
		assert.Equal(t, testToken, login.Parameters["token"])
		assert.Equal(t, "1.0", login.Parameters["version"])
		assert.Equal(t, loginCredential(testSession), login.Parameters["credential"])
		assert.NotEmpty(t, login.RequestID)

		tp.tx <- loginResponse(login.RequestID, 0)
		expectEvents(t, events, "authenticated")
		assert.Equal(t, ConnStateAuthenticated, sc.State())

		assert.Equal(t, ErrConnLoopActive, errors.Cause(sc.Connect()))

		start := time.Now()
		require.NoError(t, sc.Disconnect(DisconnectOpt{}))
		expectEvents(t, events, "disconnecting")

		logout := tp.expectRequest(t)
		assert.Equal(t, common.ServiceAdmin, logout.Service)
		assert.Equal(t, common.CommandLogout, logout.Command)
		assert.Nil(t, logout.Parameters)

		expectEvents(t, events, "disconnected")
		assert.True(t, time.Since(start) >= grace, "closed before the grace period")
		assert.Equal(t, ConnStateDisconnected, sc.State())

		// No reconnection on the same instance.
		assert.Equal(t, ErrClientClosed, errors.Cause(sc.Connect()))
		require.NoError(t, sc.Disconnect(DisconnectOpt{}))
		expectNoEvents(t, events)

		assert.Equal(t, 1.0, testutil.ToFloat64(sc.metrics.requests.WithLabelValues("ADMIN", "LOGIN")))
		assert.Equal(t, 1.0, testutil.ToFloat64(sc.metrics.requests.WithLabelValues("ADMIN", "LOGOUT")))
		assert.Equal(t, 1.0, testutil.ToFloat64(sc.metrics.frames.WithLabelValues(frameResponse)))
		assert.Equal(t, 1.0, testutil.ToFloat64(sc.metrics.events.WithLabelValues("authenticated")))
	})
}

func TestStreamClientLoginFailed(t *testing.T) {
	withTestServer(t, func(tp *testServerParams) {
		sc := newTestClient(t, tp.url, time.Minute, nil)
		events := recordEvents(sc, append(stateEvents, EventAuthenticationFailed)...)

		failures := make(chan interface{}, 1)
		sc.On(EventAuthenticationFailed, func(payload interface{}) {
			failures <- payload
		})

		require.NoError(t, sc.Connect())
		expectEvents(t, events, "connecting", "connected")

		login := tp.expectRequest(t)
		tp.tx <- loginResponse(login.RequestID, 3)

		expectEvents(t, events, EventAuthenticationFailed)
		assert.Equal(t, Record{"code": json.Number("3"), "msg": "msg"}, <-failures)
		expectNoEvents(t, events)
		assert.Equal(t, ConnStateConnected, sc.State())

		// Forced: no waiting for the (very long) grace period.
		require.NoError(t, sc.Disconnect(DisconnectOpt{Force: true}))
		expectEvents(t, events, "disconnecting", "disconnected")
	})
}

func TestStreamClientForceDuringGracefulDisconnect(t *testing.T) {
	withTestServer(t, func(tp *testServerParams) {
		sc := newTestClient(t, tp.url, time.Minute, nil)
		events := recordEvents(sc, stateEvents...)

		require.NoError(t, sc.Connect())
		expectEvents(t, events, "connecting", "connected")
		tp.expectRequest(t)

		require.NoError(t, sc.Disconnect(DisconnectOpt{}))
		expectEvents(t, events, "disconnecting")
		expectNoEvents(t, events)

		require.NoError(t, sc.Disconnect(DisconnectOpt{Force: true}))
		expectEvents(t, events, "disconnected")
	})
}

func TestStreamClientTransportClosed(t *testing.T) {
	withTestServer(t, func(tp *testServerParams) {
		sc := newTestClient(t, tp.url, 0, nil)
		events := recordEvents(sc, stateEvents...)

		require.NoError(t, sc.Connect())
		expectEvents(t, events, "connecting", "connected")
		tp.expectRequest(t)

		// Closing the socket without Disconnect still ends up disconnected.
		require.NoError(t, sc.transport.Close())
		expectEvents(t, events, "disconnected")
	})
}

func TestStreamClientConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	u.Scheme = "ws"
	ts.Close()

	sc := newTestClient(t, u.String(), 0, nil)
	events := recordEvents(sc, append(stateEvents, EventConnectionRefused)...)

	refused := make(chan interface{}, 1)
	sc.On(EventConnectionRefused, func(payload interface{}) {
		refused <- payload
	})

	require.NoError(t, sc.Connect())
	expectEvents(t, events, "connecting", EventConnectionRefused, "disconnected")

	_, isErr := (<-refused).(error)
	assert.True(t, isErr)
}

func TestStreamClientNotConnected(t *testing.T) {
	sc := newTestClient(t, "ws://127.0.0.1:1/ws", 0, nil)

	env, err := sc.SendRequest(Request{Service: common.ServiceAdmin, Command: common.CommandQOS})
	assert.Equal(t, ErrNotConnected, errors.Cause(err))
	require.Len(t, env.Requests, 1)

	assert.Equal(t, ErrNotConnected, errors.Cause(sc.Send("{}")))

	// Disconnecting a client which never connected is a no-op.
	events := recordEvents(sc, stateEvents...)
	require.NoError(t, sc.Disconnect(DisconnectOpt{}))
	expectNoEvents(t, events)
}

func TestStreamClientSubscribe(t *testing.T) {
	withTestServer(t, func(tp *testServerParams) {
		sc := newTestClient(t, tp.url, 0, nil)
		events := recordEvents(sc, append(stateEvents, EventSubs, EventChart)...)

		charts := make(chan interface{}, 1)
		sc.On(EventChart, func(payload interface{}) {
			charts <- payload
		})

		require.NoError(t, sc.Connect())
		expectEvents(t, events, "connecting", "connected")

		login := tp.expectRequest(t)
		tp.tx <- loginResponse(login.RequestID, 0)
		expectEvents(t, events, "authenticated")

		env, err := sc.Subscribe(Request{
			Service:    common.ServiceChartEquity,
			Parameters: Parameters{"keys": "spy"},
		})
		require.NoError(t, err)

		sub := tp.expectRequest(t)
		assert.Equal(t, env.Requests[0], sub)
		assert.Equal(t, common.CommandSubs, sub.Command)
		assert.Equal(t, Parameters{"keys": "SPY", "fields": "0,1,2,3,4,5,6,7"}, sub.Parameters)

		tp.tx <- fmt.Sprintf(
			`{"response":[{"service":"CHART_EQUITY","command":"SUBS","requestid":%q,"content":{"code":0,"msg":"SUBS command succeeded"}}]}`,
			sub.RequestID,
		)
		expectEvents(t, events, EventSubs)

		tp.tx <- `{"data":[{"service":"CHART_EQUITY","timestamp":1594425541000,"command":"SUBS","content":[` +
			`{"seq":707,"key":"SPY","1":318.01,"2":318.15,"3":318.01,"4":318.1,"5":4460,"6":779,"7":1594425540000,"8":18453}]}]}`
		expectEvents(t, events, EventChart)

		msg := (<-charts).(Message)
		assert.Equal(t, common.ServiceChartEquity, msg.Service())
		assert.Equal(t, int64(1594425541000), msg.Timestamp())
		assert.Equal(t, []Record{{
			"key":        "SPY",
			"seq":        json.Number("707"),
			"chartTime":  json.Number("1594425540000"),
			"openPrice":  json.Number("318.01"),
			"highPrice":  json.Number("318.15"),
			"lowPrice":   json.Number("318.01"),
			"closePrice": json.Number("318.1"),
			"volume":     json.Number("4460"),
		}}, msg.Content())

		_, err = sc.SetQOS(common.QOSFast)
		require.NoError(t, err)

		qos := tp.expectRequest(t)
		assert.Equal(t, common.CommandQOS, qos.Command)
		assert.Equal(t, Parameters{"qoslevel": "2"}, qos.Parameters)

		require.NoError(t, sc.Disconnect(DisconnectOpt{Force: true}))
		expectEvents(t, events, "disconnecting", "disconnected")
	})
}

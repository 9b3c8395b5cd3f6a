package websocket

import (
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sallewarkiran/tda-sdk-go/client/websocket/internal"
	"github.com/sallewarkiran/tda-sdk-go/common"
)

const (
	defaultLogoutGracePeriod = 3 * time.Second
)

var (
	ErrNotConnected   = errors.New("not connected")
	ErrConnLoopActive = errors.New("connection is already active")
	ErrClientClosed   = errors.New("client was already connected once; create a new one to reconnect")
	ErrNoStreamerHost = errors.New("session has no streamer host")
	ErrNoSessionToken = errors.New("session has no streamer token")
)

// ConnState represents the state of the stream client's connection. Every
// state is also an event name (see ConnState.Event), emitted with a
// StateChange payload when the state is entered.
type ConnState int

const (
	// ConnStateDisconnected is the initial state, and the final one: once
	// disconnected, the client can't connect again.
	ConnStateDisconnected ConnState = iota

	// ConnStateConnecting means the websocket is being dialed.
	ConnStateConnecting

	// ConnStateConnected means the websocket is open and the login request
	// was sent, but not yet accepted.
	ConnStateConnected

	// ConnStateAuthenticated means the streamer accepted the login.
	ConnStateAuthenticated

	// ConnStateDisconnecting means the logout was sent, and the websocket
	// is going to be closed.
	ConnStateDisconnecting
)

// ConnStateNames contains human-readable names for connection states, which
// are also the names of the events emitted on entering them.
var ConnStateNames = map[ConnState]string{
	ConnStateDisconnected:  "disconnected",
	ConnStateConnecting:    "connecting",
	ConnStateConnected:     "connected",
	ConnStateAuthenticated: "authenticated",
	ConnStateDisconnecting: "disconnecting",
}

// Event returns the name of the event emitted on entering the state.
func (s ConnState) Event() string {
	return ConnStateNames[s]
}

func (s ConnState) String() string {
	return ConnStateNames[s]
}

// StreamClientParams contains params for NewStreamClient.
type StreamClientParams struct {
	// Session is the identity the client logs in with; see
	// rest.UserPrincipals.Session.
	Session common.Session

	// URL overrides Session.StreamURL().
	URL string

	// LogoutGracePeriod is how long Disconnect waits after sending the
	// logout before closing the websocket. Defaults to 3s.
	LogoutGracePeriod time.Duration

	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger

	// Registerer, if set, gets the client's prometheus counters.
	Registerer prometheus.Registerer
}

// DisconnectOpt contains options for Disconnect.
type DisconnectOpt struct {
	// Force closes the websocket right away, without waiting for the logout
	// to be flushed.
	Force bool
}

// StreamClient is a connection to the streamer. Typically you create one
// with NewStreamClient, register listeners (at least for
// ConnStateAuthenticated, to subscribe once logged in), and call Connect.
//
// All events, data included, are emitted from a single goroutine, in the
// order of the frames received.
type StreamClient struct {
	params  StreamClientParams
	url     string
	builder requestBuilder

	transport *internal.StreamTransportConn
	emitter   *emitter
	metrics   *streamMetrics
	log       zerolog.Logger

	state ConnState
	// used is set by the first Connect.
	used bool
	// closeTimer is the pending close of a graceful Disconnect.
	closeTimer *time.Timer

	mtx sync.Mutex
}

// NewStreamClient creates a client for the given session. No connection is
// made until Connect is called.
func NewStreamClient(params *StreamClientParams) (*StreamClient, error) {
	p := *params

	if p.Session.Token == "" {
		return nil, errors.Trace(ErrNoSessionToken)
	}

	url := p.URL
	if url == "" {
		if p.Session.StreamerHost == "" {
			return nil, errors.Trace(ErrNoStreamerHost)
		}
		url = p.Session.StreamURL()
	}

	if p.LogoutGracePeriod <= 0 {
		p.LogoutGracePeriod = defaultLogoutGracePeriod
	}

	logger := zerolog.Nop()
	if p.Logger != nil {
		logger = *p.Logger
	}

	transport, err := internal.NewStreamTransportConn(&internal.StreamTransportParams{
		URL: url,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	sc := &StreamClient{
		params:    p,
		url:       url,
		builder:   newRequestBuilder(p.Session),
		transport: transport,
		emitter:   newEmitter(),
		metrics:   newStreamMetrics(p.Registerer),
		log:       logger.With().Str("component", "stream").Logger(),
		state:     ConnStateDisconnected,
	}

	transport.OnRead(sc.handleMessage)
	transport.OnStateChange(sc.onTransportStateChange)

	return sc, nil
}

// Connect emits "connecting" and starts dialing the streamer; it returns
// right away. Progress is reported by the state events, and a failed dial by
// EventConnectionRefused followed by "disconnected".
//
// A client connects only once: after it went back to ConnStateDisconnected,
// Connect returns ErrClientClosed.
func (sc *StreamClient) Connect() error {
	sc.mtx.Lock()

	if sc.state != ConnStateDisconnected {
		sc.mtx.Unlock()
		return errors.Trace(ErrConnLoopActive)
	}

	if sc.used {
		sc.mtx.Unlock()
		return errors.Trace(ErrClientClosed)
	}

	sc.used = true
	notify := sc.updateState(ConnStateConnecting)
	sc.mtx.Unlock()

	notify()

	if err := sc.transport.Connect(); err != nil {
		return errors.Trace(err)
	}

	return nil
}

// Disconnect logs out and closes the connection: it emits "disconnecting",
// sends the logout request, and closes the websocket after
// LogoutGracePeriod, or right away if opt.Force is set. "disconnected" is
// emitted once the websocket is closed.
//
// It's a no-op if the client is disconnected. A forced Disconnect while a
// graceful one is pending closes the websocket right away.
func (sc *StreamClient) Disconnect(opt DisconnectOpt) error {
	sc.mtx.Lock()

	switch sc.state {
	case ConnStateDisconnected:
		sc.mtx.Unlock()
		return nil

	case ConnStateDisconnecting:
		force := opt.Force && sc.closeTimer != nil && sc.closeTimer.Stop()
		sc.mtx.Unlock()

		if force {
			sc.closeTransport()
		}
		return nil
	}

	notify := sc.updateState(ConnStateDisconnecting)
	sc.mtx.Unlock()

	notify()

	if _, err := sc.SendRequest(logoutRequest()); err != nil && errors.Cause(err) != ErrNotConnected {
		sc.log.Warn().Err(err).Msg("Failed to send logout")
	}

	if opt.Force {
		sc.closeTransport()
		return nil
	}

	sc.mtx.Lock()
	// The websocket could be closed by the server meanwhile.
	if sc.state == ConnStateDisconnecting {
		sc.closeTimer = time.AfterFunc(sc.params.LogoutGracePeriod, sc.closeTransport)
	}
	sc.mtx.Unlock()

	return nil
}

func (sc *StreamClient) closeTransport() {
	sc.mtx.Lock()
	sc.closeTimer = nil
	sc.mtx.Unlock()

	if err := sc.transport.Close(); err != nil && errors.Cause(err) != internal.ErrNotConnected {
		sc.log.Warn().Err(err).Msg("Failed to close websocket")
	}
}

func (sc *StreamClient) onTransportStateChange(_, state internal.TransportState, cause error) {
	switch state {
	case internal.TransportStateConnected:
		sc.mtx.Lock()
		if sc.state != ConnStateConnecting {
			// Disconnect was called while dialing.
			sc.mtx.Unlock()
			return
		}
		notify := sc.updateState(ConnStateConnected)
		sc.mtx.Unlock()

		notify()

		if _, err := sc.SendRequest(loginRequest(sc.params.Session)); err != nil {
			sc.log.Warn().Err(err).Msg("Failed to send login")
		}

	case internal.TransportStateDisconnected:
		if de, ok := cause.(*internal.DialError); ok {
			sc.log.Warn().Err(de.Err).Str("url", sc.url).Msg("Connection refused")
			sc.emit(EventConnectionRefused, de.Err)
		} else if cause != nil {
			sc.log.Warn().Err(cause).Msg("Connection lost")
		}

		sc.mtx.Lock()
		if sc.closeTimer != nil {
			sc.closeTimer.Stop()
			sc.closeTimer = nil
		}
		notify := sc.updateState(ConnStateDisconnected)
		sc.mtx.Unlock()

		notify()
	}
}

// updateState returns a func which emits the state event; the caller should
// call it after unlocking sc.mtx.
//
// NOTE: sc.mtx should be locked when updateState is called
func (sc *StreamClient) updateState(state ConnState) func() {
	if sc.state == state {
		return func() {}
	}

	change := StateChange{From: sc.state, To: state}
	sc.state = state

	return func() {
		sc.log.Debug().Stringer("from", change.From).Stringer("to", change.To).Msg("State changed")
		sc.emit(state.Event(), change)
	}
}

func (sc *StreamClient) emit(event string, payload interface{}) {
	sc.metrics.event(event)
	sc.emitter.emit(event, payload)
}

// State returns the current connection state.
func (sc *StreamClient) State() ConnState {
	sc.mtx.Lock()
	defer sc.mtx.Unlock()
	return sc.state
}

// URL returns the streamer URL the client connects to.
func (sc *StreamClient) URL() string {
	return sc.url
}

// CreateRequest resolves the given requests against the session: each gets a
// fresh request id, and the session's account and app id, unless already
// set. Nothing is sent.
func (sc *StreamClient) CreateRequest(reqs ...Request) RequestEnvelope {
	return sc.builder.build(reqs...)
}

// SendRequest sends the given requests in a single frame, and returns what
// was sent. It doesn't wait for the responses; those are emitted as events,
// and carry the request ids. If the websocket isn't open, ErrNotConnected is
// returned.
func (sc *StreamClient) SendRequest(reqs ...Request) (RequestEnvelope, error) {
	env := sc.CreateRequest(reqs...)

	data, err := env.Marshal()
	if err != nil {
		return env, errors.Trace(err)
	}

	if err := sc.sendRaw(data); err != nil {
		return env, errors.Trace(err)
	}

	for _, req := range env.Requests {
		sc.metrics.request(req)
		sc.log.Debug().
			Str("service", string(req.Service)).
			Str("command", string(req.Command)).
			Str("requestid", req.RequestID).
			Msg("Request sent")
	}

	return env, nil
}

// Send sends an arbitrary payload: []byte and string are sent as is,
// anything else is encoded as JSON.
func (sc *StreamClient) Send(v interface{}) error {
	var data []byte

	switch vv := v.(type) {
	case []byte:
		data = vv
	case string:
		data = []byte(vv)
	default:
		var err error
		if data, err = marshalJSON(v); err != nil {
			return errors.Trace(err)
		}
	}

	return errors.Trace(sc.sendRaw(data))
}

func (sc *StreamClient) sendRaw(data []byte) error {
	if err := sc.transport.Send(data); err != nil {
		if errors.Cause(err) == internal.ErrNotConnected {
			return errors.Trace(ErrNotConnected)
		}
		return errors.Trace(err)
	}

	return nil
}

// Subscribe sends the given requests as SUBS. Keys of known services are
// upper-cased (account activity keys excepted), and requests without "fields"
// get the service's default fields.
func (sc *StreamClient) Subscribe(reqs ...Request) (RequestEnvelope, error) {
	return sc.SendRequest(stampCommand(common.CommandSubs, reqs)...)
}

// Unsubscribe sends the given requests as UNSUBS.
func (sc *StreamClient) Unsubscribe(reqs ...Request) (RequestEnvelope, error) {
	return sc.SendRequest(stampCommand(common.CommandUnsubs, reqs)...)
}

func stampCommand(cmd common.Command, reqs []Request) []Request {
	out := make([]Request, len(reqs))
	for i, req := range reqs {
		req.Command = cmd
		out[i] = shapeRequest(req)
	}
	return out
}

// SetQOS sets how often the streamer sends updates.
func (sc *StreamClient) SetQOS(level common.QOSLevel) (RequestEnvelope, error) {
	value, err := level.Value()
	if err != nil {
		return RequestEnvelope{}, errors.Trace(err)
	}

	return sc.SendRequest(Request{
		Service:    common.ServiceAdmin,
		Command:    common.CommandQOS,
		Parameters: Parameters{"qoslevel": value},
	})
}

// Listener registry

// On registers a listener for the event; listeners of an event are called in
// registration order.
func (sc *StreamClient) On(event string, cb Listener) ListenerID {
	return sc.emitter.on(event, cb, false)
}

// Once registers a listener which is removed before its first call.
func (sc *StreamClient) Once(event string, cb Listener) ListenerID {
	return sc.emitter.on(event, cb, true)
}

// RemoveListener removes a listener registered with On or Once, and returns
// whether it was registered.
func (sc *StreamClient) RemoveListener(event string, id ListenerID) bool {
	return sc.emitter.remove(event, id)
}

// RemoveAllListeners removes the listeners of the given events, or all
// listeners if no event is given.
func (sc *StreamClient) RemoveAllListeners(events ...string) {
	sc.emitter.removeAll(events...)
}

// EventNames returns the events which have listeners.
func (sc *StreamClient) EventNames() []string {
	return sc.emitter.eventNames()
}

// Listeners returns the listeners of the event, in call order.
func (sc *StreamClient) Listeners(event string) []Listener {
	return sc.emitter.listenersOf(event)
}

func (sc *StreamClient) ListenerCount(event string) int {
	return sc.emitter.count(event)
}

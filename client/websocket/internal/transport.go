package internal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
)

type TransportState int

const (
	// TransportStateDisconnected means we're disconnected and not trying to
	// connect. connLoop is not running.
	TransportStateDisconnected TransportState = iota

	// TransportStateConnecting means we're dialing the server right now.
	TransportStateConnecting

	// TransportStateConnected means the websocket connection is established.
	TransportStateConnected
)

// defaultCloseTimeout is how long we wait for the server to answer our close
// frame before dropping the connection.
const defaultCloseTimeout = 1 * time.Second

var TransportStateNames = map[TransportState]string{
	TransportStateDisconnected: "disconnected",
	TransportStateConnecting:   "connecting",
	TransportStateConnected:    "connected",
}

var (
	ErrNotConnected   = errors.New("transport error: not connected")
	ErrConnLoopActive = errors.New("transport error: connection loop is already active")
)

// StreamTransportParams contains params for opening a client stream connection
// (see StreamTransportConn)
type StreamTransportParams struct {
	// Server URL, e.g. wss://streamer-ws.tdameritrade.com/ws
	URL string

	// Header is sent with the websocket handshake; may be nil.
	Header http.Header

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// CloseTimeout defaults to defaultCloseTimeout.
	CloseTimeout time.Duration
}

// StreamTransportConn is a single client websocket connection. It does not
// reconnect: once it's back in TransportStateDisconnected, Connect may be
// called again, but that's up to the owner.
type StreamTransportConn struct {
	params StreamTransportParams

	// Current state
	state TransportState
	// Error caused the current state; only relevant for
	// TransportStateDisconnected, for other states it's always nil.
	stateCause error

	// onReadCB, if not nil, is called for each received websocket message.
	onReadCB onReadCallback

	// onStateChangeCB, if not nil, is called for each updated state.
	onStateChangeCB onStateChangeCallback

	// connCtx and connCtxCancel are context and its cancel func for the
	// currently running connLoop. If no connLoop is running at the moment (i.e.
	// the state is TransportStateDisconnected), these are nil.
	connCtx       context.Context
	connCtxCancel context.CancelFunc

	// wsConn is the currently active websocket connection, or nil if no
	// connection is established.
	wsConn *websocket.Conn

	mtx sync.Mutex

	// writeMtx serializes writes, since websocket.Conn supports only one
	// concurrent writer.
	writeMtx sync.Mutex
}

// NewStreamTransportConn creates a new stream transport connection.
//
// Callbacks should be set with OnRead and OnStateChange before calling
// Connect.
func NewStreamTransportConn(params *StreamTransportParams) (*StreamTransportConn, error) {
	if params.URL == "" {
		return nil, errors.New("url is empty")
	}

	c := &StreamTransportConn{
		params: *params,
		state:  TransportStateDisconnected,
	}

	if c.params.Dialer == nil {
		c.params.Dialer = websocket.DefaultDialer
	}

	if c.params.CloseTimeout <= 0 {
		c.params.CloseTimeout = defaultCloseTimeout
	}

	return c, nil
}

// Connect starts a connection goroutine if the state is
// TransportStateDisconnected; otherwise returns ErrConnLoopActive.
//
// It doesn't wait for the connection to establish, and returns immediately.
func (c *StreamTransportConn) Connect() error {
	c.mtx.Lock()

	if c.state != TransportStateDisconnected {
		c.mtx.Unlock()
		return errors.Trace(ErrConnLoopActive)
	}

	// NOTE that we need to enter the state TransportStateConnecting here and
	// not in connLoop, in order to prevent the race which would result in
	// multiple running connLoops.
	notify := c.updateState(TransportStateConnecting, nil)
	connCtx := c.connCtx
	c.mtx.Unlock()

	notify()

	go c.connLoop(connCtx)

	return nil
}

// Close closes the connection with the code 1000 (normal closure). If the
// connection is still being dialed, dialing is aborted.
func (c *StreamTransportConn) Close() error {
	return errors.Trace(c.CloseOpt(websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}

// CloseOpt sends the given close frame and then waits (up to CloseTimeout)
// for the server to close the connection.  If the graceful closure fails,
// the forceful one is performed.
func (c *StreamTransportConn) CloseOpt(data []byte) error {
	c.mtx.Lock()
	wsConn := c.wsConn

	if c.state == TransportStateDisconnected {
		c.mtx.Unlock()
		return errors.Trace(ErrNotConnected)
	}

	// Cancel the conn context, which aborts a pending dial.
	c.connCtxCancel()
	c.mtx.Unlock()

	// If websocket connection is active, close it, which will cause connLoop
	// to break out of its receive loop.
	if wsConn != nil {
		c.writeMtx.Lock()
		err := wsConn.WriteControl(websocket.CloseMessage, data, time.Now().Add(c.params.CloseTimeout))
		c.writeMtx.Unlock()

		if err != nil {
			// Graceful close failed, try to close forcefully
			return errors.Trace(wsConn.Close())
		}

		// Don't wait forever for the server's close frame.
		if err := wsConn.SetReadDeadline(time.Now().Add(c.params.CloseTimeout)); err != nil {
			return errors.Trace(wsConn.Close())
		}
	}

	return nil
}

// URL returns an url used for connection
func (c *StreamTransportConn) URL() string {
	return c.params.URL
}

// GetState returns connection state
func (c *StreamTransportConn) GetState() TransportState {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.state
}

type onReadCallback func(data []byte)
type onStateChangeCallback func(oldState, state TransportState, cause error)

// OnRead sets on-read callback; it should be called once right after creation
// of the StreamTransportConn, before the connection is established. The
// callback is invoked from the receiving goroutine, one message at a time.
func (c *StreamTransportConn) OnRead(cb onReadCallback) {
	c.onReadCB = cb
}

// OnStateChange sets state change callback; same rules as for OnRead apply.
// The callback is invoked with c.mtx unlocked.
func (c *StreamTransportConn) OnStateChange(cb onStateChangeCallback) {
	c.onStateChangeCB = cb
}

// Send writes a text message to the websocket if it's connected.
func (c *StreamTransportConn) Send(data []byte) error {
	c.mtx.Lock()
	wsConn := c.wsConn
	c.mtx.Unlock()

	if wsConn == nil {
		return errors.Trace(ErrNotConnected)
	}

	c.writeMtx.Lock()
	defer c.writeMtx.Unlock()

	if err := wsConn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Annotatef(err, "sending msg")
	}

	return nil
}

// enterLeaveState should be called on leaving and entering each state. So,
// when changing state from A to B, it's called twice, like this:
//
//      enterLeaveState(A, false)
//      enterLeaveState(B, true)
func (c *StreamTransportConn) enterLeaveState(state TransportState, enter bool) {
	switch state {

	case TransportStateDisconnected:
		// connCtx and its cancel func should be present in all states but
		// TransportStateDisconnected
		if enter {
			if c.connCtxCancel != nil {
				c.connCtxCancel()
			}
			c.connCtx = nil
			c.connCtxCancel = nil
		} else {
			c.connCtx, c.connCtxCancel = context.WithCancel(context.Background())
		}

	case TransportStateConnecting:
		// Nothing special to do for the TransportStateConnecting state

	case TransportStateConnected:
		// wsConn is present only in TransportStateConnected
		if !enter {
			c.wsConn = nil
		}
	}
}

// updateState returns a func which invokes the state change callback; the
// caller should call it after unlocking c.mtx.
//
// NOTE: c.mtx should be locked when updateState is called
func (c *StreamTransportConn) updateState(state TransportState, cause error) func() {
	if c.state == state {
		// No need to do anything
		return func() {}
	}

	// Properly leave the current state
	c.enterLeaveState(c.state, false)

	oldState := c.state
	c.state = state
	c.stateCause = cause

	// Properly enter the new state
	c.enterLeaveState(c.state, true)

	cb := c.onStateChangeCB
	return func() {
		if cb != nil {
			cb(oldState, state, cause)
		}
	}
}

// connLoop dials the server, then keeps receiving all websocket messages (and
// calls onReadCB for each of them) until the connection is closed, and then
// quits.
func (c *StreamTransportConn) connLoop(connCtx context.Context) {
	var connErr error

	defer func() {
		if connCtx.Err() != nil {
			// Closed by us, not a failure.
			connErr = nil
		}

		c.mtx.Lock()
		notify := c.updateState(TransportStateDisconnected, connErr)
		c.mtx.Unlock()
		notify()
	}()

	var wsConn *websocket.Conn
	wsConn, _, connErr = c.params.Dialer.DialContext(connCtx, c.params.URL, c.params.Header)
	if connErr != nil {
		connErr = &DialError{Err: connErr}
		return
	}

	defer wsConn.Close()

	c.mtx.Lock()
	select {
	case <-connCtx.Done():
		// Closed while we were dialing.
		c.mtx.Unlock()
		return
	default:
	}
	c.wsConn = wsConn
	notify := c.updateState(TransportStateConnected, nil)
	c.mtx.Unlock()
	notify()

	// Will loop here until the websocket connection is closed
	for {
		msgType, data, err := wsConn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				connErr = errors.Trace(err)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage, websocket.BinaryMessage:
			// Call on-read callback, if any
			if c.onReadCB != nil {
				c.onReadCB(data)
			}
		}
	}
}

// DialError is the disconnection cause when the connection could not be
// established at all.
type DialError struct {
	Err error
}

func (e *DialError) Error() string {
	return "dialing: " + e.Err.Error()
}

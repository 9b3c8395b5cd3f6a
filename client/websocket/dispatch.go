package websocket

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/sallewarkiran/tda-sdk-go/common"
)

// handleMessage classifies one inbound frame and emits the resulting events.
// It's called from the transport's receiving goroutine, one frame at a time,
// so events of a frame are emitted in the order of its entries.
func (sc *StreamClient) handleMessage(data []byte) {
	raw := string(data)
	sc.emit(EventMessage, raw)

	frame, ok := decodeFrame(data)
	if !ok {
		sc.metrics.frame(frameInvalid)
		sc.log.Warn().Str("frame", raw).Msg("Invalid frame")
		sc.emit(EventInvalidMessage, raw)
		return
	}

	if list, ok := frame[frameResponse].([]interface{}); ok {
		sc.metrics.frame(frameResponse)
		sc.eachMessage(list, sc.handleResponse)
		return
	}

	if list, ok := frame[frameNotify].([]interface{}); ok {
		sc.metrics.frame(frameNotify)
		sc.eachMessage(list, sc.handleNotify)
		return
	}

	if list, ok := frame[frameData].([]interface{}); ok {
		sc.metrics.frame(frameData)
		sc.eachMessage(list, sc.handleData)
		return
	}

	if list, ok := frame[frameSnapshot].([]interface{}); ok {
		sc.metrics.frame(frameSnapshot)
		sc.eachMessage(list, sc.handleData)
		return
	}

	sc.metrics.frame(frameUnknown)
	sc.emit(EventUnknownMessage, Message(frame))
}

// decodeFrame parses a frame which must be a single JSON object. Numbers are
// kept as json.Number.
func decodeFrame(data []byte) (map[string]interface{}, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}

	// Anything after the first value makes the frame invalid.
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}

	frame, ok := v.(map[string]interface{})
	return frame, ok
}

func (sc *StreamClient) eachMessage(list []interface{}, handle func(Message)) {
	for _, v := range list {
		obj, ok := v.(map[string]interface{})
		if !ok {
			sc.log.Warn().Interface("entry", v).Msg("Skipping non-object entry")
			continue
		}

		handle(Message(obj))
	}
}

func (sc *StreamClient) handleResponse(msg Message) {
	switch msg.Command() {
	case common.CommandQOS, common.CommandLogout:
		// Nothing to do

	case common.CommandLogin:
		if code, failed := msg.ErrorCode(); failed {
			sc.log.Warn().Int64("code", code).Interface("content", msg.ResponseContent()).Msg("Login failed")
			sc.emit(EventAuthenticationFailed, msg.ResponseContent())
			return
		}

		sc.mtx.Lock()
		notify := func() {}
		if sc.state == ConnStateConnected {
			notify = sc.updateState(ConnStateAuthenticated)
		}
		sc.mtx.Unlock()
		notify()

	case common.CommandSubs, common.CommandUnsubs:
		if _, failed := msg.ErrorCode(); failed {
			sc.emit(EventUnknownError, msg)
			return
		}
		sc.emit(string(msg.Command()), msg)

	default:
		sc.emit(EventUnknownResponse, msg)
	}
}

func (sc *StreamClient) handleNotify(msg Message) {
	if hb, ok := msg["heartbeat"]; ok {
		sc.emit(EventHeartbeat, hb)
		return
	}

	sc.emit(EventUnknownNotification, msg)
}

// handleData emits a copy of the entry, with its content decoded.
func (sc *StreamClient) handleData(msg Message) {
	service := msg.Service()

	event, ok := dataEvents[service]
	if !ok {
		sc.emit(EventUnknownData, msg)
		return
	}

	content, _ := Transform(service, msg.Content())

	out := make(Message, len(msg))
	for k, v := range msg {
		out[k] = v
	}
	out["content"] = content

	sc.emit(event, out)
}

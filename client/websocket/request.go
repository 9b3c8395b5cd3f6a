package websocket

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/sallewarkiran/tda-sdk-go/common"
)

// Parameters are the service-specific arguments of a request, e.g. "keys"
// and "fields" of a subscription.
type Parameters map[string]string

func (p Parameters) clone() Parameters {
	if p == nil {
		return nil
	}

	cp := make(Parameters, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// Request is a single request to the streamer. When passed to CreateRequest
// and friends, RequestID, Account and Source are normally left empty: they
// are then filled in from the session, and a fresh id is generated.
type Request struct {
	RequestID  string         `json:"requestid"`
	Account    string         `json:"account,omitempty"`
	Source     string         `json:"source,omitempty"`
	Service    common.Service `json:"service"`
	Command    common.Command `json:"command"`
	Parameters Parameters     `json:"parameters,omitempty"`
}

// RequestEnvelope is what actually goes over the wire: requests are always
// sent as a list, even if there's just one.
type RequestEnvelope struct {
	Requests []Request `json:"requests"`
}

// Marshal returns the JSON text of the envelope.
func (e RequestEnvelope) Marshal() ([]byte, error) {
	return marshalJSON(e)
}

// marshalJSON is json.Marshal without HTML escaping, so that e.g. the "&" of
// the login credential goes over the wire as is.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Trace(err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// requestBuilder resolves requests against a session.
type requestBuilder struct {
	session common.Session
	newID   func() string
}

func newRequestBuilder(session common.Session) requestBuilder {
	return requestBuilder{
		session: session,
		newID:   func() string { return uuid.New().String() },
	}
}

// build returns an envelope with one resolved request per given request, in
// the same order. Values set by the caller are kept; the given requests are
// not modified.
func (b requestBuilder) build(reqs ...Request) RequestEnvelope {
	env := RequestEnvelope{
		Requests: make([]Request, 0, len(reqs)),
	}

	for _, req := range reqs {
		if req.RequestID == "" {
			req.RequestID = b.newID()
		}

		if req.Account == "" {
			req.Account = b.session.AccountID
		}

		if req.Source == "" {
			req.Source = b.session.AppID
		}

		req.Parameters = req.Parameters.clone()

		env.Requests = append(env.Requests, req)
	}

	return env
}

package common

import (
	"time"
)

// Session carries the identity and credentials a stream connection needs to
// authenticate and address its requests. It is normally built from the
// user principals returned by the REST API (see rest.UserPrincipals.Session),
// and it's never modified by the stream client.
type Session struct {
	// UserID is the login id of the user ("userid" in the credential).
	UserID string

	// AccountID is sent as the "account" field of every request.
	AccountID string

	// AppID is sent as the "source" field of every request, and as "appid"
	// in the credential.
	AppID string

	// Token is the streamer token; TokenTimestamp is when it was issued.
	Token          string
	TokenTimestamp time.Time

	Company     string
	Segment     string
	CDDomainID  string
	UserGroup   string
	AccessLevel string
	ACL         string

	// StreamerHost is the host part of the stream endpoint, e.g.
	// "streamer-ws.tdameritrade.com".
	StreamerHost string

	// AccountActivityKey is the subscription key of the ACCT_ACTIVITY
	// service for this account.
	AccountActivityKey string
}

// StreamURL returns the websocket URL of the streamer.
func (s Session) StreamURL() string {
	return "wss://" + s.StreamerHost + "/ws"
}

package websocket

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sallewarkiran/tda-sdk-go/common"
)

// protocolVersion is sent as "version" of the login request.
const protocolVersion = "1.0"

// credentialKeys is the order of fields in the login credential; the
// streamer's parser depends on it.
var credentialKeys = []string{
	"userid",
	"token",
	"company",
	"segment",
	"cddomain",
	"usergroup",
	"accesslevel",
	"authorized",
	"timestamp",
	"appid",
	"acl",
}

// loginCredential returns the percent-encoded query string sent as the
// "credential" parameter of the login request.
func loginCredential(s common.Session) string {
	values := map[string]string{
		"userid":      s.UserID,
		"token":       s.Token,
		"company":     s.Company,
		"segment":     s.Segment,
		"cddomain":    s.CDDomainID,
		"usergroup":   s.UserGroup,
		"accesslevel": s.AccessLevel,
		"authorized":  "Y",
		"timestamp":   strconv.FormatInt(unixMillis(s.TokenTimestamp), 10),
		"appid":       s.AppID,
		"acl":         s.ACL,
	}

	parts := make([]string, 0, len(credentialKeys))
	for _, k := range credentialKeys {
		parts = append(parts, k+"="+escapeComponent(values[k]))
	}

	return strings.Join(parts, "&")
}

// escapeComponent percent-encodes s, with spaces as "%20" rather than "+".
func escapeComponent(s string) string {
	return strings.Replace(url.QueryEscape(s), "+", "%20", -1)
}

func unixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano() / int64(time.Millisecond)
}

func loginRequest(s common.Session) Request {
	return Request{
		Service: common.ServiceAdmin,
		Command: common.CommandLogin,
		Parameters: Parameters{
			"credential": loginCredential(s),
			"token":      s.Token,
			"version":    protocolVersion,
		},
	}
}

func logoutRequest() Request {
	return Request{
		Service: common.ServiceAdmin,
		Command: common.CommandLogout,
	}
}

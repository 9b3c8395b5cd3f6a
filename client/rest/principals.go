package rest

import (
	"context"
	"time"

	"github.com/juju/errors"

	"github.com/sallewarkiran/tda-sdk-go/common"
)

// tokenTimestampLayout is how streamerInfo.tokenTimestamp is formatted, e.g.
// "2020-07-10T14:00:00+0000".
const tokenTimestampLayout = "2006-01-02T15:04:05-0700"

var (
	ErrNoAccounts     = errors.New("user principals have no accounts")
	ErrNoStreamerInfo = errors.New("user principals have no streamer info")
)

// UserPrincipals describes the user, their accounts and how to connect to the
// streamer.
type UserPrincipals struct {
	UserID           string             `json:"userId"`
	PrimaryAccountID string             `json:"primaryAccountId"`
	Accounts         []PrincipalAccount `json:"accounts"`

	StreamerInfo             *StreamerInfo `json:"streamerInfo"`
	StreamerSubscriptionKeys struct {
		Keys []struct {
			Key string `json:"key"`
		} `json:"keys"`
	} `json:"streamerSubscriptionKeys"`
}

type PrincipalAccount struct {
	AccountID         string `json:"accountId"`
	DisplayName       string `json:"displayName"`
	AccountCdDomainID string `json:"accountCdDomainId"`
	Company           string `json:"company"`
	Segment           string `json:"segment"`
	ACL               string `json:"acl"`
}

type StreamerInfo struct {
	StreamerSocketURL string `json:"streamerSocketUrl"`
	Token             string `json:"token"`
	TokenTimestamp    string `json:"tokenTimestamp"`
	UserGroup         string `json:"userGroup"`
	AccessLevel       string `json:"accessLevel"`
	ACL               string `json:"acl"`
	AppID             string `json:"appId"`
}

// GetUserPrincipals returns the user principals, including the streamer info
// and subscription keys.
func (c *RESTClient) GetUserPrincipals(ctx context.Context) (*UserPrincipals, error) {
	var up UserPrincipals

	err := c.get(ctx, request{
		endpoint: "userprincipals",
		params: map[string]string{
			"fields": "streamerSubscriptionKeys,streamerConnectionInfo",
		},
	}, &up)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &up, nil
}

// Session builds the stream session of the primary account, or of the first
// one if there's no primary.
func (up *UserPrincipals) Session() (common.Session, error) {
	if len(up.Accounts) == 0 {
		return common.Session{}, errors.Trace(ErrNoAccounts)
	}

	if up.StreamerInfo == nil {
		return common.Session{}, errors.Trace(ErrNoStreamerInfo)
	}

	acc := up.Accounts[0]
	for _, a := range up.Accounts {
		if a.AccountID == up.PrimaryAccountID {
			acc = a
			break
		}
	}

	si := up.StreamerInfo

	var tokenTime time.Time
	if si.TokenTimestamp != "" {
		var err error
		tokenTime, err = time.Parse(tokenTimestampLayout, si.TokenTimestamp)
		if err != nil {
			return common.Session{}, errors.Annotatef(err, "parsing token timestamp %q", si.TokenTimestamp)
		}
	}

	var activityKey string
	if keys := up.StreamerSubscriptionKeys.Keys; len(keys) > 0 {
		activityKey = keys[0].Key
	}

	return common.Session{
		// The streamer wants the account id as "userid".
		UserID:             acc.AccountID,
		AccountID:          acc.AccountID,
		AppID:              si.AppID,
		Token:              si.Token,
		TokenTimestamp:     tokenTime,
		Company:            acc.Company,
		Segment:            acc.Segment,
		CDDomainID:         acc.AccountCdDomainID,
		UserGroup:          si.UserGroup,
		AccessLevel:        si.AccessLevel,
		ACL:                si.ACL,
		StreamerHost:       si.StreamerSocketURL,
		AccountActivityKey: activityKey,
	}, nil
}

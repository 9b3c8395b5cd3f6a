package rest

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sallewarkiran/tda-sdk-go/common"
)

const testUserPrincipals = `
{
  "userId": "user1",
  "userCdDomainId": "A000000012345678",
  "primaryAccountId": "123456789",
  "accounts": [
    {
      "accountId": "987654321",
      "displayName": "other",
      "accountCdDomainId": "A000000087654321",
      "company": "AMER",
      "segment": "AMER",
      "acl": "AKBP"
    },
    {
      "accountId": "123456789",
      "displayName": "main",
      "accountCdDomainId": "A000000012345678",
      "company": "AMER",
      "segment": "ADVNCED",
      "acl": "AKBPDRFSM1"
    }
  ],
  "streamerInfo": {
    "streamerBinaryUrl": "streamer-bin.tdameritrade.com",
    "streamerSocketUrl": "streamer-ws.tdameritrade.com",
    "token": "0123456789abcdef",
    "tokenTimestamp": "2020-07-10T14:00:00+0000",
    "userGroup": "ACCT",
    "accessLevel": "ACCT",
    "acl": "AKBPDRFSM1",
    "appId": "TESTAPP"
  },
  "streamerSubscriptionKeys": {
    "keys": [{"key": "activity-key-0123"}]
  }
}`

func TestGetUserPrincipals(t *testing.T) {
	h := newTestHarnessREST(t, getCheckURLQuery("/userprincipals", map[string]string{
		"fields": "streamerSubscriptionKeys,streamerConnectionInfo",
	}))
	defer h.close()

	var up *UserPrincipals

	h.runTestCases([]testCaseREST{
		{
			descr: "principals with streamer info",
			do: func(c *RESTClient) (interface{}, error) {
				var err error
				up, err = c.GetUserPrincipals(context.Background())
				if err != nil {
					return nil, errors.Trace(err)
				}
				return up.PrimaryAccountID, nil
			},
			resp:       testUserPrincipals,
			wantResult: "123456789",
		},
	})

	require.NotNil(t, up)

	session, err := up.Session()
	require.NoError(t, err)

	assert.Equal(t, common.Session{
		UserID:             "123456789",
		AccountID:          "123456789",
		AppID:              "TESTAPP",
		Token:              "0123456789abcdef",
		TokenTimestamp:     session.TokenTimestamp,
		Company:            "AMER",
		Segment:            "ADVNCED",
		CDDomainID:         "A000000012345678",
		UserGroup:          "ACCT",
		AccessLevel:        "ACCT",
		ACL:                "AKBPDRFSM1",
		StreamerHost:       "streamer-ws.tdameritrade.com",
		AccountActivityKey: "activity-key-0123",
	}, session)
	assert.True(t, time.Date(2020, 7, 10, 14, 0, 0, 0, time.UTC).Equal(session.TokenTimestamp))
	assert.Equal(t, "wss://streamer-ws.tdameritrade.com/ws", session.StreamURL())
}

func TestUserPrincipalsSession(t *testing.T) {
	_, err := (&UserPrincipals{}).Session()
	assert.Equal(t, ErrNoAccounts, errors.Cause(err))

	_, err = (&UserPrincipals{Accounts: []PrincipalAccount{{AccountID: "1"}}}).Session()
	assert.Equal(t, ErrNoStreamerInfo, errors.Cause(err))

	// No primary account: the first one is used.
	session, err := (&UserPrincipals{
		Accounts:     []PrincipalAccount{{AccountID: "1"}, {AccountID: "2"}},
		StreamerInfo: &StreamerInfo{Token: "t", StreamerSocketURL: "host"},
	}).Session()
	require.NoError(t, err)
	assert.Equal(t, "1", session.AccountID)
	assert.True(t, session.TokenTimestamp.IsZero())
	assert.Equal(t, "", session.AccountActivityKey)

	_, err = (&UserPrincipals{
		Accounts:     []PrincipalAccount{{AccountID: "1"}},
		StreamerInfo: &StreamerInfo{TokenTimestamp: "yesterday"},
	}).Session()
	assert.Error(t, err)
}

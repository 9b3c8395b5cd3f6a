package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sallewarkiran/tda-sdk-go/common"
)

func TestNewFromRaw(t *testing.T) {
	cfg, err := NewFromRaw([]byte(`
client_id: APP@AMER.OAUTHAP
access_token: token
account_id: "123456789"
qos: Fast
log_level: DEBUG
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "APP@AMER.OAUTHAP", cfg.ClientID)
	assert.Equal(t, "token", cfg.AccessToken)
	assert.Equal(t, "123456789", cfg.AccountID)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, "", cfg.StreamURL)
	assert.Equal(t, common.QOSFast, cfg.QOSLevel())
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())

	_, err = NewFromRaw([]byte("access_token: [oops"))
	assert.Error(t, err)
}

func TestNewFromFilename(t *testing.T) {
	name := filepath.Join(t.TempDir(), "config.yml")
	example := (&TDA{}).Example()
	require.NoError(t, os.WriteFile(name, []byte(example.String()), 0o600))

	cfg, err := New(name)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, example.AccessToken, cfg.AccessToken)
	assert.Equal(t, DefaultQOS, cfg.QOSLevel())
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())

	_, err = New(filepath.Join(t.TempDir(), "missing.yml"))
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		descr   string
		cfg     *TDA
		wantErr error
	}{
		{"nil config", nil, ErrNilConfig},
		{"no access token", &TDA{}, ErrEmptyAccessToken},
		{"ws api url", &TDA{AccessToken: "t", APIURL: "wss://api.example.com"}, ErrInvalidHTTPURL},
		{"http stream url", &TDA{AccessToken: "t", StreamURL: "https://streamer.example.com/ws"}, ErrInvalidWSURL},
		{"unknown qos", &TDA{AccessToken: "t", QOS: "ludicrous"}, ErrInvalidQOS},
		{"unknown log level", &TDA{AccessToken: "t", LogLevel: "chatty"}, ErrInvalidLogLevel},
		{"minimal", &TDA{AccessToken: "t"}, nil},
		{"everything", &TDA{
			AccessToken: "t",
			APIURL:      "http://localhost:8080/v1",
			StreamURL:   "ws://localhost:8081/ws",
			QOS:         "delayed",
			LogLevel:    "warn",
		}, nil},
	}

	for i, tc := range testCases {
		err := tc.cfg.Validate()
		assert.Equal(t, tc.wantErr, errors.Cause(err), "test case #%d (%s)", i, tc.descr)
	}
}

func TestValidateFunc(t *testing.T) {
	requireAccount := func(c *TDA) error {
		if c.AccountID == "" {
			return Error{Type: "config", What: "account_id", Why: "is empty", How: "specify an account_id"}
		}
		return nil
	}

	cfg := &TDA{AccessToken: "t"}
	err := cfg.ValidateFunc(ValidateTDADefault, requireAccount)
	assert.EqualError(t, errors.Cause(err), "invalid config: account_id - is empty. Possible fix: specify an account_id")

	cfg.AccountID = "1"
	assert.NoError(t, cfg.ValidateFunc(ValidateTDADefault, requireAccount))
}

func TestError(t *testing.T) {
	assert.Equal(t, "invalid config: config is nil. Possible fix: create and load config first", ErrNilConfig.Error())
	assert.Equal(t, "invalid config: access_token - is empty. Possible fix: specify an access_token", ErrEmptyAccessToken.Error())
}

func TestCheckURL(t *testing.T) {
	assert.NoError(t, CheckURL("wss://streamer-ws.example.com/ws", "ws", "wss"))
	assert.Equal(t, ErrInvalidScheme, CheckURL("ftp://example.com", "http", "https"))
	assert.Error(t, CheckURL("://", "http"))
}

func TestDefaultFilepath(t *testing.T) {
	t.Setenv("HOME", "/home/trader")

	p, err := DefaultFilepath()
	require.NoError(t, err)
	assert.Equal(t, "/home/trader/.tda/config.yml", p)
}

// Package config provides configuration for client apps based on the TDA SDK.
package config // import "github.com/sallewarkiran/tda-sdk-go/config"

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"github.com/sallewarkiran/tda-sdk-go/client/rest"
	"github.com/sallewarkiran/tda-sdk-go/common"
)

// Defaults used if one of the optional fields isn't specified.
const (
	DefaultAPIURL   = rest.DefaultURL
	DefaultQOS      = common.QOSExpress
	DefaultLogLevel = "info"

	Filepath = ".tda/config.yml"
)

// Various validation errors.
var (
	ErrNilConfig        = Error{Type: "config", Why: "config is nil", How: "create and load config first"}
	ErrEmptyAccessToken = Error{Type: "config", What: "access_token", Why: "is empty", How: "specify an access_token"}
	ErrInvalidHTTPURL   = Error{Type: "config", What: "api_url", Why: "wrong url", How: "URL must be a valid http or https url"}
	ErrInvalidWSURL     = Error{Type: "config", What: "stream_url", Why: "wrong url", How: "URL must be a valid ws or wss url"}
	ErrInvalidScheme    = Error{Type: "config", Why: "invalid scheme", How: "scheme must be http(s) or ws(s)"}
	ErrInvalidQOS       = Error{Type: "config", What: "qos", Why: "unknown level", How: "use one of express, realtime, fast, moderate, slow, delayed"}
	ErrInvalidLogLevel  = Error{Type: "config", What: "log_level", Why: "unknown level", How: "use one of debug, info, warn, error"}
)

// TDA holds the configuration.
type TDA struct {
	mu          sync.Mutex `yaml:"-"` // protects the fields below
	ClientID    string     `yaml:"client_id"`
	AccessToken string     `yaml:"access_token"`
	AccountID   string     `yaml:"account_id,omitempty"`
	APIURL      string     `yaml:"api_url"`
	StreamURL   string     `yaml:"stream_url,omitempty"`
	QOS         string     `yaml:"qos"`
	LogLevel    string     `yaml:"log_level"`
}

// New creates a new TDA from a file by the given name.
func New(name string) (*TDA, error) {
	return NewFromFilename(name)
}

// NewFromFilename creates a new TDA from a file by the given filename.
func NewFromFilename(filename string) (*TDA, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return NewFromRaw(data)
}

// NewFromRaw creates a new TDA by unmarshaling the given raw data.
func NewFromRaw(raw []byte) (*TDA, error) {
	cfg := &TDA{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Trace(err)
	}

	return cfg, nil
}

// ValidateFunc validates the config by applying each of given vfs to it.
func (c *TDA) ValidateFunc(vfs ...ValidateFuncTDA) error {
	if c == nil {
		return ErrNilConfig
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range vfs {
		if err := f(c); err != nil {
			return errors.Trace(err)
		}
	}

	return nil
}

// Validate validates the config by applying ValidateTDADefault.
func (c *TDA) Validate() error {
	return c.ValidateFunc(ValidateTDADefault)
}

// QOSLevel returns the configured stream QOS level. Call it on a validated
// config.
func (c *TDA) QOSLevel() common.QOSLevel {
	c.mu.Lock()
	defer c.mu.Unlock()

	return common.QOSLevel(c.QOS)
}

// Level returns the configured log level, falling back to info.
func (c *TDA) Level() zerolog.Level {
	c.mu.Lock()
	defer c.mu.Unlock()

	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}

	return lvl
}

func (c *TDA) Example() *TDA {
	tda := &TDA{}

	tda.ClientID = "EXAMPLE@AMER.OAUTHAP"
	tda.AccessToken = "example_access_token"
	tda.APIURL = DefaultAPIURL
	tda.QOS = string(DefaultQOS)
	tda.LogLevel = DefaultLogLevel

	return tda
}

// String can't be defined on a value receiver here because of the mutex.
func (c *TDA) String() string {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}

	return string(raw)
}

// DefaultFilepath determines and returns default config path.
// It can return an error if detecting the user's home directory has failed.
func DefaultFilepath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Trace(err)
	}

	return filepath.Join(home, Filepath), nil
}

// Error holds details about an error occurred during validation process.
type Error struct {
	Type string
	What string
	Why  string
	How  string
}

func (e Error) Error() string {
	if e.What == "" {
		return fmt.Sprintf("invalid %s: %s. Possible fix: %s", e.Type, e.Why, e.How)
	}

	return fmt.Sprintf("invalid %s: %s - %s. Possible fix: %s", e.Type, e.What, e.Why, e.How)
}

// ValidateFuncTDA takes an instance of TDA and returns an error if any occurred during validation process.
type ValidateFuncTDA func(*TDA) error

// CheckURL checks that the url has the correct scheme.
func CheckURL(given string, schemes ...string) error {
	u, err := url.Parse(given)
	if err != nil {
		return errors.Trace(err)
	}

	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}

	return ErrInvalidScheme
}

// ValidateTDADefault performs validation of the given config by checking all the fields for correctness.
// It sets default values for the api url, qos and log level if they weren't specified.
// The stream url is optional since it normally comes from the user principals.
func ValidateTDADefault(c *TDA) error {
	if c.AccessToken == "" {
		return ErrEmptyAccessToken
	}

	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	} else {
		if err := CheckURL(c.APIURL, "http", "https"); err != nil {
			return ErrInvalidHTTPURL
		}
	}

	if c.StreamURL != "" {
		if err := CheckURL(c.StreamURL, "ws", "wss"); err != nil {
			return ErrInvalidWSURL
		}
	}

	if c.QOS == "" {
		c.QOS = string(DefaultQOS)
	} else {
		l, err := common.ParseQOSLevel(c.QOS)
		if err != nil {
			return ErrInvalidQOS
		}
		c.QOS = string(l)
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	} else {
		c.LogLevel = strings.ToLower(c.LogLevel)
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return ErrInvalidLogLevel
		}
	}

	return nil
}

/*
Package rest provides a client for the parts of the TD Ameritrade REST API
the SDK needs: user principals (which the stream session is built from),
accounts, quotes, price history, orders and watchlists.

Getting and refreshing the OAuth access token is up to the caller; the
client just asks RESTClientParams.AccessToken for one before each request.
*/
package rest // import "github.com/sallewarkiran/tda-sdk-go/client/rest"

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/juju/errors"

	"github.com/sallewarkiran/tda-sdk-go/version"
)

const (
	DefaultURL = "https://api.tdameritrade.com/v1"
)

var (
	ErrNoAccessToken = errors.New("no access token func")
)

// RESTClientParams contains params for NewRESTClient.
type RESTClientParams struct {
	// URL is the API URL; DefaultURL is used if empty.
	URL string

	// AccessToken returns the OAuth access token to send with each request.
	AccessToken func() (string, error)

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// RESTClient is a TD Ameritrade REST API client.
type RESTClient struct {
	params     RESTClientParams
	baseURLStr string
	userAgent  string
}

// NewRESTClient creates a client with the given params.
func NewRESTClient(params *RESTClientParams) *RESTClient {
	if params == nil {
		params = &RESTClientParams{}
	}

	c := &RESTClient{
		params:    *params,
		userAgent: fmt.Sprintf("tda-sdk-go@%s", version.Version),
	}

	if c.params.URL == "" {
		c.params.URL = DefaultURL
	}
	c.baseURLStr = strings.TrimRight(c.params.URL, "/")

	if c.params.HTTPClient == nil {
		c.params.HTTPClient = http.DefaultClient
	}

	return c
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

type request struct {
	method string
	// endpoint is relative to the API URL, without the leading slash.
	endpoint string
	params   map[string]string
	// body, if not nil, is sent as JSON.
	body interface{}
}

type response struct {
	body   []byte
	header http.Header
}

func (c *RESTClient) do(ctx context.Context, req request) (*response, error) {
	if c.params.AccessToken == nil {
		return nil, errors.Trace(ErrNoAccessToken)
	}

	token, err := c.params.AccessToken()
	if err != nil {
		return nil, errors.Annotatef(err, "getting access token")
	}

	u, err := url.Parse(fmt.Sprintf("%s/%s", c.baseURLStr, req.endpoint))
	if err != nil {
		return nil, errors.Trace(err)
	}

	if len(req.params) > 0 {
		q := u.Query()
		for k, v := range req.params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	method := req.method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, errors.Trace(err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Trace(err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.params.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	return &response{body: data, header: resp.Header}, nil
}

// errorMessage extracts the message of an error response, which is
// {"error": "..."} most of the time.
func errorMessage(data []byte) string {
	var res struct {
		Error string `json:"error"`
	}

	if err := json.Unmarshal(data, &res); err == nil && res.Error != "" {
		return res.Error
	}

	return strings.TrimSpace(string(data))
}

func (c *RESTClient) get(ctx context.Context, req request, v interface{}) error {
	resp, err := c.do(ctx, req)
	if err != nil {
		return errors.Trace(err)
	}

	if err := json.Unmarshal(resp.body, v); err != nil {
		return errors.Annotatef(err, "decoding %s", req.endpoint)
	}

	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/sallewarkiran/tda-sdk-go/client/websocket"
	"github.com/sallewarkiran/tda-sdk-go/common"
)

// subsFlag collects --sub values of the form SERVICE:SYM1,SYM2 into
// subscription requests. It implements pflag.Value.
type subsFlag []websocket.Request

func (sf *subsFlag) String() string {
	parts := make([]string, 0, len(*sf))
	for _, req := range *sf {
		parts = append(parts, fmt.Sprintf("%s:%s", req.Service, req.Parameters["keys"]))
	}

	return "[" + strings.Join(parts, " ") + "]"
}

func (sf *subsFlag) Set(value string) error {
	req, err := parseSub(value)
	if err != nil {
		return errors.Trace(err)
	}

	*sf = append(*sf, req)
	return nil
}

func (sf *subsFlag) Type() string {
	return "SERVICE:SYMBOLS"
}

// parseSub parses a single subscription. The symbols can be omitted only for
// ACCT_ACTIVITY, whose key comes from the session.
func parseSub(value string) (websocket.Request, error) {
	name, symbols, _ := strings.Cut(value, ":")

	service := common.Service(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := common.FieldsFor(service); !ok || service == common.ServiceChartHistoryFutures {
		return websocket.Request{}, errors.Errorf("unknown service %q", name)
	}

	keys := make([]string, 0)
	for _, s := range strings.Split(symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			keys = append(keys, s)
		}
	}

	if len(keys) == 0 && service != common.ServiceAccountActivity {
		return websocket.Request{}, errors.Errorf("no symbols given for %s", service)
	}

	req := websocket.Request{Service: service}
	if len(keys) > 0 {
		req.Parameters = websocket.Parameters{"keys": strings.Join(keys, ",")}
	}

	return req, nil
}

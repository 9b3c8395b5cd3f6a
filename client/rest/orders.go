package rest

import (
	"context"
	"net/http"
	"path"
	"strconv"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrNoOrderID = errors.New("order was placed, but the response has no order id")
)

// Order is both what PlaceOrder sends and what GetOrders returns; the
// read-only fields (OrderID, Status, ...) are ignored by the server on
// placing.
type Order struct {
	OrderType         string           `json:"orderType"`
	Session           string           `json:"session"`
	Duration          string           `json:"duration"`
	OrderStrategyType string           `json:"orderStrategyType"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	StopPrice         *decimal.Decimal `json:"stopPrice,omitempty"`
	Legs              []OrderLeg       `json:"orderLegCollection"`

	OrderID           int64            `json:"orderId,omitempty"`
	AccountID         int64            `json:"accountId,omitempty"`
	Status            string           `json:"status,omitempty"`
	StatusDescription string           `json:"statusDescription,omitempty"`
	EnteredTime       string           `json:"enteredTime,omitempty"`
	FilledQuantity    *decimal.Decimal `json:"filledQuantity,omitempty"`
	Cancelable        bool             `json:"cancelable,omitempty"`
}

type OrderLeg struct {
	Instruction string          `json:"instruction"`
	Quantity    decimal.Decimal `json:"quantity"`
	Instrument  Instrument      `json:"instrument"`
}

// GetOrders returns recent orders of the account.
func (c *RESTClient) GetOrders(ctx context.Context, accountID string) ([]Order, error) {
	var orders []Order

	err := c.get(ctx, request{
		endpoint: "accounts/" + accountID + "/orders",
	}, &orders)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return orders, nil
}

// PlaceOrder places the order and returns its id, which the server gives in
// the Location header.
func (c *RESTClient) PlaceOrder(ctx context.Context, accountID string, order Order) (string, error) {
	resp, err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "accounts/" + accountID + "/orders",
		body:     order,
	})
	if err != nil {
		return "", errors.Trace(err)
	}

	loc := resp.header.Get("Location")
	if loc == "" {
		return "", errors.Trace(ErrNoOrderID)
	}

	id := path.Base(loc)
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return "", errors.Annotatef(ErrNoOrderID, "location %q", loc)
	}

	return id, nil
}

// CancelOrder cancels a working order.
func (c *RESTClient) CancelOrder(ctx context.Context, accountID, orderID string) error {
	_, err := c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "accounts/" + accountID + "/orders/" + orderID,
	})

	return errors.Trace(err)
}

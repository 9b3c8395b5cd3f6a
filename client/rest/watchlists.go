package rest

import (
	"context"

	"github.com/juju/errors"
)

type Watchlist struct {
	Name        string          `json:"name"`
	WatchlistID string          `json:"watchlistId"`
	AccountID   string          `json:"accountId"`
	Items       []WatchlistItem `json:"watchlistItems"`
}

type WatchlistItem struct {
	SequenceID int        `json:"sequenceId"`
	Instrument Instrument `json:"instrument"`
}

// Symbols returns symbols of the watchlist items, in order.
func (w Watchlist) Symbols() []string {
	symbols := make([]string, 0, len(w.Items))
	for _, item := range w.Items {
		symbols = append(symbols, item.Instrument.Symbol)
	}
	return symbols
}

// GetWatchlists returns the watchlists of the account.
func (c *RESTClient) GetWatchlists(ctx context.Context, accountID string) ([]Watchlist, error) {
	var res []Watchlist

	err := c.get(ctx, request{
		endpoint: "accounts/" + accountID + "/watchlists",
	}, &res)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return res, nil
}

/*
Package tda is a client SDK for the TD Ameritrade API. The API consists of
two separate back ends: a REST API for accounts, orders and market data, and
a websocket streamer for real-time data. Each has its own client in this
module: rest.RESTClient and websocket.StreamClient.

Authentication

The SDK doesn't implement the OAuth flow. Both clients need a valid access
token, which you obtain and refresh yourself; RESTClientParams.AccessToken is
called before each request so that a refreshed token is picked up.

The streamer doesn't take the access token directly. Fetch the user
principals over REST and turn them into a streamer session:

	restClient := rest.NewRESTClient(&rest.RESTClientParams{
		AccessToken: func() (string, error) { return token, nil },
	})

	principals, err := restClient.GetUserPrincipals(ctx)
	if err != nil {
		// handle
	}

	session, err := principals.Session()
	if err != nil {
		// handle
	}

Streaming

Create a stream client for the session, register listeners, and connect.
Subscriptions are only accepted once the streamer has accepted the login,
so the usual place to subscribe is a listener of the authenticated state:

	c, err := websocket.NewStreamClient(&websocket.StreamClientParams{
		Session: session,
	})
	if err != nil {
		// handle
	}

	c.On(websocket.ConnStateAuthenticated.Event(), func(interface{}) {
		c.SubscribeLevelOneEquity([]string{"SPY", "QQQ"})
	})

	c.On(websocket.EventLevelOneEquity, func(payload interface{}) {
		msg := payload.(websocket.Message)
		for _, rec := range msg.Content() {
			fmt.Println(rec["key"], rec["lastPrice"])
		}
	})

	if err := c.Connect(); err != nil {
		// handle
	}

Data arrives with positional field indices, and is emitted with the indices
already replaced by field names (see the FieldMaps in package common). Level
one services only send the fields which have changed; package cache merges
them into full records.

Disconnecting

Disconnect logs out and closes the websocket after a grace period, unless
DisconnectOpt.Force is given. A client which has been disconnected can't be
connected again: create a new one.

	c.Disconnect(websocket.DisconnectOpt{})
*/
package tda // import "github.com/sallewarkiran/tda-sdk-go"

/*
This is a simple app that logs in to the streamer, subscribes to and
prints updates for a given list of subscriptions.

Example:

	stream-client -s QUOTE:SPY,QQQ -s CHART_EQUITY:SPY -s ACCT_ACTIVITY
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/sallewarkiran/tda-sdk-go/client/rest"
	"github.com/sallewarkiran/tda-sdk-go/client/websocket"
	"github.com/sallewarkiran/tda-sdk-go/common"
	"github.com/sallewarkiran/tda-sdk-go/config"
)

// dataEvents are the events the app prints.
var dataEvents = []string{
	websocket.EventAccountActivity,
	websocket.EventChart,
	websocket.EventNewsHeadline,
	websocket.EventTimeSale,
	websocket.EventLevelOneEquity,
	websocket.EventLevelOneFutures,
	websocket.EventLevelOneOption,
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// We need this since getting user's home dir can fail.
	defaultConfig, err := config.DefaultFilepath()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to find the config")
	}

	var (
		configFile string
		verbose    bool
		dump       bool
		qos        string
		subs       subsFlag
	)

	flag.StringVarP(&configFile, "config", "c", defaultConfig, "Configuration file")
	flag.BoolVarP(&verbose, "verbose", "v", false, "Prints all debug messages to stderr")
	flag.BoolVar(&dump, "dump", false, "Dumps each data message as is")
	flag.StringVar(&qos, "qos", "", "QOS level, overrides the one from the config")
	flag.VarP(&subs, "sub", "s", "Subscription, e.g. QUOTE:SPY,QQQ. This flag can be given multiple times")

	flag.Parse()

	if len(subs) == 0 {
		log.Fatal().Msg("At least one subscription must be specified")
	}

	cfg, err := config.New(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load the config")
	}

	if qos != "" {
		cfg.QOS = qos
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	log = log.Level(cfg.Level())
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	restClient := rest.NewRESTClient(&rest.RESTClientParams{
		URL: cfg.APIURL,
		AccessToken: func() (string, error) {
			return cfg.AccessToken, nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	principals, err := restClient.GetUserPrincipals(ctx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get user principals")
	}

	session, err := principals.Session()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get the streamer session")
	}

	if cfg.AccountID != "" {
		session.AccountID = cfg.AccountID
	}

	for i, req := range subs {
		if req.Service == common.ServiceAccountActivity && req.Parameters == nil {
			subs[i].Parameters = websocket.Parameters{"keys": session.AccountActivityKey}
		}
	}

	// Setup the stream connection (but don't connect just yet).
	c, err := websocket.NewStreamClient(&websocket.StreamClientParams{
		Session: session,
		URL:     cfg.StreamURL,
		Logger:  &log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create the stream client")
	}

	signals := make(chan os.Signal, 1)
	done := make(chan struct{})

	c.On(websocket.ConnStateAuthenticated.Event(), func(interface{}) {
		log.Info().Str("url", c.URL()).Msg("Logged in")

		if _, err := c.SetQOS(cfg.QOSLevel()); err != nil {
			log.Error().Err(err).Msg("Failed to set QOS")
		}

		if _, err := c.Subscribe(subs...); err != nil {
			log.Error().Err(err).Msg("Failed to subscribe")
		}
	})

	c.Once(websocket.ConnStateDisconnected.Event(), func(interface{}) {
		close(done)
	})

	c.On(websocket.EventAuthenticationFailed, func(payload interface{}) {
		log.Error().Interface("response", payload).Msg("Login rejected")
		select {
		case signals <- syscall.SIGTERM:
		default:
		}
	})

	c.On(websocket.EventConnectionRefused, func(payload interface{}) {
		log.Error().Interface("error", payload).Msg("Connection refused")
	})

	for _, event := range []string{websocket.EventSubs, websocket.EventUnsubs, websocket.EventUnknownError} {
		event := event
		c.On(event, func(payload interface{}) {
			msg := payload.(websocket.Message)
			log.Info().Str("event", event).Str("service", msg.Service().String()).
				Interface("content", msg.ResponseContent()).Msg("Subscription result")
		})
	}

	if verbose {
		c.On(websocket.EventHeartbeat, func(payload interface{}) {
			log.Debug().Interface("heartbeat", payload).Msg("Heartbeat")
		})
	}

	for _, event := range dataEvents {
		c.On(event, func(payload interface{}) {
			msg := payload.(websocket.Message)
			if dump {
				spew.Dump(msg)
				return
			}

			printData(msg)
		})
	}

	log.Debug().Str("url", c.URL()).Msg("Connecting")

	// Finally, connect.
	if err := c.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect")
	}

	signal.Notify(signals, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case <-signals:
	case <-done:
		log.Fatal().Msg("Connection closed")
	}

	log.Info().Msg("Logging out...")

	if err := c.Disconnect(websocket.DisconnectOpt{}); err != nil {
		log.Error().Err(err).Msg("Failed to log out")
	}

	// A second signal doesn't wait for the logout to be flushed.
	select {
	case <-done:
	case <-signals:
		c.Disconnect(websocket.DisconnectOpt{Force: true})
		<-done
	}
}

// printData prints each record of a data message on its own line.
func printData(msg websocket.Message) {
	for _, rec := range msg.Content() {
		names := make([]string, 0, len(rec))
		for name := range rec {
			if name != "key" {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		fields := make([]string, 0, len(names))
		for _, name := range names {
			fields = append(fields, fmt.Sprintf("%s=%v", color.MagentaString(name), rec[name]))
		}

		fmt.Printf(
			"%s %s %s\n",
			color.CyanString("%-16s", msg.Service()),
			color.YellowString("%-8v", rec["key"]),
			strings.Join(fields, " "),
		)
	}
}

// Package version holds the SDK version, sent as part of the REST user agent.
package version // import "github.com/sallewarkiran/tda-sdk-go/version"

const Version = "0.3.0"

// Package app assembles the dashboard server: configuration, logging,
// metrics, the websocket hub, the dataset service and the chi router with
// its middleware chain. cmd/web is a thin wrapper around this package.
package app

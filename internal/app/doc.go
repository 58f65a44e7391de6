// Package app wires the dashboard server: configuration, logging,
// OpenTelemetry, the run store, event publishers, the report exporter, the
// HTTP router and the websocket session hub.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, config.yaml, BIZDASH_* environment)
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Open the SQLite run store when enabled
//	4. Start the websocket hub and the AMQP publisher when enabled
//	5. Build the dashboard and health services
//	6. Set up middleware and routes, then create the HTTP server
//
// Optional backends that fail to start (broker, Google Sheets) are logged and
// their feature is reported as disabled by /healthz. A run store that fails
// to open is fatal because it was explicitly enabled.
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down, closes
// websocket sessions and releases the store, browser and telemetry providers.
package app

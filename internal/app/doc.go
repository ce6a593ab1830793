// Package app is the gateway's composition root. It loads the configuration,
// sets up logging and wires the session store, token refresher, validator,
// reverse proxy, metrics and HTTP server together.
package app

// Package rbtvapi is a thin client for the Rocket Beans TV REST API. It
// flattens paginated endpoints into full result lists and exposes typed
// HTTP errors so callers can react to specific upstream status codes.
package rbtvapi

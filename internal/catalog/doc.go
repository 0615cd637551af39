// Package catalog defines the Rocket Beans TV content graph model and the
// query contract shared by the live and local backends.
package catalog

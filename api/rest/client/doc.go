// Package client implements the HTTP clients used between nodes: the
// broker's worker client and a client for the broker's own API.
package client

// Package orderbook implements the in-memory limit order matching core.
//
// Each symbol has a Book with two red-black price indexes, bids ordered
// highest first and asks lowest first. Every price level is a FIFO of
// order ids; the orders themselves live in a Registry keyed by id. The
// Engine runs INSERT, AMEND and PULL against that state under price-time
// priority and reports the resulting trades.
//
// The package is single-writer and does no I/O.
package orderbook

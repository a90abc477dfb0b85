// Package exit is the outbound side of the matcher: a pebble-backed
// outbox holding every trade event until a broadcaster has delivered it.
package exit

// Package broadcaster implements the background job that drains the trade
// outbox into Kafka. Every pending record is marked SENT before the send
// and ACKED after the broker confirms it; failed sends are marked FAILED
// and picked up again on the next pass.
package broadcaster

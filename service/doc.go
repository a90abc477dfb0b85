// Package service is the single write entry point of the matcher. It
// serializes commands onto one matching engine and fans the results out
// to the command journal, the trade outbox, metrics and the logger.
//
// Transports (the batch CLI, gRPC) depend on this package, never on the
// engine directly.
package service

// Package gateway runs the TCP accept loop and drives each connection
// through exactly one ingest exchange.
//
// Exchange states:
// - await: read one framed line within the read timeout
// - decoded: envelope parsed, request id resolved ("unknown" when absent)
// - dispatched: ingest_request validated, any other type answered with an error envelope
// - responded: one response envelope written
// - closed: the connection is always closed afterwards
package gateway

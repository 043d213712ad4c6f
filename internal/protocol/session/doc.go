// Package session owns the transport side of one ingestion exchange.
//
// Ownership boundary:
// - per-connection read/write deadlines
// - envelope read/write over the line framing
// - tls listener/dialer configuration
//
// One connection carries exactly one request and one response.
package session

// Package protocol owns the ingestion wire contract.
//
// Ownership boundary:
// - line framing primitives (frame)
// - envelope codec (envelope)
// - per-connection exchange transport: deadlines, tls, timeouts (session)
//
// Every message is one line of compact UTF-8 JSON terminated by a single '\n'.
// There is no length prefix; the only flow control is MaxMessageBytes.
package protocol

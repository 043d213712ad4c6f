package protocol

// Version is the literal envelope version tag.
const Version = "v1"

// DefaultMaxMessageBytes bounds unterminated bytes buffered for one message.
const DefaultMaxMessageBytes = 1 << 20

// Envelope type tags understood by this service.
const (
	MsgIngestRequest  = "ingest_request"
	MsgIngestResponse = "ingest_response"
	MsgError          = "error"
)

// UnknownRequestID labels exchanges whose peer supplied no request id.
const UnknownRequestID = "unknown"

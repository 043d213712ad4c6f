package session

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol/envelope"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol/frame"
)

var ErrWriteTimeout = errors.New("session: write timeout")

// Exchange carries one request/response pair over a connection.
// It owns the connection's framing reader and applies per-operation deadlines.
type Exchange struct {
	conn   net.Conn
	reader *frame.Reader
	cfg    Config
}

func NewExchange(conn net.Conn, cfg Config) *Exchange {
	cfg = cfg.WithDefaults()
	return &Exchange{
		conn:   conn,
		reader: frame.NewReader(conn, cfg.Limits()),
		cfg:    cfg,
	}
}

// ReadLine waits up to ReadTimeout for the next framed line.
func (e *Exchange) ReadLine() (string, error) {
	if err := e.conn.SetReadDeadline(time.Now().Add(e.cfg.ReadTimeout)); err != nil {
		return "", err
	}
	return e.reader.ReadLine()
}

// ReadEnvelope reads and decodes the next line.
func (e *Exchange) ReadEnvelope() (envelope.Envelope, error) {
	line, err := e.ReadLine()
	if err != nil {
		return envelope.Envelope{}, err
	}
	return envelope.Decode(line)
}

// WriteEnvelope encodes env and writes it as one line within WriteTimeout.
func (e *Exchange) WriteEnvelope(env envelope.Envelope) error {
	line, err := envelope.Encode(env)
	if err != nil {
		return err
	}
	if err := e.conn.SetWriteDeadline(time.Now().Add(e.cfg.WriteTimeout)); err != nil {
		return err
	}
	if err := frame.WriteLine(e.conn, line, e.cfg.Limits()); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrWriteTimeout, err)
		}
		return err
	}
	return nil
}

func (e *Exchange) Close() error {
	return e.conn.Close()
}

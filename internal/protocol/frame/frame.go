package frame

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"unicode/utf8"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol"
)

const readChunkSize = 4096

var (
	ErrMessageTooLarge = errors.New("frame: message too large")
	ErrTimeout         = errors.New("frame: read timeout")
	ErrInvalidEncoding = errors.New("frame: line is not valid utf-8")
	ErrEmbeddedNewline = errors.New("frame: line contains embedded newline")
)

// Limits constrains per-connection buffering.
type Limits struct {
	MaxMessageBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxMessageBytes: protocol.DefaultMaxMessageBytes}
}

// WithDefaults fills unset limits.
func (l Limits) WithDefaults() Limits {
	if l.MaxMessageBytes <= 0 {
		l.MaxMessageBytes = protocol.DefaultMaxMessageBytes
	}
	return l
}

// Reader extracts newline-terminated messages from a byte stream.
// One Reader belongs to exactly one connection.
type Reader struct {
	src    io.Reader
	buf    []byte
	limits Limits
	eof    bool
}

func NewReader(src io.Reader, limits Limits) *Reader {
	return &Reader{
		src:    src,
		buf:    make([]byte, 0, readChunkSize),
		limits: limits.WithDefaults(),
	}
}

// Buffered reports how many unconsumed bytes are held.
func (r *Reader) Buffered() int {
	return len(r.buf)
}

// ReadLine returns the next line without its terminating newline.
//
// An unterminated remainder is returned as a final line once the peer closes.
// io.EOF means the stream ended with nothing buffered.
func (r *Reader) ReadLine() (string, error) {
	chunk := make([]byte, readChunkSize)
	for {
		if i := bytes.IndexByte(r.buf, '\n'); i >= 0 {
			line := r.buf[:i]
			out, err := decodeLine(line)
			r.buf = r.buf[:copy(r.buf, r.buf[i+1:])]
			return out, err
		}

		if r.eof {
			return r.drain()
		}

		n, err := r.src.Read(chunk)
		if n > 0 {
			r.buf = append(r.buf, chunk[:n]...)
			if len(r.buf) > r.limits.MaxMessageBytes {
				return "", fmt.Errorf("%w: buffered %d bytes, limit %d", ErrMessageTooLarge, len(r.buf), r.limits.MaxMessageBytes)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.eof = true
				continue
			}
			if isTimeout(err) {
				return "", fmt.Errorf("%w: %v", ErrTimeout, err)
			}
			return "", err
		}
		if n == 0 {
			// io.Reader may return 0, nil; treat it like a closed peer.
			r.eof = true
		}
	}
}

func (r *Reader) drain() (string, error) {
	if len(r.buf) == 0 {
		return "", io.EOF
	}
	line := r.buf
	r.buf = r.buf[:0]
	return decodeLine(line)
}

func decodeLine(line []byte) (string, error) {
	if !utf8.Valid(line) {
		return "", ErrInvalidEncoding
	}
	return string(line), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// WriteLine writes one message, appending the terminating newline if missing.
func WriteLine(w io.Writer, line []byte, limits Limits) error {
	limits = limits.WithDefaults()
	body := bytes.TrimSuffix(line, []byte{'\n'})
	if bytes.IndexByte(body, '\n') >= 0 {
		return ErrEmbeddedNewline
	}
	if len(body) > limits.MaxMessageBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooLarge, len(body), limits.MaxMessageBytes)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, body...)
	out = append(out, '\n')
	_, err := w.Write(out)
	return err
}

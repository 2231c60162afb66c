package codec

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tuannm99/recordset/internal/alias/bx"
	"github.com/tuannm99/recordset/internal/record"
)

// ChunkSize is how much ByteSource asks the transport for per pull.
const ChunkSize = 4096

// maxEmptyReads bounds consecutive (0, nil) reads from a misbehaving transport.
const maxEmptyReads = 100

// ByteSource buffers a transport so the decoder does not issue a read call
// per primitive. len(data)-pos is always the number of unread bytes.
type ByteSource struct {
	r       io.Reader
	data    []byte
	pos     int
	scratch [ChunkSize]byte
}

func NewByteSource(r io.Reader) *ByteSource {
	return &ByteSource{r: r}
}

func (s *ByteSource) Available() int { return len(s.data) - s.pos }

// Bytes returns the unread bytes without consuming them.
func (s *ByteSource) Bytes() []byte { return s.data[s.pos:] }

func (s *ByteSource) IncPosition(k int) { s.pos += k }

// Prepare pulls chunks until at least n unread bytes are buffered. It returns
// n on success, or the smaller available count once the transport is
// exhausted. An exhausted transport is closed and never read again. Each
// growth allocates a new buffer sized to the unread suffix plus the chunk.
func (s *ByteSource) Prepare(n int) (int, error) {
	empty := 0
	for s.Available() < n {
		if s.r == nil {
			return s.Available(), nil
		}

		m, err := s.r.Read(s.scratch[:])
		if m > 0 {
			empty = 0
			avail := s.Available()
			grown := make([]byte, avail+m)
			copy(grown, s.data[s.pos:])
			copy(grown[avail:], s.scratch[:m])
			s.data, s.pos = grown, 0
		}

		switch {
		case err == io.EOF:
			s.release()
		case err != nil:
			return s.Available(), fmt.Errorf("codec: read transport: %w", err)
		case m == 0:
			empty++
			if empty >= maxEmptyReads {
				return s.Available(), io.ErrNoProgress
			}
		}
	}
	return n, nil
}

// Close releases the transport. Safe to call more than once.
func (s *ByteSource) Close() error {
	s.release()
	return nil
}

func (s *ByteSource) release() {
	if s.r == nil {
		return
	}
	if c, ok := s.r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("codec: close transport", "err", err)
		}
	}
	s.r = nil
}

// take consumes exactly n bytes or fails with ErrMalformedStream.
func (s *ByteSource) take(n int) ([]byte, error) {
	got, err := s.Prepare(n)
	if err != nil {
		return nil, err
	}
	if got < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", record.ErrMalformedStream, n, got)
	}
	b := s.data[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

// takePrefixed consumes a 4-byte signed length and that many bytes.
func (s *ByteSource) takePrefixed() ([]byte, error) {
	b, err := s.take(4)
	if err != nil {
		return nil, err
	}
	l := bx.I32(b)
	if l < 0 {
		return nil, fmt.Errorf("%w: negative length %d", record.ErrMalformedStream, l)
	}
	return s.take(int(l))
}

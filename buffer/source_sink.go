package buffer

import "io"

// Source is the streaming read contract: move up to byteCount bytes into
// sink, in arrival order, and report exactly how many were moved. Any
// genuine read always moves at least one byte or reports exhaustion.
//
// Read returns -1 when the source is exhausted and no further bytes will
// ever arrive. The Sources in this module also return -1 whenever
// byteCount is 0, whether or not the source is at EOF. See DESIGN.md for
// why this module keeps that convention instead of the more common
// "return 0" one.
type Source interface {
	Read(sink *Buffer, byteCount int64) (int64, error)
	Timeout() Timeout
	Close() error
}

// Sink is the streaming write contract: move exactly byteCount bytes from
// source into the sink. On partial failure the sink is left in an
// unspecified but valid state and an error is returned.
type Sink interface {
	Write(source *Buffer, byteCount int64) error
	Flush() error
	Timeout() Timeout
	Close() error
}

// readerSource adapts a plain io.Reader to Source. One call to Read pulls
// at most one underlying Read([]byte) worth of bytes, sized to whatever
// writable segment capacity sink currently offers — this is the "Stream
// adapter boundary" of the design, letting any *os.File or net.Conn act as
// a Source without a bespoke shim.
type readerSource struct {
	r   io.Reader
	rc  io.Closer
	to  Timeout
	eof bool
}

// FromReader wraps r as a Source. If r also implements io.Closer, Close
// delegates to it; otherwise Close is a no-op.
func FromReader(r io.Reader) Source {
	rc, _ := r.(io.Closer)

	return &readerSource{r: r, rc: rc}
}

func (s *readerSource) Read(sink *Buffer, byteCount int64) (int64, error) {
	if s.eof || byteCount == 0 {
		return -1, nil
	}

	if byteCount < 0 {
		return 0, ErrOutOfRange
	}

	seg := sink.writableSegment(1)

	want := int64(len(seg.Data) - seg.Limit)
	if want > byteCount {
		want = byteCount
	}

	n, err := s.r.Read(seg.Data[seg.Limit : seg.Limit+int(want)])
	if n > 0 {
		seg.Limit += n
		sink.size += int64(n)
	}

	if err != nil {
		if err == io.EOF { //nolint:errorlint
			s.eof = true
		} else {
			return int64(n), err
		}
	}

	if n == 0 {
		s.eof = true

		return -1, nil
	}

	return int64(n), nil
}

func (s *readerSource) Timeout() Timeout { return s.to }

func (s *readerSource) Close() error {
	if s.rc != nil {
		return s.rc.Close()
	}

	return nil
}

// writerSink adapts a plain io.Writer (optionally io.Closer) to Sink.
type writerSink struct {
	w  io.Writer
	wc io.Closer
	to Timeout
}

// FromWriter wraps w as a Sink. If w also implements io.Closer, Close
// delegates to it after a final Flush, per the Sink contract; otherwise
// Close only flushes.
func FromWriter(w io.Writer) Sink {
	wc, _ := w.(io.Closer)

	return &writerSink{w: w, wc: wc}
}

func (s *writerSink) Write(source *Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > source.size {
		return ErrOutOfRange
	}

	_, err := source.WriteNTo(s.w, byteCount)

	return err
}

func (s *writerSink) Flush() error {
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}

	return nil
}

func (s *writerSink) Timeout() Timeout { return s.to }

func (s *writerSink) Close() error {
	ferr := s.Flush()

	if s.wc != nil {
		if cerr := s.wc.Close(); cerr != nil && ferr == nil {
			return cerr
		}
	}

	return ferr
}

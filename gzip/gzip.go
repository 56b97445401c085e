// Package gzip implements GzipSink and GzipSource: Sink/Source adapters
// that wrap the raw DEFLATE stream from this module's flate package with
// GZIP framing (RFC 1952) — header, optional fields, and an 8-byte CRC-32
// plus size trailer.
package gzip

import (
	"context"
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"

	"github.com/coldbrewio/iobuf/buffer"
	"github.com/coldbrewio/iobuf/flate"
	"github.com/coldbrewio/iobuf/internal/logging"
)

var log = logging.Module("iobuf/gzip") //nolint:gochecknoglobals

const (
	magic1 = 0x1f
	magic2 = 0x8b

	methodDeflate = 8

	flagText    = 1 << 0
	flagHCRC    = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4

	knownFlags = flagText | flagHCRC | flagExtra | flagName | flagComment
)

// GzipSink wraps a downstream Sink, writing a GZIP-framed stream: a fixed
// 10-byte header followed by a raw DEFLATE stream, followed on Close by
// the 8-byte CRC-32/ISIZE trailer.
type GzipSink struct {
	downstream *flate.DeflaterSink
	crc        uint32
	size       uint32

	raw buffer.Sink
}

// NewGzipSink returns a GzipSink writing a GZIP stream to downstream at
// the given DEFLATE compression level, after immediately writing the
// fixed 10-byte GZIP header (magic, method=8, flags=0, mtime=0, xfl=0,
// os=0).
func NewGzipSink(downstream buffer.Sink, level int) (*GzipSink, error) {
	header := buffer.New()
	_, _ = header.Append([]byte{magic1, magic2, methodDeflate, 0, 0, 0, 0, 0, 0, 0})

	if err := downstream.Write(header, header.Size()); err != nil {
		return nil, errors.Wrap(err, "writing gzip header")
	}

	deflater, err := flate.NewDeflaterSink(downstream, level)
	if err != nil {
		return nil, err
	}

	return &GzipSink{downstream: deflater, raw: downstream}, nil
}

// Write implements Sink: it feeds byteCount bytes from source through the
// DEFLATE encoder while folding them into a running CRC-32.
func (s *GzipSink) Write(source *buffer.Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > source.Size() {
		return buffer.ErrOutOfRange
	}

	p, err := source.ReadByteArray(int(byteCount))
	if err != nil {
		return err
	}

	s.crc = crc32.Update(s.crc, crc32.IEEETable, p)
	s.size += uint32(len(p)) //nolint:gosec

	tmp := buffer.New()
	if _, err := tmp.Append(p); err != nil {
		return err
	}

	return s.downstream.Write(tmp, tmp.Size())
}

// Flush flushes the DEFLATE encoder and the downstream sink.
func (s *GzipSink) Flush() error {
	return s.downstream.Flush()
}

// Timeout implements Sink by delegating to the downstream sink.
func (s *GzipSink) Timeout() buffer.Timeout {
	return s.downstream.Timeout()
}

// Close finishes the DEFLATE stream, writes the 8-byte trailer
// (CRC-32 then uncompressed size mod 2^32, both little-endian), and
// closes the downstream sink — attempting every step even if an earlier
// one fails, and returning the first error observed.
func (s *GzipSink) Close() error {
	var firstErr error

	if err := s.downstream.FinishStream(); err != nil {
		firstErr = err
	}

	trailer := buffer.New()
	binaryLE(trailer, s.crc)
	binaryLE(trailer, s.size)

	if err := s.raw.Write(trailer, trailer.Size()); err != nil && firstErr == nil {
		firstErr = err
	}

	if err := s.raw.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}

func binaryLE(b *buffer.Buffer, v uint32) {
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], v)
	_, _ = b.Append(p[:])
}

// GzipSource reads and validates a GZIP header, then decompresses the
// DEFLATE payload, then validates the 8-byte CRC-32/ISIZE trailer.
type GzipSource struct {
	ctx      context.Context //nolint:containedctx
	upstream *buffer.BufferedSource
	inflater *flate.InflaterSource

	crc  uint32
	size uint32

	headerRead bool
	trailerRead bool
}

// NewGzipSource returns a GzipSource reading a GZIP stream from upstream.
// The header is parsed lazily on the first Read call.
func NewGzipSource(ctx context.Context, upstream *buffer.BufferedSource) *GzipSource {
	return &GzipSource{ctx: ctx, upstream: upstream}
}

func (s *GzipSource) readHeader() error {
	if s.headerRead {
		return nil
	}

	m1, err := s.upstream.ReadByte()
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, "short gzip header")
	}

	m2, err := s.upstream.ReadByte()
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, "short gzip header")
	}

	if m1 != magic1 || m2 != magic2 {
		return errors.Wrap(buffer.ErrEncoding, "bad gzip magic")
	}

	method, err := s.upstream.ReadByte()
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, "short gzip header")
	}

	if method != methodDeflate {
		return errors.Wrap(buffer.ErrEncoding, "unsupported gzip method")
	}

	flags, err := s.upstream.ReadByte()
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, "short gzip header")
	}

	if flags&^knownFlags != 0 {
		return errors.Wrap(buffer.ErrUnsupported, "unsupported gzip flag")
	}

	if err := s.upstream.Skip(6); err != nil { // mtime, xfl, os
		return errors.Wrap(buffer.ErrEncoding, "short gzip header")
	}

	if flags&flagExtra != 0 {
		if err := s.upstream.Require(2); err != nil {
			return errors.Wrap(buffer.ErrEncoding, "short gzip extra field")
		}

		xlen, err := s.upstream.Buffer().ReadShortLE()
		if err != nil {
			return errors.Wrap(buffer.ErrEncoding, "short gzip extra field")
		}

		if err := s.upstream.Skip(int64(xlen)); err != nil {
			return errors.Wrap(buffer.ErrEncoding, "short gzip extra field")
		}
	}

	if flags&flagName != 0 {
		if err := s.skipNullTerminated(); err != nil {
			return err
		}
	}

	if flags&flagComment != 0 {
		if err := s.skipNullTerminated(); err != nil {
			return err
		}
	}

	if flags&flagHCRC != 0 {
		if err := s.upstream.Skip(2); err != nil {
			return errors.Wrap(buffer.ErrEncoding, "short gzip header crc")
		}
	}

	s.headerRead = true
	s.inflater = flate.NewInflaterSource(s.ctx, s.upstream)

	log(s.ctx).Debugf("gzip: header parsed, flags=%#x", flags)

	return nil
}

func (s *GzipSource) skipNullTerminated() error {
	for {
		c, err := s.upstream.ReadByte()
		if err != nil {
			return errors.Wrap(buffer.ErrEncoding, "unterminated gzip field")
		}

		if c == 0 {
			return nil
		}
	}
}

func (s *GzipSource) readTrailer() error {
	if s.trailerRead {
		return nil
	}

	if err := s.upstream.Require(8); err != nil {
		return errors.Wrap(buffer.ErrEncoding, "short gzip trailer")
	}

	crcLE, err := s.upstream.Buffer().ReadIntLE()
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, "short gzip trailer")
	}

	sizeLE, err := s.upstream.Buffer().ReadIntLE()
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, "short gzip trailer")
	}

	if uint32(crcLE) != s.crc { //nolint:gosec
		return errors.Wrap(buffer.ErrEncoding, "crc mismatch")
	}

	if uint32(sizeLE) != s.size { //nolint:gosec
		return errors.Wrap(buffer.ErrEncoding, "size mismatch")
	}

	s.trailerRead = true

	return nil
}

// Read implements Source: after lazily parsing the header, it decompresses
// up to byteCount bytes into sink, tracking a running CRC-32 and byte
// count; once the inner DEFLATE stream is exhausted it validates the
// trailer before reporting end-of-stream.
func (s *GzipSource) Read(sink *buffer.Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, buffer.ErrOutOfRange
	}

	if byteCount == 0 {
		return -1, nil
	}

	if err := s.readHeader(); err != nil {
		return 0, err
	}

	scratch := buffer.New()

	n, err := s.inflater.Read(scratch, byteCount)
	if err != nil {
		return 0, err
	}

	if n == -1 {
		if err := s.readTrailer(); err != nil {
			return 0, err
		}

		return -1, nil
	}

	p, err := scratch.ReadByteArray(int(n))
	if err != nil {
		return 0, err
	}

	s.crc = crc32.Update(s.crc, crc32.IEEETable, p)
	s.size += uint32(len(p)) //nolint:gosec

	if _, err := sink.Append(p); err != nil {
		return 0, err
	}

	return n, nil
}

// Timeout implements Source by delegating to the upstream source.
func (s *GzipSource) Timeout() buffer.Timeout {
	return s.upstream.Timeout()
}

// Close closes the inner inflater and upstream source.
func (s *GzipSource) Close() error {
	if s.inflater != nil {
		return s.inflater.Close()
	}

	return s.upstream.Close()
}

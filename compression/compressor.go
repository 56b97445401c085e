// Package compression implements a named, self-describing compressor
// registry grounded on the teacher's repo/compression package: every
// registered Compressor prefixes its output with a 4-byte big-endian
// header ID, so a generic decompressor can identify and dispatch on the
// algorithm a given stream was written with.
package compression

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"

	"github.com/coldbrewio/iobuf/buffer"
	"github.com/coldbrewio/iobuf/flate"
	"github.com/coldbrewio/iobuf/gzip"
)

// Name identifies a registered compression algorithm.
type Name string

// The algorithms this module registers out of the box.
const (
	None    Name = "none"
	Deflate Name = "deflate"
	Gzip    Name = "gzip"
	PGzip   Name = "pgzip"
	S2      Name = "s2"
	Zstd    Name = "zstd"
)

// Compressor is the contract every registered algorithm implements:
// Compress writes src's bytes, compressed and header-tagged, to dst;
// Decompress reverses that, optionally checking the header ID first.
type Compressor interface {
	HeaderID() uint32
	Compress(dst buffer.Sink, src *buffer.Buffer) error
	Decompress(dst *buffer.Buffer, src buffer.Source, withHeaderCheck bool) error
}

// ByName indexes every registered Compressor by its Name.
var ByName = map[Name]Compressor{ //nolint:gochecknoglobals
	None:    noneCompressor{},
	Deflate: deflateCompressor{},
	Gzip:    gzipCompressor{},
	PGzip:   pgzipCompressor{},
	S2:      s2Compressor{},
	Zstd:    zstdCompressor{},
}

// ByHeaderID indexes every registered Compressor by its 4-byte header ID.
var ByHeaderID = map[uint32]Compressor{} //nolint:gochecknoglobals

// IsDeprecated marks algorithms retained for reading old data but no
// longer recommended for new writes. None of this module's algorithms are
// deprecated today; the map exists so a future addition has somewhere to
// record that without an API change.
var IsDeprecated = map[Name]bool{} //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits
	for _, c := range ByName {
		ByHeaderID[c.HeaderID()] = c
	}
}

func writeHeader(dst buffer.Sink, id uint32) error {
	var p [4]byte
	binary.BigEndian.PutUint32(p[:], id)

	hdr := buffer.New()
	if _, err := hdr.Append(p[:]); err != nil {
		return err
	}

	return dst.Write(hdr, hdr.Size())
}

func checkHeader(src *buffer.BufferedSource, wantID uint32) error {
	id, err := src.ReadInt()
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, "short compressor header")
	}

	if uint32(id) != wantID { //nolint:gosec
		return errors.Errorf("header ID mismatch: got %#x, want %#x", uint32(id), wantID) //nolint:gosec
	}

	return nil
}

// drainBufferedSource pulls every remaining byte out of a BufferedSource
// into a plain slice, used by the codecs below whose underlying
// third-party reader wants a seekable/replayable byte slice rather than
// this module's streaming Source contract.
func drainBufferedSource(bs *buffer.BufferedSource) ([]byte, error) {
	acc := buffer.New()

	if _, err := bs.ReadAll(buffer.FromWriter(sinkWriter{acc})); err != nil {
		return nil, err
	}

	return acc.ReadByteArrayAll()
}

// sinkWriter adapts a *buffer.Buffer to io.Writer so drainBufferedSource
// can reuse buffer.FromWriter as the ReadAll destination.
type sinkWriter struct {
	b *buffer.Buffer
}

func (w sinkWriter) Write(p []byte) (int, error) {
	return w.b.Append(p)
}

// noneCompressor is the identity algorithm, used as a benchmarking
// baseline and for data already known to be incompressible.
type noneCompressor struct{}

func (noneCompressor) HeaderID() uint32 { return 0x4e4f4e45 } // "NONE"

func (c noneCompressor) Compress(dst buffer.Sink, src *buffer.Buffer) error {
	if err := writeHeader(dst, c.HeaderID()); err != nil {
		return err
	}

	return dst.Write(src, src.Size())
}

func (c noneCompressor) Decompress(dst *buffer.Buffer, src buffer.Source, withHeaderCheck bool) error {
	bs := buffer.NewBufferedSource(src)

	if withHeaderCheck {
		if err := checkHeader(bs, c.HeaderID()); err != nil {
			return err
		}
	}

	_, err := dst.WriteAll(bs)

	return err
}

// openSink forwards to the wrapped Sink but turns Close into Flush, so a
// codec sink can finish its stream without closing the caller's dst.
type openSink struct{ buffer.Sink }

func (s openSink) Close() error { return s.Flush() }

// deflateCompressor is the raw DEFLATE algorithm with no GZIP envelope.
type deflateCompressor struct{}

func (deflateCompressor) HeaderID() uint32 { return 0x4445464c } // "DEFL"

func (c deflateCompressor) Compress(dst buffer.Sink, src *buffer.Buffer) error {
	if err := writeHeader(dst, c.HeaderID()); err != nil {
		return err
	}

	sink, err := flate.NewDeflaterSink(openSink{dst}, -1)
	if err != nil {
		return err
	}

	if err := sink.Write(src, src.Size()); err != nil {
		return err
	}

	return sink.Close()
}

func (c deflateCompressor) Decompress(dst *buffer.Buffer, src buffer.Source, withHeaderCheck bool) error {
	bs := buffer.NewBufferedSource(src)

	if withHeaderCheck {
		if err := checkHeader(bs, c.HeaderID()); err != nil {
			return err
		}
	}

	inflater := flate.NewInflaterSource(context.Background(), bs)

	_, err := dst.WriteAll(inflater)

	return err
}

// gzipCompressor wraps this module's GzipSink/GzipSource.
type gzipCompressor struct{}

func (gzipCompressor) HeaderID() uint32 { return 0x475a4950 } // "GZIP"

func (c gzipCompressor) Compress(dst buffer.Sink, src *buffer.Buffer) error {
	if err := writeHeader(dst, c.HeaderID()); err != nil {
		return err
	}

	sink, err := gzip.NewGzipSink(openSink{dst}, -1)
	if err != nil {
		return err
	}

	if err := sink.Write(src, src.Size()); err != nil {
		return err
	}

	return sink.Close()
}

func (c gzipCompressor) Decompress(dst *buffer.Buffer, src buffer.Source, withHeaderCheck bool) error {
	bs := buffer.NewBufferedSource(src)

	if withHeaderCheck {
		if err := checkHeader(bs, c.HeaderID()); err != nil {
			return err
		}
	}

	source := gzip.NewGzipSource(context.Background(), bs)

	_, err := dst.WriteAll(source)

	return err
}

// pgzipCompressor wraps github.com/klauspost/pgzip, which parallelizes
// GZIP compression across blocks at the cost of a slightly different bit
// layout than a single-threaded encoder; decompression reads back any
// standard GZIP stream, pgzip's own output included.
type pgzipCompressor struct{}

func (pgzipCompressor) HeaderID() uint32 { return 0x50475a49 } // "PGZI"

func (c pgzipCompressor) Compress(dst buffer.Sink, src *buffer.Buffer) error {
	if err := writeHeader(dst, c.HeaderID()); err != nil {
		return err
	}

	var out bytes.Buffer

	w := pgzip.NewWriter(&out)

	p, err := src.ReadByteArrayAll()
	if err != nil {
		return err
	}

	if _, err := w.Write(p); err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	encoded := buffer.New()
	if _, err := encoded.Append(out.Bytes()); err != nil {
		return err
	}

	return dst.Write(encoded, encoded.Size())
}

func (c pgzipCompressor) Decompress(dst *buffer.Buffer, src buffer.Source, withHeaderCheck bool) error {
	bs := buffer.NewBufferedSource(src)

	if withHeaderCheck {
		if err := checkHeader(bs, c.HeaderID()); err != nil {
			return err
		}
	}

	p, err := drainBufferedSource(bs)
	if err != nil {
		return err
	}

	r, err := pgzip.NewReader(bytes.NewReader(p))
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, err.Error())
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, err.Error())
	}

	_, err = dst.Append(out)

	return err
}

// s2Compressor wraps github.com/klauspost/compress/s2, a high-throughput
// Snappy derivative well suited to the CLI benchmark harness.
type s2Compressor struct{}

func (s2Compressor) HeaderID() uint32 { return 0x53325f5f } // "S2__"

func (c s2Compressor) Compress(dst buffer.Sink, src *buffer.Buffer) error {
	if err := writeHeader(dst, c.HeaderID()); err != nil {
		return err
	}

	var out bytes.Buffer

	w := s2.NewWriter(&out)

	p, err := src.ReadByteArrayAll()
	if err != nil {
		return err
	}

	if _, err := w.Write(p); err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	encoded := buffer.New()
	if _, err := encoded.Append(out.Bytes()); err != nil {
		return err
	}

	return dst.Write(encoded, encoded.Size())
}

func (c s2Compressor) Decompress(dst *buffer.Buffer, src buffer.Source, withHeaderCheck bool) error {
	bs := buffer.NewBufferedSource(src)

	if withHeaderCheck {
		if err := checkHeader(bs, c.HeaderID()); err != nil {
			return err
		}
	}

	p, err := drainBufferedSource(bs)
	if err != nil {
		return err
	}

	r := s2.NewReader(bytes.NewReader(p))

	out, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, err.Error())
	}

	_, err = dst.Append(out)

	return err
}

// zstdCompressor wraps github.com/klauspost/compress/zstd.
type zstdCompressor struct{}

func (zstdCompressor) HeaderID() uint32 { return 0x5a535444 } // "ZSTD"

func (c zstdCompressor) Compress(dst buffer.Sink, src *buffer.Buffer) error {
	if err := writeHeader(dst, c.HeaderID()); err != nil {
		return err
	}

	var out bytes.Buffer

	w, err := zstd.NewWriter(&out)
	if err != nil {
		return err
	}

	p, err := src.ReadByteArrayAll()
	if err != nil {
		return err
	}

	if _, err := w.Write(p); err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	encoded := buffer.New()
	if _, err := encoded.Append(out.Bytes()); err != nil {
		return err
	}

	return dst.Write(encoded, encoded.Size())
}

func (c zstdCompressor) Decompress(dst *buffer.Buffer, src buffer.Source, withHeaderCheck bool) error {
	bs := buffer.NewBufferedSource(src)

	if withHeaderCheck {
		if err := checkHeader(bs, c.HeaderID()); err != nil {
			return err
		}
	}

	p, err := drainBufferedSource(bs)
	if err != nil {
		return err
	}

	r, err := zstd.NewReader(bytes.NewReader(p))
	if err != nil {
		return err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(buffer.ErrEncoding, err.Error())
	}

	_, err = dst.Append(out)

	return err
}

// Command iobufctl is a small CLI exercising the buffer/segment/Source-Sink
// core end to end: gzip/gunzip subcommands stream stdin to stdout through
// this module's own GzipSink/GzipSource, and the bench subcommands time the
// registered compressor and splitter implementations over a generated
// payload. Grounded on the teacher's
// cli/command_benchmark_compression.go and cli/command_benchmark_splitters.go.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/coldbrewio/iobuf/buffer"
	"github.com/coldbrewio/iobuf/gzip"
)

var (
	app = kingpin.New("iobufctl", "Exercise the segmented byte-buffer I/O core from the command line")

	gzipCmd   = app.Command("gzip", "Compress stdin to stdout as GZIP")
	gunzipCmd = app.Command("gunzip", "Decompress a GZIP stream from stdin to stdout")

	benchCmd = app.Command("bench", "Benchmark harness")
)

func main() {
	ctx := context.Background()

	switch kingpin.MustParse(app.Parse(os.Args[1:])) {
	case gzipCmd.FullCommand():
		exitOn(runGzip())
	case gunzipCmd.FullCommand():
		exitOn(runGunzip(ctx))
	case benchCompressCmd.FullCommand():
		exitOn(runBenchCompress(*benchCompressAlgorithm, *benchCompressSize, *benchCompressRepeat))
	case benchSplitCmd.FullCommand():
		exitOn(runBenchSplit(*benchSplitAlgorithm, *benchSplitSize))
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "iobufctl:", err)
		os.Exit(1)
	}
}

func runGzip() error {
	sink, err := gzip.NewGzipSink(buffer.FromWriter(os.Stdout), -1)
	if err != nil {
		return errors.Wrap(err, "unable to open gzip sink")
	}

	src := buffer.FromReader(os.Stdin)
	defer src.Close() //nolint:errcheck

	buf := buffer.New()

	for {
		n, err := src.Read(buf, 65536)
		if n > 0 {
			if werr := sink.Write(buf, n); werr != nil {
				return errors.Wrap(werr, "unable to write compressed data")
			}
		}

		if n < 0 {
			break
		}

		if err != nil {
			return errors.Wrap(err, "unable to read input")
		}
	}

	return sink.Close()
}

func runGunzip(ctx context.Context) error {
	bs := buffer.NewBufferedSource(buffer.FromReader(os.Stdin))
	source := gzip.NewGzipSource(ctx, bs)
	defer source.Close() //nolint:errcheck

	out := buffer.FromWriter(os.Stdout)

	buf := buffer.New()

	for {
		n, err := source.Read(buf, 65536)
		if n > 0 {
			if werr := out.Write(buf, n); werr != nil {
				return errors.Wrap(werr, "unable to write decompressed data")
			}
		}

		if n < 0 {
			break
		}

		if err != nil {
			return errors.Wrap(err, "unable to read gzip stream")
		}
	}

	return out.Close()
}

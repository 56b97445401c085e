package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/coldbrewio/iobuf/buffer"
	"github.com/coldbrewio/iobuf/compression"
	"github.com/coldbrewio/iobuf/internal/gather"
)

var (
	benchCompressCmd       = benchCmd.Command("compress", "Benchmark registered compressors")
	benchCompressAlgorithm = benchCompressCmd.Arg("algorithm", "Algorithm to benchmark, or \"all\"").Default("all").String()
	benchCompressSize      = benchCompressCmd.Flag("size", "Payload size in bytes").Default("1048576").Int()
	benchCompressRepeat    = benchCompressCmd.Flag("repeat", "Number of repetitions").Default("3").Int()
)

// benchPayload builds a repeating, moderately compressible payload of n
// bytes by accumulating it through a gather.WriteBuffer rather than growing
// a single slice by doubling, the same contiguous-chunk facility the core's
// Source/Sink adapters would reach for when priming a large scratch buffer.
func benchPayload(n int) []byte {
	w := gather.NewWriteBufferMaxContiguous()
	defer w.Close()

	pattern := []byte("the quick brown fox jumps over the lazy dog; ")

	for w.Length() < n {
		remaining := n - w.Length()
		if remaining < len(pattern) {
			w.Append(pattern[:remaining])
			break
		}

		w.Append(pattern)
	}

	return w.ToByteSlice()
}

func runBenchCompress(algorithm string, size, repeat int) error {
	names := algorithmsToRun(algorithm)
	if len(names) == 0 {
		return errors.Errorf("unknown compression algorithm %q", algorithm)
	}

	payload := benchPayload(size)

	for _, name := range names {
		c := compression.ByName[name]

		src := buffer.New()
		if _, err := src.Append(payload); err != nil {
			return err
		}

		var (
			compressedSize int
			compressDur    time.Duration
			decompressDur  time.Duration
		)

		for range repeat {
			dst := buffer.New()

			start := time.Now()
			if err := c.Compress(dst, src.Clone()); err != nil {
				return errors.Wrapf(err, "compress %v", name)
			}

			compressDur += time.Since(start)
			compressedSize = int(dst.Size())

			decoded := buffer.New()

			start = time.Now()
			if err := c.Decompress(decoded, dst, true); err != nil {
				return errors.Wrapf(err, "decompress %v", name)
			}

			decompressDur += time.Since(start)
		}

		fmt.Printf("%-10s compressed=%d ratio=%.3f compress=%v decompress=%v\n",
			name, compressedSize, float64(compressedSize)/float64(size),
			compressDur/time.Duration(repeat), decompressDur/time.Duration(repeat))
	}

	return nil
}

func algorithmsToRun(algorithm string) []compression.Name {
	if algorithm == "all" {
		names := make([]compression.Name, 0, len(compression.ByName))
		for n := range compression.ByName {
			names = append(names, n)
		}

		sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

		return names
	}

	if _, ok := compression.ByName[compression.Name(algorithm)]; !ok {
		return nil
	}

	return []compression.Name{compression.Name(algorithm)}
}

package main

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/coldbrewio/iobuf/splitter"
)

var (
	benchSplitCmd       = benchCmd.Command("split", "Benchmark registered splitters")
	benchSplitAlgorithm = benchSplitCmd.Arg("algorithm", "Algorithm to benchmark, or \"all\"").Default("all").String()
	benchSplitSize      = benchSplitCmd.Flag("size", "Payload size in bytes").Default("10485760").Int()
)

func runBenchSplit(algorithm string, size int) error {
	algorithms, err := splitAlgorithmsToRun(algorithm)
	if err != nil {
		return err
	}

	data := benchPayload(size)

	for _, name := range algorithms {
		s := splitter.GetFactory(name)()

		var (
			count    int
			min, max int
		)

		min = size

		rest := data
		for len(rest) > 0 {
			n := s.NextSplitPoint(rest)
			if n < 0 {
				break
			}

			count++

			if n < min {
				min = n
			}

			if n > max {
				max = n
			}

			rest = rest[n:]
		}

		s.Close()

		avg := 0
		if count > 0 {
			avg = size / count
		}

		fmt.Printf("%-24s chunks=%-6d min=%-8d avg=%-8d max=%-8d\n", name, count, min, avg, max)
	}

	return nil
}

func splitAlgorithmsToRun(algorithm string) ([]string, error) {
	if algorithm == "all" {
		names := append([]string{}, splitter.SupportedAlgorithms()...)
		sort.Strings(names)

		return names, nil
	}

	if splitter.GetFactory(algorithm) == nil {
		return nil, errors.Errorf("unknown splitter algorithm %q", algorithm)
	}

	return []string{algorithm}, nil
}

// Command processor categorizes a file of note entries offline. It
// reads a JSON array of entries, runs the same pipeline as the HTTP
// service, and writes per-entry results as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/clindocs/casenote-classifier/internal/config"
	"github.com/clindocs/casenote-classifier/internal/dictionary"
	"github.com/clindocs/casenote-classifier/internal/domain"
	"github.com/clindocs/casenote-classifier/internal/logger"
	"github.com/clindocs/casenote-classifier/internal/logging"
	"github.com/clindocs/casenote-classifier/internal/processor"
)

func main() {
	input := flag.String("input", "", "JSON file with an array of note entries (default stdin)")
	output := flag.String("output", "", "file to write results to (default stdout)")
	dictDir := flag.String("dictionaries", "", "directory of dictionary YAML files (default embedded)")
	concurrency := flag.Int("concurrency", 0, "worker count (default 8)")
	noFilter := flag.Bool("no-filter", false, "disable false-positive suppression")
	perOccurrence := flag.Bool("per-occurrence", false, "check negation on every keyword occurrence")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	if err := run(*input, *output, *dictDir, *concurrency, !*noFilter, *perOccurrence, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "processor: %v\n", err)
		os.Exit(1)
	}
}

func run(input, output, dictDir string, concurrency int, filter, perOccurrence bool, logLevel string) error {
	log := logger.Must(logger.Config{
		Level:       logLevel,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	defer func() { _ = log.Sync() }()

	entries, err := readEntries(input)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entries to process")
	}

	reg, err := dictionary.LoadFrom(dictDir)
	if err != nil {
		return fmt.Errorf("loading dictionaries: %w", err)
	}

	adapter := logging.NewAdapter(log)
	pipeline, err := processor.NewPipeline(reg, config.CategorizerConfig{
		FalsePositiveFiltering: filter,
		PerOccurrence:          perOccurrence,
	}, nil, adapter)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	batch := processor.NewBatchProcessor(pipeline, concurrency, adapter)
	results := batch.Process(context.Background(), entries, filter)

	matched := 0
	for _, result := range results {
		if len(result.ByDomain) > 0 || result.Incidents != nil {
			matched++
		}
	}
	log.Info("Processing complete",
		logger.Int("entries", len(results)),
		logger.Int("matched", matched),
	)

	return writeResults(output, results)
}

func readEntries(path string) ([]*domain.NoteEntry, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var entries []*domain.NoteEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding entries: %w", err)
	}
	return entries, nil
}

func writeResults(path string, results []*domain.EntryResult) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

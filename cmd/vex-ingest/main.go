// Command vex-ingest bulk-loads documents from a line-oriented file into a
// vex index, exercising the full write path (index.Writer leasing,
// periodic commit, optional consolidation) the way a real ingestion job
// would. Flag surface and exit codes follow spec.md §6 verbatim.
package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/blake2b"

	"github.com/vexsearch/vex/internal/directory"
	"github.com/vexsearch/vex/internal/postings"
	"github.com/vexsearch/vex/internal/segment"
	"github.com/vexsearch/vex/pkg/options"
	"github.com/vexsearch/vex/pkg/vex"
)

type ingestFlags struct {
	indexDir                string
	dirType                 string
	format                  string
	in                      string
	batchSize               int
	consolidateAll          bool
	maxLines                int
	threads                 int
	consolidationThreads    int
	commitPeriodMS          int
	consolidationIntervalMS int
	analyzerType            string
	analyzerOptions         string
	segmentMemoryMax        int64
}

func main() {
	flags := &ingestFlags{}
	cmd := &cobra.Command{
		Use:   "vex-ingest",
		Short: "Bulk-load documents from a file into a vex index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
		SilenceUsage: true,
	}

	fs := cmd.Flags()
	fs.StringVar(&flags.indexDir, "index-dir", "", "directory to write the index into (required for --dir-type fs)")
	fs.StringVar(&flags.dirType, "dir-type", "fs", "directory backend: fs|memory")
	fs.StringVar(&flags.format, "format", "jsonl", "input line format: jsonl|text")
	fs.StringVar(&flags.in, "in", "", "input file to read documents from (required)")
	fs.IntVar(&flags.batchSize, "batch-size", 1000, "documents per commit")
	fs.BoolVar(&flags.consolidateAll, "consolidate-all", false, "run a full consolidation after ingestion completes")
	fs.IntVar(&flags.maxLines, "max-lines", 0, "stop after this many lines (0 = no limit)")
	fs.IntVar(&flags.threads, "threads", 1, "concurrent ingestion workers")
	fs.IntVar(&flags.consolidationThreads, "consolidation-threads", 2, "max concurrent consolidations")
	fs.IntVar(&flags.commitPeriodMS, "commit-period", 1000, "background commit period, in milliseconds")
	fs.IntVar(&flags.consolidationIntervalMS, "consolidation-interval", 30000, "background consolidation period, in milliseconds")
	fs.StringVar(&flags.analyzerType, "analyzer-type", "standard", "analyzer used for every indexed field")
	fs.StringVar(&flags.analyzerOptions, "analyzer-options", "", "raw JSON options passed to the analyzer constructor")
	fs.Int64Var(&flags.segmentMemoryMax, "segment-memory-max", int64(options.DefaultSegmentMemory), "per-segment-writer memory budget in bytes")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vex-ingest:", err)
		os.Exit(1)
	}
}

func run(flags *ingestFlags) error {
	if flags.in == "" {
		return fmt.Errorf("--in is required")
	}

	dir, err := openDirectory(flags)
	if err != nil {
		return err
	}

	schema, err := detectSchema(flags)
	if err != nil {
		return fmt.Errorf("inspecting --in file: %w", err)
	}

	in, err := os.Open(flags.in)
	if err != nil {
		return fmt.Errorf("opening --in file: %w", err)
	}
	defer in.Close()

	opts := []options.OptionFunc{
		options.WithCommitPeriod(time.Duration(flags.commitPeriodMS) * time.Millisecond),
		options.WithConsolidationInterval(time.Duration(flags.consolidationIntervalMS) * time.Millisecond),
		options.WithConsolidationThreads(flags.consolidationThreads),
		options.WithSegmentPoolSize(flags.threads),
		options.WithSegmentMemoryMax(uint64(flags.segmentMemoryMax)),
		options.WithAnalyzer(flags.analyzerType, flags.analyzerOptions),
	}

	inst, err := vex.Open(dir, "vex-ingest", schema, opts...)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer inst.Close()

	lines := make(chan string, flags.threads*4)
	var wg sync.WaitGroup
	errs := make(chan error, flags.threads)

	for i := 0; i < max(flags.threads, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ingestWorker(inst, flags, lines); err != nil {
				select {
				case errs <- err:
				default:
				}
			}
		}()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	count := 0
	for scanner.Scan() {
		if flags.maxLines > 0 && count >= flags.maxLines {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines <- line
		count++
	}
	close(lines)
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading --in file: %w", err)
	}
	select {
	case err := <-errs:
		return err
	default:
	}

	if err := inst.Commit(); err != nil {
		return fmt.Errorf("final commit: %w", err)
	}

	if flags.consolidateAll {
		if err := inst.ConsolidateAll(); err != nil {
			return fmt.Errorf("consolidation: %w", err)
		}
	}

	fmt.Fprintf(os.Stdout, "vex-ingest: indexed %d documents\n", count)
	return nil
}

func ingestWorker(inst *vex.Instance, flags *ingestFlags, lines <-chan string) error {
	sess, err := inst.Documents()
	if err != nil {
		return err
	}
	pending := 0
	for line := range lines {
		fields, attrs, err := parseLine(flags.format, line)
		if err != nil {
			continue // malformed line: skip rather than abort the whole ingest
		}
		sess.Insert(fields, attrs)
		pending++

		if pending >= flags.batchSize {
			sess.Done()
			if err := inst.Commit(); err != nil {
				return err
			}
			sess, err = inst.Documents()
			if err != nil {
				return err
			}
			pending = 0
		}
	}
	sess.Done()
	return nil
}

// idAttr stores the content-derived document id blake2b produces, mirroring
// the corpus's selectable-hash-algorithm identifier pattern.
type idAttr struct{ id string }

func (a idAttr) Name() string                { return "_id" }
func (a idAttr) Serialize() ([]byte, error) { return []byte(a.id), nil }

type fieldAttr struct {
	name  string
	value string
}

func (a fieldAttr) Name() string                { return a.name }
func (a fieldAttr) Serialize() ([]byte, error) { return []byte(a.value), nil }

func parseLine(format, line string) ([]segment.FieldValue, []segment.Attribute, error) {
	id := contentID(line)
	switch format {
	case "text":
		return []segment.FieldValue{{Name: "body", Value: []byte(line)}},
			[]segment.Attribute{idAttr{id}, fieldAttr{"body", line}}, nil
	case "jsonl":
		var doc map[string]string
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return nil, nil, err
		}
		names := make([]string, 0, len(doc))
		for k := range doc {
			names = append(names, k)
		}
		sort.Strings(names)

		fields := make([]segment.FieldValue, 0, len(names))
		attrs := make([]segment.Attribute, 0, len(names)+1)
		attrs = append(attrs, idAttr{id})
		for _, name := range names {
			fields = append(fields, segment.FieldValue{Name: name, Value: []byte(doc[name])})
			attrs = append(attrs, fieldAttr{name, doc[name]})
		}
		return fields, attrs, nil
	default:
		return nil, nil, fmt.Errorf("unknown --format %q", format)
	}
}

// contentID derives a 16 hex character document id from line's raw bytes,
// the same blake2b-based scheme the corpus uses for stable content-addressed
// identifiers.
func contentID(line string) string {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(line))
	return hex.EncodeToString(h.Sum(nil))
}

// detectSchema peeks the input file's first non-empty line to discover
// field names, since the documented CLI flag surface has no --fields
// option of its own. Every discovered field is indexed with the
// configured analyzer and full positional features; a later line carrying
// a field outside this set is indexed as a masked document (the segment
// writer rejects the unknown field and masks the whole document) rather
// than aborting the run.
func detectSchema(flags *ingestFlags) (vex.Schema, error) {
	f, err := os.Open(flags.in)
	if err != nil {
		return vex.Schema{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var names []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		switch flags.format {
		case "text":
			names = []string{"body"}
		case "jsonl":
			var doc map[string]string
			if err := json.Unmarshal([]byte(line), &doc); err != nil {
				return vex.Schema{}, err
			}
			for name := range doc {
				names = append(names, name)
			}
			sort.Strings(names)
		default:
			return vex.Schema{}, fmt.Errorf("unknown --format %q", flags.format)
		}
		break
	}
	if err := scanner.Err(); err != nil {
		return vex.Schema{}, err
	}

	fields := make([]segment.FieldSchema, 0, len(names))
	for _, name := range names {
		fields = append(fields, segment.FieldSchema{
			Name:           name,
			Features:       postings.FeatureFrequency | postings.FeaturePosition,
			AnalyzerType:   flags.analyzerType,
			AnalyzerConfig: []byte(flags.analyzerOptions),
		})
	}
	return vex.Schema{Fields: fields}, nil
}

func openDirectory(flags *ingestFlags) (directory.Directory, error) {
	switch flags.dirType {
	case "memory":
		return directory.NewMemory(), nil
	case "fs":
		if flags.indexDir == "" {
			return nil, fmt.Errorf("--index-dir is required for --dir-type fs")
		}
		return directory.NewFS(flags.indexDir)
	case "mmap":
		return nil, fmt.Errorf("--dir-type mmap is not implemented; the directory abstraction is mmap-less by design")
	default:
		return nil, fmt.Errorf("unknown --dir-type %q", flags.dirType)
	}
}

package importer

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/obligo/internal/model"
)

// Result holds the output of loading every export under a path.
type Result struct {
	Obligations []model.Obligation
	Accounts    []model.Account
	Bad         []BadRecord
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
}

// Records is the number of records that decoded cleanly.
func (r *Result) Records() int {
	return len(r.Obligations) + len(r.Accounts)
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load scans path and parses every export on a bounded worker pool. Records keep the
// order of their files (sorted by path) and their position within each file.
func Load(ctx context.Context, path string, log logrus.FieldLogger, progressFn ProgressFunc) (*Result, error) {
	files, err := Scan(path)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}

	result := &Result{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	results := make([]FileResult, len(files))
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ParseFile(files[i])
			n := processed.Add(1)
			if progressFn != nil {
				progressFn(int(n), len(files))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, fr := range results {
		if fr.Err != nil {
			result.FileErrors++
			if log != nil {
				log.WithError(fr.Err).WithField("file", files[i]).Warn("skipping unreadable export")
			}
			continue
		}
		result.ParsedFiles++
		result.Obligations = append(result.Obligations, fr.Obligations...)
		result.Accounts = append(result.Accounts, fr.Accounts...)
		result.Bad = append(result.Bad, fr.Bad...)
		if log != nil {
			for _, b := range fr.Bad {
				log.WithError(b.Err).WithFields(logrus.Fields{"file": b.File, "line": b.Line}).Debug("skipping record")
			}
		}
	}

	return result, nil
}

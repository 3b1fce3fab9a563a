package girbind

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/jward/girbind/internal/gir"
	"github.com/jward/girbind/internal/model"
	"github.com/jward/girbind/internal/raw"
	"github.com/jward/girbind/internal/store"
)

// loadItem is one document to build. doc is nil when the document still
// has to be read from path.
type loadItem struct {
	path string
	doc  *raw.Document
}

type loadResult struct {
	path  string
	hash  string
	repo  *model.Repository
	batch *model.Batch // references, committed when the repository is added
	err   error
}

// build reads, parses and builds one namespace. It touches no engine state;
// references are staged in a batch and the C type parser is safe for
// concurrent use.
func (e *Engine) build(item loadItem) loadResult {
	res := loadResult{path: item.path}
	doc := item.doc
	if doc == nil {
		content, err := os.ReadFile(item.path)
		if err != nil {
			res.err = fmt.Errorf("girbind: read %s: %w", item.path, err)
			return res
		}
		res.hash = store.HashBytes(content)
		doc, err = gir.Load(bytes.NewReader(content), item.path)
		if err != nil {
			res.err = fmt.Errorf("girbind: %w", err)
			return res
		}
	}
	repo, batch, err := e.factory.Stage(doc)
	if err != nil {
		res.err = fmt.Errorf("girbind: load %s: %w", item.path, err)
		return res
	}
	res.repo = repo
	res.batch = batch
	return res
}

// buildParallel builds documents on a worker pool. Results come back in
// input order so namespace registration stays deterministic.
func (e *Engine) buildParallel(ctx context.Context, items []loadItem) ([]loadResult, error) {
	if len(items) == 0 {
		return nil, nil
	}
	numWorkers := max(min(runtime.NumCPU(), len(items)), 1)

	type job struct {
		idx  int
		item loadItem
	}
	workCh := make(chan job, len(items))
	for i, item := range items {
		workCh <- job{idx: i, item: item}
	}
	close(workCh)

	type result struct {
		idx int
		res loadResult
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range workCh {
				if err := ctx.Err(); err != nil {
					resultCh <- result{idx: j.idx, res: loadResult{path: j.item.path, err: err}}
					continue
				}
				resultCh <- result{idx: j.idx, res: e.build(j.item)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]loadResult, len(items))
	for r := range resultCh {
		results[r.idx] = r.res
	}
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
	}
	return results, nil
}

// indexParallel writes namespaces using a two-phase pipeline:
//
//	Phase B (parallel): Build one BatchedStore per namespace via worker pool.
//	Phase C (serial):   Commit batches to SQLite in input order.
func (e *Engine) indexParallel(ctx context.Context, items []indexItem) (IndexStats, error) {
	var stats IndexStats

	// ---- Phase B: Parallel batch building ----
	numWorkers := max(min(runtime.NumCPU(), len(items)), 1)

	type job struct {
		idx  int
		item indexItem
	}
	workCh := make(chan job, len(items))
	for i, item := range items {
		item.batch = store.NewBatchedStore(e.store)
		workCh <- job{idx: i, item: item}
	}
	close(workCh)

	type result struct {
		item  indexItem
		stats IndexStats
		err   error
	}
	results := make([]result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each slot is written by exactly one worker.
			for j := range workCh {
				if err := ctx.Err(); err != nil {
					results[j.idx] = result{item: j.item, err: err}
					continue
				}
				s, err := indexRepository(j.item.batch, j.item.repo, j.item.documentID)
				results[j.idx] = result{item: j.item, stats: s, err: err}
			}
		}()
	}
	wg.Wait()

	// ---- Phase C: Serial commit ----
	var errs []error
	for _, res := range results {
		name := res.item.repo.Name()
		if res.err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", name, res.err))
			continue
		}
		if err := e.store.CommitBatch(res.item.batch); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", name, err))
			continue
		}
		stats.add(res.stats)
	}

	if len(errs) > 0 {
		return stats, fmt.Errorf("girbind: parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return stats, nil
}

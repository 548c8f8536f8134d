package glossia

import (
	"context"
	"sync"
)

// chunkResult pairs a chunk index with its translation outcome so results
// can be re-serialized after concurrent dispatch.
type chunkResult struct {
	index int
	res   TranslationResult
	err   error
}

// dispatchChunks translates chunks across a bounded worker pool and
// delivers results in ascending chunk order. Out-of-order results wait in
// an index-addressed buffer until every predecessor has been delivered,
// so deliver always observes chunk 0, 1, 2, ... with no gaps.
//
// translate runs on pool goroutines and must be safe for concurrent use.
// deliver runs on the calling goroutine. A translate error marks that
// chunk failed but does not stop the pool; remaining chunks still run.
//
// On cancellation no further chunks are dispatched. With K workers, at
// most K chunks past the last delivered index are ever in flight.
func dispatchChunks(
	ctx context.Context,
	chunks []Chunk,
	workers int,
	translate func(context.Context, Chunk) (TranslationResult, error),
	deliver func(chunkResult),
) error {
	if workers < 1 {
		workers = 1
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	jobs := make(chan Chunk)
	results := make(chan chunkResult, workers+1)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range jobs {
				res, err := translate(ctx, chunk)
				select {
				case results <- chunkResult{index: chunk.Index, res: res, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs one at a time so cancellation stops dispatch immediately.
	go func() {
		defer close(jobs)
		for _, chunk := range chunks {
			select {
			case jobs <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Sequencer: hold back results that arrive early, release in order.
	pending := make(map[int]chunkResult)
	next := 0
	for res := range results {
		pending[res.index] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			deliver(r)
			next++
		}
	}

	return ctx.Err()
}

// prefetchCached looks up every chunk in the cache concurrently and
// returns the hits keyed by chunk index. Chunks with identical text and
// config share a single lookup. Used by the sequential streaming path,
// where serial cache probes would add one round trip per chunk.
func prefetchCached(ctx context.Context, cache TranslationCache, chunks []Chunk, cfg TranslationConfig) map[int]string {
	if cache == nil || len(chunks) == 0 {
		return map[int]string{}
	}

	// Deduplicate lookups: repeated boilerplate chunks share a key.
	keyIndexes := make(map[string][]int)
	for _, chunk := range chunks {
		key := TranslationKey(HashText(chunk.Text), cfg)
		keyIndexes[key] = append(keyIndexes[key], chunk.Index)
	}

	type lookupResult struct {
		key   string
		value string
		found bool
	}

	results := make(chan lookupResult, len(keyIndexes))
	var wg sync.WaitGroup
	for key := range keyIndexes {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			if val, ok := cache.Get(ctx, k); ok {
				results <- lookupResult{key: k, value: val, found: true}
			} else {
				results <- lookupResult{key: k, found: false}
			}
		}(key)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	hits := make(map[int]string)
	for result := range results {
		if !result.found {
			continue
		}
		for _, idx := range keyIndexes[result.key] {
			hits[idx] = result.value
		}
	}
	return hits
}

// Package pipeline provides lazy, pull-based stream operators.
//
// A Pipeline describes a chain of stages; Collect, ForEach and Drain open
// it and pull values through on demand, so a slow consumer throttles every
// stage above it.
//
// Sequential stages are Map, Batch and Pace. Parallel fans work out to a
// bounded worker pool and emits results as they finish. OrderedMap does the
// same but restores input order and reports per-item failures in place.
//
// Chunk summaries are merged in chunk order:
//
//	outcomes, err := pipeline.Collect(ctx,
//	    pipeline.OrderedMap(pipeline.FromSlice(chunks), 4, summarize))
//
// The folder watcher processes recordings with bounded concurrency:
//
//	work := pipeline.Parallel(pipeline.FromChannel(ready), 2, transcribe)
//	err := pipeline.Drain(work, report).Run(ctx)
//
// Text inputs are summarized in batches with a delay between batches:
//
//	batches := pipeline.Pace(pipeline.Batch(pipeline.FromSlice(inputs), 1000, 0), time.Second)
package pipeline

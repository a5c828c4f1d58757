// Package pipeline drives records through the analysis steps.
//
// Each record travels through a Pipeline of Steps (normalize, detect_pii,
// classify_language, aggregate, sample) carrying a RecordState that every
// step reads from and adds to. A Runner makes one sequential pass over a
// record source and produces the run's model.Report.
//
// BatchProcessor is the concurrent extension: each archive becomes a shard
// with its own aggregator and reservoirs, shards run under errgroup with a
// concurrency limit, and the results are merged in archive order. The
// merged report depends only on the seed and the input.
package pipeline

// Package sampler retains bounded, uniformly random samples from streams
// of unknown length.
//
// Reservoir is the generic building block (Algorithm R). Merge combines
// reservoirs filled by independent shards into one sample over the union
// of their streams. Set bundles one reservoir per PII category with one
// reservoir of language samples, and Source caps the number of records a
// run reads, optionally down-selecting uniformly from a larger pool.
//
// All randomness is drawn from math/rand/v2 PCG generators derived from a
// single run seed. Each consumer gets its own stream, so a run is
// reproducible from its seed and input alone.
package sampler

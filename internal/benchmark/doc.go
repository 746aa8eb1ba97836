// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for the build hot paths, used for PGO
// profile generation:
//   - path confinement
//   - recipe evaluation and INFO decoding
//   - archive extraction for each codec
//   - confined shell execution
//   - the full build pipeline with the builtin archiver
//
// To generate a profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark

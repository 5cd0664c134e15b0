/*
Package workers sizes the staging cache's population pool in containerized
and single-board environments.

# Overview

runtime.NumCPU reports the host's CPUs, while GOMAXPROCS follows the cgroup
CPU limit on Go 1.19+. Sizing from GOMAXPROCS keeps a frame running in a
container from spawning dozens of copy workers on a large host.

# Usage

	// Population attempts are I/O bound: 2 per CPU, never more than the
	// cache depth, unless the operator set STAGING_WORKERS.
	n := workers.ForIO(cfg.StagingWorkers, cfg.CacheDepth)

# Overrides

A positive override is returned as-is, capped by the limit. Zero or negative
overrides fall back to the calculation.
*/
package workers

/*
Package metadata keeps per-file attributes of the media library.

Each media path (relative to the library root) maps to a flat Record of
scalar attributes. Two keys are used by the frame itself:

  - landscape: recorded whenever a file is staged, whatever the display policy
  - exclude: set by the exclusion API; excluded files are dropped from the
    candidate set at the next index build

# Persistence

Store keeps the authoritative map in memory. Set and Get never block on I/O.
A background writer started with Start checks a dirty flag every interval
and, when set, writes a deep copy of the whole map through a Backend. A
failed write is logged and retried on the next tick. Close performs a final
flush.

# Backends

	json    indented document, written to <file>.tmp then renamed
	sqlite  table metadata(path, key, value), rewritten in one transaction
	bolt    bucket "metadata" with one JSON value per path, rewritten in one transaction

Use Open to construct a backend by name:

	backend, err := metadata.Open(cfg.MetadataBackend, cfg.MetadataPath)
	store := metadata.New(backend, cfg.MetadataInterval)
	if err := store.Load(); err != nil { ... }
	store.Start(ctx)
	defer store.Close()
*/
package metadata

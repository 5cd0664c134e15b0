// Package logging is the frame's process-wide leveled logger.
//
// Messages go through the standard log package with a [LEVEL] prefix so
// journald and docker logs keep their own timestamps alongside ours. The
// threshold comes from LOG_LEVEL (debug, info, warn, error), and DEBUG=true
// forces debug. SetupOutput adds a size-rotated file when LOG_FILE is set.
package logging

// Package sqlitescrub produces a scrubbed, defragmented copy of a
// single-file B-tree database (the well-known format popularized by a
// widely deployed embedded SQL engine).
//
// It reads a live source file under a read lock and writes a fresh
// destination file in which free-list pages are dropped, deleted-but-
// reusable byte ranges are zeroed, pages are renumbered densely, and
// auto-vacuum is disabled. It is not a general VACUUM: it does not rebuild
// indexes, re-sort rows, or rewrite the schema.
//
// # Basic usage
//
//	result := sqlitescrub.ScrubAndDefrag("source.db", "scrubbed.db")
//	if !result.Ok() {
//	    log.Fatal(result.Err)
//	}
package sqlitescrub

import "github.com/nanazhai/sqlitescrub/internal/scrubengine"

// Result reports the outcome of one scrub-and-defrag run.
type Result = scrubengine.Result

// ScrubAndDefrag reads sourcePath under a read lock and writes a scrubbed,
// defragmented copy to destPath. destPath must not already exist as a
// populated database; the destination is built under a temporary name and
// renamed into place only on success, so a failed run never clobbers an
// existing file at destPath.
func ScrubAndDefrag(sourcePath, destPath string) Result {
	return scrubengine.New(false).Run(sourcePath, destPath)
}

// ScrubAndDefragVerbose is ScrubAndDefrag but logs each step via the
// standard logger as it runs.
func ScrubAndDefragVerbose(sourcePath, destPath string) Result {
	return scrubengine.New(true).Run(sourcePath, destPath)
}

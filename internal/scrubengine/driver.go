// Package scrubengine drives one scrub-and-defrag run end to end: it opens
// the source and destination databases through the embedded SQL engine
// collaborator, pins raw file handles for offset-based page I/O, and
// orchestrates the pager package's HeaderFixer, Rewriter, and Relocate.
package scrubengine

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nanazhai/sqlitescrub/internal/pager"
)

// Result reports the outcome of one Run.
type Result struct {
	RunID        string
	SourcePages  uint32
	DestPages    uint32
	FreelistDrop uint32
	Err          *pager.Failure
}

// Ok reports whether the run completed without error.
func (r Result) Ok() bool { return r.Err == nil }

// Driver runs scrub-and-defrag jobs. Each Run opens, and closes before it
// returns, its own control-plane SQL connections (PRAGMAs, transactions,
// the schema-catalog query/fixup) and raw file handles for page-level I/O.
type Driver struct {
	verbose bool
}

// New creates a Driver. verbose, if true, causes Run to log each step via
// the standard logger.
func New(verbose bool) *Driver { return &Driver{verbose: verbose} }

func (d *Driver) logf(format string, args ...any) {
	if d.verbose {
		log.Printf(format, args...)
	}
}

// Run performs one scrub-and-defrag of sourcePath into destPath. destPath
// must not already exist as a populated database; a fresh file is created
// via a temporary name and renamed into place only on success, so a failed
// run never clobbers a prior destination.
func (d *Driver) Run(sourcePath, destPath string) Result {
	runID := uuid.NewString()
	result := Result{RunID: runID}
	d.logf("run %s: scrubbing %s -> %s", runID, sourcePath, destPath)

	errs := &pager.ErrorChannel{}
	fail := func(kind pager.Kind, msg string) Result {
		errs.Fail(kind, 0, "", msg)
		result.Err = errs.Failure()
		return result
	}

	// Opened read-write so the WAL checkpoint below can run; "read-only to
	// writers" is enforced by the held read transaction's shared lock, not
	// by the open mode itself.
	srcDB, err := sql.Open("sqlite", "file:"+sourcePath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("open source: %v", err))
	}
	defer srcDB.Close()
	srcDB.SetMaxOpenConns(1) // single-threaded run; one source connection throughout

	if _, err := srcDB.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("checkpoint source: %v", err))
	}

	srcTx, err := srcDB.Begin()
	if err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("begin source read transaction: %v", err))
	}
	defer srcTx.Rollback()
	if _, err := srcTx.Exec("SELECT count(*) FROM sqlite_master"); err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("acquire source read lock: %v", err))
	}

	var szPage, nSrcPage, nFreePage uint32
	if err := srcTx.QueryRow("PRAGMA page_size").Scan(&szPage); err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("page_size: %v", err))
	}
	if err := srcTx.QueryRow("PRAGMA page_count").Scan(&nSrcPage); err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("page_count: %v", err))
	}
	if err := srcTx.QueryRow("PRAGMA freelist_count").Scan(&nFreePage); err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("freelist_count: %v", err))
	}
	if !pager.ValidPageSize(szPage) {
		return fail(pager.KindCorrupt, fmt.Sprintf("invalid source page size %d", szPage))
	}

	rows, err := queryCatalogRows(srcTx)
	if err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("read schema catalog: %v", err))
	}

	tmpPath := fmt.Sprintf("%s.tmp-%s", destPath, runID)
	destDB, err := sql.Open("sqlite", "file:"+tmpPath)
	if err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("create destination: %v", err))
	}
	defer destDB.Close()
	defer os.Remove(tmpPath)
	// Pinned to one connection: the exclusive transaction below must be
	// begun, queried, and committed against the same underlying connection,
	// which a pooled *sql.DB does not otherwise guarantee.
	destDB.SetMaxOpenConns(1)

	if _, err := destDB.Exec(fmt.Sprintf("PRAGMA page_size=%d", szPage)); err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("set destination page size: %v", err))
	}
	if _, err := destDB.Exec("PRAGMA journal_mode=OFF"); err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("disable destination journal: %v", err))
	}
	// database/sql's own Tx type only ever issues a plain BEGIN; the
	// exclusive lock this needs is driven as a raw statement against the
	// *sql.DB instead, mirroring vacuum.c's sqlite3_exec("BEGIN EXCLUSIVE").
	if _, err := destDB.Exec("BEGIN EXCLUSIVE"); err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("begin exclusive: %v", err))
	}
	rollback := func() { destDB.Exec("ROLLBACK") }

	var nDestInitial uint32
	if err := destDB.QueryRow("PRAGMA page_count").Scan(&nDestInitial); err != nil {
		rollback()
		return fail(pager.KindSQL, fmt.Sprintf("destination page_count: %v", err))
	}
	if nDestInitial > 1 {
		rollback()
		return fail(pager.KindInternal, fmt.Sprintf("destination not empty: %d pages", nDestInitial))
	}

	srcFile, err := os.Open(sourcePath)
	if err != nil {
		rollback()
		return fail(pager.KindIO, fmt.Sprintf("open source file: %v", err))
	}
	defer srcFile.Close()
	destFile, err := os.OpenFile(tmpPath, os.O_RDWR, 0o644)
	if err != nil {
		rollback()
		return fail(pager.KindIO, fmt.Sprintf("open destination file: %v", err))
	}
	defer destFile.Close()

	io := pager.NewPageIO(srcFile, destFile, szPage)
	nDestPageHint := nSrcPage - nFreePage
	io.SetDestPageCount(nDestPageHint + 1) // +1 slack: HeaderFixer's -1 adjustment only shrinks

	page1, err := io.ReadPage(1)
	if err != nil {
		rollback()
		return fail(pager.KindIO, fmt.Sprintf("read source page 1: %v", err))
	}

	nDestPage := pager.FixHeader(page1, nSrcPage, nFreePage, szPage)
	io.SetDestPageCount(nDestPage)
	d.logf("run %s: %d source pages, %d freelist pages dropped, %d destination pages", runID, nSrcPage, nFreePage, nDestPage)

	allocator := pager.NewAllocator(pager.LockPage(szPage))
	szUsable := szPage - uint32(page1[20])
	rewriter := pager.NewRewriter(io, allocator, errs, page1, szPage, szUsable)

	relocations := pager.Relocate(rewriter, allocator, errs, rows)
	if !errs.Ok() {
		rollback()
		result.Err = errs.Failure()
		return result
	}

	if _, err := destDB.Exec("COMMIT"); err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("commit destination: %v", err))
	}
	destFile.Close()
	srcFile.Close()

	// The rewrite above wrote pages directly to the file, bypassing this
	// connection's page cache entirely. Reopen a fresh connection rather
	// than reuse destDB, so the schema-catalog fixup below reads the pages
	// we actually wrote instead of a stale cached copy (spec.md §4.7 step 4).
	destDB.Close()
	fixupDB, err := sql.Open("sqlite", "file:"+tmpPath)
	if err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("reopen destination: %v", err))
	}
	defer fixupDB.Close()
	fixupDB.SetMaxOpenConns(1)

	if err := applyCatalogFixups(fixupDB, relocations); err != nil {
		return fail(pager.KindSQL, fmt.Sprintf("catalog fixup: %v", err))
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fail(pager.KindIO, fmt.Sprintf("rename destination into place: %v", err))
	}

	result.SourcePages = nSrcPage
	result.DestPages = nDestPage
	result.FreelistDrop = nFreePage
	return result
}

func queryCatalogRows(tx *sql.Tx) ([]pager.CatalogRow, error) {
	rs, err := tx.Query("SELECT type, name, rootpage FROM sqlite_master WHERE rootpage > 0")
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var rows []pager.CatalogRow
	for rs.Next() {
		var row pager.CatalogRow
		if err := rs.Scan(&row.Type, &row.Name, &row.RootPage); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

// applyCatalogFixups runs the accumulated root-page UPDATE script against
// db (the reopened destination) inside writable_schema mode, per spec.md §4.7.
func applyCatalogFixups(db *sql.DB, relocations []pager.Relocation) error {
	if len(relocations) == 0 {
		return nil
	}
	if _, err := db.Exec("PRAGMA writable_schema=ON"); err != nil {
		return err
	}
	defer db.Exec("PRAGMA writable_schema=OFF")

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	for _, reloc := range relocations {
		_, err := tx.Exec(
			"UPDATE sqlite_master SET rootpage=? WHERE rootpage=? AND name=? AND type=?",
			reloc.NewRoot, reloc.Row.RootPage, reloc.Row.Name, reloc.Row.Type,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

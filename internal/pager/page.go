package pager

import (
	"fmt"
	"os"
)

// ───────────────────────────────────────────────────────────────────────────
// Page geometry
// ───────────────────────────────────────────────────────────────────────────
//
// A page is a fixed-size byte buffer of szPage bytes, szPage one of the
// values below. Page numbers are 1-based; page 1 is the database header
// page. One page number per file, LockPage(szPage), is reserved for OS-level
// byte-range locking and never holds content.

const (
	MinPageSize = 512
	MaxPageSize = 65536

	// lockByteOffset is the fixed byte offset the format reserves for
	// PENDING_BYTE-style locking; LockPage returns the page that offset
	// falls on for a given page size.
	lockByteOffset = 1073742335
)

// ValidPageSize reports whether szPage is one of the format's legal,
// power-of-two page sizes.
func ValidPageSize(szPage uint32) bool {
	if szPage < MinPageSize || szPage > MaxPageSize {
		return false
	}
	return szPage&(szPage-1) == 0
}

// LockPage returns the 1-based page number reserved for byte-range locking
// for the given page size. Both source and destination skip this page
// number; it never holds content.
func LockPage(szPage uint32) uint32 {
	return uint32(lockByteOffset/szPage) + 1
}

// HeaderPrefix returns the number of bytes of 100-byte file header that
// precede the B-tree page content on the given page number (100 for page 1,
// 0 otherwise).
func HeaderPrefix(pgno uint32) uint32 {
	if pgno == 1 {
		return 100
	}
	return 0
}

// ───────────────────────────────────────────────────────────────────────────
// PageIO
// ───────────────────────────────────────────────────────────────────────────

// PageIO performs offset-based page reads from a source file and page
// writes to a destination file. The caller is expected to read page 1 once
// and hold it in memory for the whole run; PageIO itself caches nothing and
// reads or writes only the pages the caller asks for.
type PageIO struct {
	src  *os.File
	dest *os.File

	szPage    uint32
	nDestPage uint32 // destination page count; writes beyond this are a bug
}

// NewPageIO wraps the given source/destination file handles.
func NewPageIO(src, dest *os.File, szPage uint32) *PageIO {
	return &PageIO{src: src, dest: dest, szPage: szPage}
}

// SetDestPageCount records the destination's page count so WritePage can
// bounds-check every write against it.
func (io *PageIO) SetDestPageCount(n uint32) { io.nDestPage = n }

// ReadPage reads page pgno from the source file into a freshly allocated
// buffer of szPage bytes.
func (io *PageIO) ReadPage(pgno uint32) ([]byte, error) {
	buf := make([]byte, io.szPage)
	off := int64(pgno-1) * int64(io.szPage)
	n, err := io.src.ReadAt(buf, off)
	if err != nil || n != len(buf) {
		return nil, fmt.Errorf("read failed for page %d: %w", pgno, err)
	}
	return buf, nil
}

// WritePage writes buf (exactly szPage bytes) to the destination file at
// page number pgno. pgno must be <= the destination's page count.
func (io *PageIO) WritePage(pgno uint32, buf []byte) error {
	if io.nDestPage != 0 && pgno > io.nDestPage {
		return fmt.Errorf("internal error: destination page %d exceeds page count %d", pgno, io.nDestPage)
	}
	off := int64(pgno-1) * int64(io.szPage)
	if _, err := io.dest.WriteAt(buf, off); err != nil {
		return fmt.Errorf("write failed for page %d: %w", pgno, err)
	}
	return nil
}

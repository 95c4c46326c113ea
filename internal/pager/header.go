package pager

// ───────────────────────────────────────────────────────────────────────────
// HeaderFixer
// ───────────────────────────────────────────────────────────────────────────
//
// Page 1 carries the 100-byte database header ahead of the schema B-tree's
// own content. FixHeader adjusts the four fields that change between source
// and destination; every other header byte (page size, text encoding,
// schema cookie, reserved-tail width, and so on) passes through untouched
// because it is mutating the same in-memory buffer that was read from the
// source.

const (
	hdrOffPageCount     = 28
	hdrOffFreelistTrunk = 32
	hdrOffFreelistCount = 36
	hdrOffAutoVacuum    = 52
)

// FixHeader rewrites page 1's header in place: sets the destination page
// count, zeroes the freelist trunk pointer and count, and disables
// auto-vacuum. nSrcPage, nFreePage, and szPage describe the source; iLock is
// the lock page number for szPage.
//
// nDestPage = nSrcPage - nFreePage, with one further adjustment: if the
// source's page range crossed iLock (nSrcPage >= iLock) but the dense
// destination's range would not (nDestPage < iLock), the destination is
// shortened by one more page, because a dense destination that never
// reaches iLock must not claim a page count that implies it did.
func FixHeader(page1 []byte, nSrcPage, nFreePage, szPage uint32) uint32 {
	iLock := LockPage(szPage)
	nDestPage := nSrcPage - nFreePage
	if nSrcPage >= iLock && nDestPage < iLock {
		nDestPage--
	}

	WriteU32(page1[hdrOffPageCount:], nDestPage)
	WriteU32(page1[hdrOffFreelistTrunk:], 0)
	WriteU32(page1[hdrOffFreelistCount:], 0)
	WriteU32(page1[hdrOffAutoVacuum:], 0)

	return nDestPage
}

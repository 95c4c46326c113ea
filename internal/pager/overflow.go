package pager

// ───────────────────────────────────────────────────────────────────────────
// OverflowCopier
// ───────────────────────────────────────────────────────────────────────────
//
// Payload too large to fit locally in a cell spills into a chain of overflow
// pages: [nextPageNumber:u32 BE][payload...], terminated by nextPageNumber
// == 0. CopyOverflowChain walks the chain, renumbering each page densely in
// the destination and zeroing whatever tail of the final page held no live
// payload.

// CopyOverflowChain copies the overflow chain starting at srcHead, carrying
// nByteRemaining bytes of live payload, from io's source to its destination.
// allocator supplies fresh destination page numbers; errs records any
// failure. szUsable is the usable page size (szPage - reserved tail).
//
// The caller must have captured the chain head's destination number via
// allocator.Peek() (without advancing) before calling, matching the
// convention documented on Rewrite: this function consumes that exact slot
// itself, via allocator.Next(), once per chain page just before that page is
// written.
func CopyOverflowChain(io *PageIO, allocator *Allocator, errs *ErrorChannel, srcHead uint32, nByteRemaining int64, szUsable uint32) {
	pgno := srcHead
	capacity := int64(szUsable) - 4

	for nByteRemaining > 0 && pgno != 0 {
		if !errs.Ok() {
			return
		}

		buf, err := io.ReadPage(pgno)
		if err != nil {
			errs.Fail(KindIO, pgno, "overflow-read", err.Error())
			return
		}

		if nByteRemaining >= capacity {
			nByteRemaining -= capacity
		} else {
			tailStart := 4 + nByteRemaining
			for i := tailStart; i < int64(szUsable); i++ {
				buf[i] = 0
			}
			nByteRemaining = 0
		}

		nextSrc := ReadU32(buf)
		thisDestPgno := allocator.Next()
		if nextSrc != 0 {
			WriteU32(buf, allocator.Peek())
		}

		if err := io.WritePage(thisDestPgno, buf); err != nil {
			errs.Fail(KindIO, pgno, "overflow-write", err.Error())
			return
		}

		pgno = nextSrc
	}
}

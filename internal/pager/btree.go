package pager

// ───────────────────────────────────────────────────────────────────────────
// B-tree page kinds
// ───────────────────────────────────────────────────────────────────────────

const (
	KindInteriorIndex = 0x02
	KindInteriorTable = 0x05
	KindLeafIndex     = 0x0a
	KindLeafTable     = 0x0d
)

const maxDepth = 50

func isInterior(kind byte) bool {
	return kind == KindInteriorIndex || kind == KindInteriorTable
}

func hasPayload(kind byte) bool {
	return kind == KindInteriorIndex || kind == KindLeafIndex || kind == KindLeafTable
}

func headerSize(kind byte) uint32 {
	if isInterior(kind) {
		return 12
	}
	return 8
}

// overflowThresholds computes X, M for a usable page size szUsable and page
// kind, per the format's documented formulas.
func overflowThresholds(szUsable uint32, kind byte) (x, m int64) {
	u := int64(szUsable)
	if kind == KindLeafTable {
		x = u - 35
	} else {
		x = ((u-12)*64)/255 - 23
	}
	m = ((u-12)*32)/255 - 23
	return x, m
}

// localPayload returns the number of payload bytes nLocal stored on the
// B-tree page itself, given the full payload size p.
func localPayload(szUsable uint32, kind byte, p int64) int64 {
	x, m := overflowThresholds(szUsable, kind)
	if p <= x {
		return p
	}
	u := int64(szUsable)
	k := m + ((p - m) % (u - 4))
	if k <= x {
		return k
	}
	return m
}

// ───────────────────────────────────────────────────────────────────────────
// BTreePageRewriter
// ───────────────────────────────────────────────────────────────────────────
//
// Rewriter walks one B-tree, page by page, renumbering it densely into the
// destination. Destination numbers for children and overflow chains are
// allocated before recursion, so a parent's pointers are correct the single
// time the parent itself is written.

type Rewriter struct {
	io        *PageIO
	allocator *Allocator
	errs      *ErrorChannel
	szPage    uint32
	szUsable  uint32
	page1     []byte // source page 1, pinned in memory for the whole run
}

// NewRewriter builds a Rewriter over the given PageIO/Allocator/ErrorChannel.
// page1 is the already-loaded, already-header-fixed buffer for source page
// 1; szUsable is szPage minus the reserved tail.
func NewRewriter(io *PageIO, allocator *Allocator, errs *ErrorChannel, page1 []byte, szPage, szUsable uint32) *Rewriter {
	return &Rewriter{io: io, allocator: allocator, errs: errs, szPage: szPage, szUsable: szUsable, page1: page1}
}

// Rewrite parses the page at srcPgno, zeroes its unused regions, recurses
// into children and overflow chains, and writes the rewritten buffer to its
// own destination number. The caller (or, for the root page itself, the
// caller of Rewrite) must have already captured this page's destination
// number via allocator.Peek() without advancing past it — Rewrite consumes
// that exact slot itself, via allocator.Next(), as its first action, so a
// pointer written into a parent page always matches the number the
// pointed-to child's own Rewrite call consumes.
//
// Because every page in the subtree (including srcPgno itself) consumes its
// slot via allocator.Next() on entry, the allocator's counter already sits
// at the next free slot once the walk returns — a caller relocating the
// next schema-catalog root (see Relocate) can read that slot straight off
// allocator.Peek(), with no further bookkeeping needed here.
func (r *Rewriter) Rewrite(srcPgno uint32, depth int) {
	if !r.errs.Ok() {
		return
	}
	if depth > maxDepth {
		r.errs.Corrupt(srcPgno, "max-depth")
		return
	}

	thisDestPgno := r.allocator.Next()

	var buf []byte
	nPrefix := HeaderPrefix(srcPgno)
	if srcPgno == 1 {
		buf = r.page1
	} else {
		b, err := r.io.ReadPage(srcPgno)
		if err != nil {
			r.errs.Fail(KindIO, srcPgno, "read", err.Error())
			return
		}
		buf = b
	}

	body := buf[nPrefix:]
	kind := body[0]
	if kind != KindInteriorIndex && kind != KindInteriorTable && kind != KindLeafIndex && kind != KindLeafTable {
		r.errs.Corrupt(srcPgno, "page-kind")
		return
	}
	szHdr := headerSize(kind)

	freeBlockOff := ReadU16(body[1:])
	nCell := ReadU16(body[3:])
	cellStart := uint32(ReadU16(body[5:]))
	if cellStart == 0 {
		cellStart = r.szUsable // 0 encodes szUsable for a 65536-wide page
	}

	szUsable := r.szUsable
	if cellStart < szHdr+nPrefix+2*uint32(nCell) || cellStart > szUsable {
		r.errs.Corrupt(srcPgno, "cell-start-range")
		return
	}

	cellPtrBase := nPrefix + szHdr
	cellPtrEnd := cellPtrBase + 2*uint32(nCell)

	// Step 4: zero the gap between the cell-pointer array and cellStart.
	for i := cellPtrEnd; i < cellStart; i++ {
		buf[i] = 0
	}

	// Step 5: walk the free-block chain, zeroing each block's unused body.
	if !r.zeroFreeBlocks(buf, srcPgno, nPrefix, cellStart, freeBlockOff, szUsable) {
		return
	}

	// Step 6/7: walk cells, recursing into children and overflow chains.
	for i := uint32(0); i < uint32(nCell); i++ {
		if !r.errs.Ok() {
			return
		}
		ptrOff := cellPtrBase + 2*i
		pc := uint32(ReadU16(buf[ptrOff:]))
		if pc <= szHdr || pc > szUsable-3 {
			r.errs.Corrupt(srcPgno, "cell-pointer-range")
			return
		}
		cellOff := pc

		payloadOff := cellOff
		if isInterior(kind) {
			leftChild := ReadU32(buf[cellOff:])
			newChild := r.allocator.Peek()
			WriteU32(buf[cellOff:], newChild)
			r.Rewrite(leftChild, depth+1)
			if !r.errs.Ok() {
				return
			}
			if kind == KindInteriorTable {
				continue
			}
			payloadOff = cellOff + 4 // past the left-child pointer
		}

		if hasPayload(kind) {
			p, nP := DecodeVarint(buf[payloadOff:])
			off := payloadOff + uint32(nP)
			if kind == KindLeafTable {
				_, nRowID := DecodeVarint(buf[off:])
				off += uint32(nRowID)
			}

			x, _ := overflowThresholds(szUsable, kind)
			if p > x {
				nLocal := localPayload(szUsable, kind, p)
				ovOff := off + uint32(nLocal)
				srcHead := ReadU32(buf[ovOff:])
				newHead := r.allocator.Peek()
				WriteU32(buf[ovOff:], newHead)
				CopyOverflowChain(r.io, r.allocator, r.errs, srcHead, p-nLocal, szUsable)
			}
		}
	}

	// Step 7 (continued): interior right-child pointer.
	if isInterior(kind) {
		rc := ReadU32(buf[nPrefix+8:])
		newRC := r.allocator.Peek()
		WriteU32(buf[nPrefix+8:], newRC)
		r.Rewrite(rc, depth+1)
		if !r.errs.Ok() {
			return
		}
	}

	if err := r.io.WritePage(thisDestPgno, buf); err != nil {
		r.errs.Fail(KindIO, srcPgno, "write", err.Error())
	}
}

// zeroFreeBlocks walks the free-block chain starting at the page's header
// free-block offset (pc, from the start of the page), zeroing bytes [pc+4, pc+size)
// of each block. Every block must lie at or after cellStart (a free block
// can't sit inside the header/cell-pointer-array region) and the chain must
// strictly increase in offset, since SQLite always links free blocks in
// ascending order; either violation means a corrupt or hostile chain that
// the loop-count cap alone wouldn't reliably catch. Returns false if it
// recorded an error.
func (r *Rewriter) zeroFreeBlocks(buf []byte, srcPgno uint32, nPrefix, cellStart uint32, firstOff uint16, szUsable uint32) bool {
	pc := uint32(firstOff)
	hdr := headerSize(buf[nPrefix])
	seen := 0
	prev := uint32(0)
	for pc != 0 {
		seen++
		if seen > int(szUsable) {
			r.errs.Corrupt(srcPgno, "freeblock-loop")
			return false
		}
		if pc < hdr || pc > szUsable-4 {
			r.errs.Corrupt(srcPgno, "freeblock-range")
			return false
		}
		if pc < cellStart {
			r.errs.Corrupt(srcPgno, "freeblock-before-content-area")
			return false
		}
		if prev != 0 && pc <= prev {
			r.errs.Corrupt(srcPgno, "freeblock-non-increasing")
			return false
		}
		abs := pc
		size := uint32(ReadU16(buf[abs+2:]))
		if size < 4 || pc+size > szUsable {
			r.errs.Corrupt(srcPgno, "freeblock-size")
			return false
		}
		for i := abs + 4; i < abs+size; i++ {
			buf[i] = 0
		}
		prev = pc
		pc = uint32(ReadU16(buf[abs:]))
	}
	return true
}

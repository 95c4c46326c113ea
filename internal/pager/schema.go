package pager

import "sort"

// ───────────────────────────────────────────────────────────────────────────
// SchemaRelocator
// ───────────────────────────────────────────────────────────────────────────
//
// The schema catalog (the B-tree rooted at page 1) names every table and
// index's root page by number. Relocator rewrites each of those root
// B-trees in turn and records the old→new root-page mapping, so the caller
// can emit a single catalog-update script against the destination.

// CatalogRow is one row of the source schema catalog: an object's type,
// name, and root page number, as needed to relocate and re-point it.
type CatalogRow struct {
	Type     string // "table", "index", or anything else
	Name     string
	RootPage uint32
}

// Relocation is one old→new root-page mapping produced by Relocate, in the
// exact order the catalog-update script must apply them.
type Relocation struct {
	Row     CatalogRow
	NewRoot uint32
}

// sortKey returns the relocation ordering's primary sort key: rows of any
// other type first, then index rows, then table rows.
func sortKey(row CatalogRow) int {
	switch row.Type {
	case "index":
		return 1
	case "table":
		return 2
	default:
		return 0
	}
}

// OrderCatalogRows sorts rows (already filtered to RootPage > 0) into the
// relocation order: primary key type-rank (other, index, table), secondary
// key RootPage ascending. The sort is stable so callers passing
// already-source-ordered rows get deterministic output across runs.
func OrderCatalogRows(rows []CatalogRow) []CatalogRow {
	ordered := make([]CatalogRow, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		ki, kj := sortKey(ordered[i]), sortKey(ordered[j])
		if ki != kj {
			return ki < kj
		}
		return ordered[i].RootPage < ordered[j].RootPage
	})
	return ordered
}

// Relocate rewrites the schema B-tree itself (root page 1, via rewriter),
// then rewrites each row's root B-tree in turn, recording old→new mappings
// in the exact order needed for the catalog-update script.
//
// The new root page number for a row is read from the allocator *before*
// that row's tree is rewritten (allocator.Peek() at that point equals the
// destination number the rewrite will assign to the root, because
// Rewriter.Rewrite consumes its own destination slot via allocator.Next()
// as the first thing it does, and every page in a finished subtree has
// likewise already consumed its slot on entry — so by the time one
// Rewrite call returns, allocator.Peek() already names the very next free
// slot, which is exactly where the next root will land).
func Relocate(rewriter *Rewriter, allocator *Allocator, errs *ErrorChannel, rows []CatalogRow) []Relocation {
	rewriter.Rewrite(1, 0)
	if !errs.Ok() {
		return nil
	}

	ordered := OrderCatalogRows(rows)
	relocations := make([]Relocation, 0, len(ordered))

	for _, row := range ordered {
		if !errs.Ok() {
			return relocations
		}
		newRoot := allocator.Peek()
		rewriter.Rewrite(row.RootPage, 0)
		if !errs.Ok() {
			return relocations
		}
		relocations = append(relocations, Relocation{Row: row, NewRoot: newRoot})
	}

	return relocations
}

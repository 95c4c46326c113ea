package pager

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyOverflowChain_ZeroesTailOfFinalPage(t *testing.T) {
	dir := t.TempDir()
	src, err := os.Create(filepath.Join(dir, "src.db"))
	if err != nil {
		t.Fatalf("create src: %v", err)
	}
	defer src.Close()
	dest, err := os.Create(filepath.Join(dir, "dest.db"))
	if err != nil {
		t.Fatalf("create dest: %v", err)
	}
	defer dest.Close()

	szPage := uint32(512)
	szUsable := szPage
	capacity := int64(szUsable) - 4

	// Two-page chain: page 2 full, page 3 holds the remaining 10 bytes and
	// is padded with garbage in its unused tail.
	page2 := make([]byte, szPage)
	WriteU32(page2, 3) // next = page 3
	for i := 4; i < int(szPage); i++ {
		page2[i] = 0x11
	}

	page3 := make([]byte, szPage)
	WriteU32(page3, 0) // chain terminator
	for i := 4; i < 14; i++ {
		page3[i] = 0x22 // 10 live bytes
	}
	for i := 14; i < int(szPage); i++ {
		page3[i] = 0xff // garbage, must be zeroed
	}

	if _, err := src.WriteAt(page2, int64(szPage)); err != nil {
		t.Fatalf("seed page2: %v", err)
	}
	if _, err := src.WriteAt(page3, int64(2*szPage)); err != nil {
		t.Fatalf("seed page3: %v", err)
	}

	io := NewPageIO(src, dest, szPage)
	io.SetDestPageCount(3)
	allocator := NewAllocator(LockPage(szPage))
	allocator.Next() // consume dest page 1, as the real caller would have
	errs := &ErrorChannel{}

	nBytes := capacity + 10
	CopyOverflowChain(io, allocator, errs, 2, nBytes, szUsable)
	if !errs.Ok() {
		t.Fatalf("unexpected error: %v", errs.Err())
	}

	gotPage2 := make([]byte, szPage)
	if _, err := dest.ReadAt(gotPage2, int64(szPage)); err != nil {
		t.Fatalf("read dest page 2: %v", err)
	}
	if ReadU32(gotPage2) != 3 {
		t.Fatalf("dest page 2 next pointer: got %d, want 3", ReadU32(gotPage2))
	}

	gotPage3 := make([]byte, szPage)
	if _, err := dest.ReadAt(gotPage3, int64(2*szPage)); err != nil {
		t.Fatalf("read dest page 3: %v", err)
	}
	if ReadU32(gotPage3) != 0 {
		t.Fatalf("dest page 3 next pointer: got %d, want 0 (terminator)", ReadU32(gotPage3))
	}
	for i := 4; i < 14; i++ {
		if gotPage3[i] != 0x22 {
			t.Fatalf("live payload byte %d corrupted: %#x", i, gotPage3[i])
		}
	}
	for i := 14; i < int(szPage); i++ {
		if gotPage3[i] != 0 {
			t.Fatalf("tail byte %d not zeroed: %#x", i, gotPage3[i])
		}
	}
}

package scrubengine

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestResult_Ok(t *testing.T) {
	ok := Result{}
	if !ok.Ok() {
		t.Fatal("zero-value Result: want Ok() true")
	}
}

func TestNew_DefaultsQuiet(t *testing.T) {
	d := New(false)
	if d.verbose {
		t.Fatal("New(false): want verbose false")
	}
	d2 := New(true)
	if !d2.verbose {
		t.Fatal("New(true): want verbose true")
	}
}

// TestDriver_Run_PreservesLiveRows mirrors S1/S2: a single table with a few
// rows, one of them deleted, scrubbed into a fresh destination. Every
// surviving row must read back identically.
func TestDriver_Run_PreservesLiveRows(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.db")
	destPath := filepath.Join(dir, "dest.db")

	src, err := sql.Open("sqlite", "file:"+srcPath)
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	if _, err := src.Exec("CREATE TABLE t(x INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, v := range []int{1, 2, 3} {
		if _, err := src.Exec("INSERT INTO t(x) VALUES (?)", v); err != nil {
			t.Fatalf("insert %d: %v", v, err)
		}
	}
	if _, err := src.Exec("DELETE FROM t WHERE x = 2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("close source: %v", err)
	}

	d := New(false)
	result := d.Run(srcPath, destPath)
	if !result.Ok() {
		t.Fatalf("Run failed: %v", result.Err)
	}

	dest, err := sql.Open("sqlite", "file:"+destPath)
	if err != nil {
		t.Fatalf("open destination: %v", err)
	}
	defer dest.Close()

	rows, err := dest.Query("SELECT x FROM t ORDER BY x")
	if err != nil {
		t.Fatalf("query destination: %v", err)
	}
	defer rows.Close()

	var got []int
	for rows.Next() {
		var x int
		if err := rows.Scan(&x); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, x)
	}
	want := []int{1, 3}
	if len(got) != len(want) {
		t.Fatalf("got rows %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got rows %v, want %v", got, want)
		}
	}

	var freelistCount uint32
	if err := dest.QueryRow("PRAGMA freelist_count").Scan(&freelistCount); err != nil {
		t.Fatalf("freelist_count: %v", err)
	}
	if freelistCount != 0 {
		t.Fatalf("destination freelist_count: got %d, want 0", freelistCount)
	}
}

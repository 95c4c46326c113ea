package sqlitescrub

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestScrubAndDefrag_EmptyTable(t *testing.T) {
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
	if err := src.Close(); err != nil {
		t.Fatalf("close source: %v", err)
	}

	result := ScrubAndDefrag(srcPath, destPath)
	if !result.Ok() {
		t.Fatalf("ScrubAndDefrag failed: %v", result.Err)
	}

	dest, err := sql.Open("sqlite", "file:"+destPath)
	if err != nil {
		t.Fatalf("open destination: %v", err)
	}
	defer dest.Close()

	var name string
	err = dest.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='t'").Scan(&name)
	if err != nil {
		t.Fatalf("destination missing table t: %v", err)
	}
}

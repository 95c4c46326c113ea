// Command sqlitescrub reads a live single-file B-tree database and writes a
// scrubbed, defragmented copy: free-list pages dropped, deleted byte ranges
// zeroed, pages renumbered densely, auto-vacuum disabled.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/nanazhai/sqlitescrub/internal/scrubengine"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("sqlitescrub", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: sqlitescrub [OPTIONS] SOURCE DEST\n")
		fs.PrintDefaults()
	}
	verbose := fs.Bool("verbose", false, "log each step of the run")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	rest := fs.Args()
	if len(rest) != 2 {
		fs.Usage()
		return 1
	}
	sourcePath, destPath := rest[0], rest[1]

	d := scrubengine.New(*verbose)
	result := d.Run(sourcePath, destPath)
	if !result.Ok() {
		fmt.Fprintf(os.Stderr, "sqlitescrub: %v\n", result.Err)
		return 1
	}

	dropped := result.SourcePages - result.DestPages
	fmt.Printf(
		"scrubbed %s -> %s: %s source pages, %s destination pages, %s freed\n",
		sourcePath, destPath,
		humanize.Comma(int64(result.SourcePages)),
		humanize.Comma(int64(result.DestPages)),
		humanize.Comma(int64(dropped)),
	)
	return 0
}

// Command romaudit imports Logiqx-style DAT catalogs into a persistent
// index and audits filesystem collections against them.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/ryanm101/romaudit/internal/config"
	"github.com/ryanm101/romaudit/internal/datadir"
	"github.com/ryanm101/romaudit/internal/logging"
	"github.com/ryanm101/romaudit/internal/metrics"
	"github.com/ryanm101/romaudit/internal/store"
	"github.com/ryanm101/romaudit/internal/tracing"
)

// session carries the state a sequence of commands shares: the open store,
// the currently selected catalog, and the global output flags.
type session struct {
	ctx     context.Context
	store   *store.Store
	current *store.DatID
	json    bool
	quiet   bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(logging.Config{Format: cfg.Logging.Format, Level: cfg.Logging.Level})

	ctx := context.Background()
	shutdown, err := tracing.Setup(ctx, tracing.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: tracing setup: %v\n", err)
	}
	defer func() { _ = shutdown(ctx) }()

	dbPath := cfg.DBPath
	if dbPath == "" {
		dir, err := datadir.Resolve()
		if err != nil {
			fmt.Fprintf(os.Stderr, "romaudit: resolve data directory: %v\n", err)
			os.Exit(1)
		}
		dbPath = filepath.Join(dir, "romaudit.db")
	}

	if err := datadir.Backup(dbPath); err != nil {
		logging.Warn("failed to back up store before opening", "path", dbPath, "error", err)
	}

	st, err := store.Open(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: open store %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	if err := metrics.Snapshot(ctx, st.Conn()); err != nil {
		logging.Warn("failed to snapshot metrics", "error", err)
	}

	args, globalJSON, globalQuiet, selectIndex := parseGlobalFlags(os.Args[1:])
	sess := &session{ctx: ctx, store: st, json: globalJSON, quiet: globalQuiet}

	if selectIndex >= 0 {
		sess.selectDat(selectIndex)
	} else {
		sess.autoSelectFromCWD()
	}

	ttyIn := term.IsTerminal(int(os.Stdin.Fd()))

	if len(args) > 0 {
		sess.dispatch(args)
		return
	}

	if !ttyIn {
		return
	}

	sess.repl()
}

// parseGlobalFlags strips the auditor's global flags (--json, --quiet,
// --select=N) from the front of the argument list, returning the remaining
// command tokens.
func parseGlobalFlags(args []string) (rest []string, jsonOut, quiet bool, selectIndex int) {
	selectIndex = -1
	i := 0
	for i < len(args) {
		switch {
		case args[i] == "--json":
			jsonOut = true
		case args[i] == "--quiet":
			quiet = true
		case strings.HasPrefix(args[i], "--select="):
			if n, err := strconv.Atoi(strings.TrimPrefix(args[i], "--select=")); err == nil {
				selectIndex = n
			}
		case args[i] == "--select" && i+1 < len(args):
			if n, err := strconv.Atoi(args[i+1]); err == nil {
				selectIndex = n
			}
			i++
		default:
			return args[i:], jsonOut, quiet, selectIndex
		}
		i++
	}
	return nil, jsonOut, quiet, selectIndex
}

func (s *session) repl() {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("$ ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)
		if tokens[0] == "exit" || tokens[0] == "quit" {
			return
		}
		s.dispatch(tokens)
	}
}

func (s *session) dispatch(args []string) {
	switch args[0] {
	case "data":
		s.handleData(args[1:])
	case "files":
		s.handleFiles(args[1:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "romaudit: unknown command %q\n", args[0])
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`romaudit - catalog-driven ROM set auditor

Usage: romaudit [--json] [--quiet] [--select=N] <command> [args...]

Commands:
  data import <file>               Import a DAT file as a new catalog
  data update <file>                Refresh the selected catalog in place
  data remove                       Delete the selected catalog
  data list                         List imported catalogs
  data select <index>               Select a catalog by its list index
  data records                      Show every set and rom in the selected catalog
  data sets [partial-name]          Search sets in the selected catalog
  data roms [partial-name]          Search roms in the selected catalog

  files scan [--exclude=ext,...] [--recursive] [--full] [path]
                                     Scan a directory against the selected catalog
  files list [--mode=all|matched|warning|unmatched] [partial-name]
                                     List scanned files and their match status
  files sets [--missing] [partial-name]
                                     List sets covered (or missing) by scanned files
  files rename                      Rename hash-only matches to their catalog name

Running with no command and a connected terminal starts an interactive shell.`)
}

func (s *session) selectDat(index int) {
	dats, err := store.ListDats(s.ctx, s.store.Conn())
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: list catalogs: %v\n", err)
		return
	}
	if index < 0 || index >= len(dats) {
		fmt.Fprintln(os.Stderr, "romaudit: invalid catalog selection")
		return
	}
	id := dats[index].ID
	s.current = &id
	fmt.Printf("dat file `%s` selected.\n", dats[index].Name)
}

// autoSelectFromCWD mirrors the original tool's default: if the working
// directory was previously scanned under some catalog, that catalog
// becomes the active one without the user asking for it.
func (s *session) autoSelectFromCWD() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	cwd, err = filepath.Abs(cwd)
	if err != nil {
		return
	}
	dir, err := store.FindDirByAnyDatPath(s.ctx, s.store.Conn(), cwd)
	if err != nil {
		return
	}
	dat, err := store.GetDatByID(s.ctx, s.store.Conn(), dir.DatID)
	if err != nil {
		return
	}
	s.current = &dat.ID
	if !s.quiet {
		fmt.Printf("dat file `%s` selected.\n", dat.Name)
	}
}

func (s *session) requireCurrent() (store.DatID, bool) {
	if s.current == nil {
		fmt.Fprintln(os.Stderr, "romaudit: no dat file selected")
		return 0, false
	}
	return *s.current, true
}

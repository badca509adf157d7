package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"

	"github.com/ryanm101/romaudit/internal/rename"
	"github.com/ryanm101/romaudit/internal/scan"
	"github.com/ryanm101/romaudit/internal/store"
)

func (s *session) handleFiles(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "romaudit: files: missing subcommand")
		return
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "scan":
		s.filesScan(rest)
	case "list":
		s.filesList(rest)
	case "sets":
		s.filesSets(rest)
	case "rename":
		s.filesRename()
	default:
		fmt.Fprintf(os.Stderr, "romaudit: files: unknown subcommand %q\n", sub)
	}
}

func (s *session) filesScan(args []string) {
	datID, ok := s.requireCurrent()
	if !ok {
		return
	}
	dat, err := store.GetDatByID(s.ctx, s.store.Conn(), datID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: scan: %v\n", err)
		return
	}

	opts := scan.Options{Incremental: true}
	path := "."
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "--exclude="):
			opts.Exclude = strings.Split(strings.TrimPrefix(a, "--exclude="), ",")
		case a == "--recursive":
			opts.Recursive = true
		case a == "--full":
			opts.Incremental = false
		case !strings.HasPrefix(a, "--"):
			path = a
		}
	}

	root, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: scan: %v\n", err)
		return
	}

	var bar *progressbar.ProgressBar
	if !s.quiet {
		bar = progressbar.Default(-1, "scanning")
		opts.Progress = func(p scan.Progress) {
			bar.ChangeMax64(int64(p.FilesScanned))
			_ = bar.Set64(int64(p.FilesScanned))
		}
	}

	scanner := scan.New(s.store.Conn())
	result, err := scanner.Scan(s.ctx, dat, root, opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: scan: %v\n", err)
		return
	}
	fmt.Printf("\nscanned %d files under %s\n", result.FilesScanned, root)
}

func (s *session) filesList(args []string) {
	datID, ok := s.requireCurrent()
	if !ok {
		return
	}

	mode := "all"
	partial := ""
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "--mode="):
			mode = strings.TrimPrefix(a, "--mode=")
		case !strings.HasPrefix(a, "--"):
			partial = a
		}
	}

	dirs, err := store.ListDirsByDat(s.ctx, s.store.Conn(), datID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: files list: %v\n", err)
		return
	}

	for _, dir := range dirs {
		files, err := store.GetFilesByDir(s.ctx, s.store.Conn(), dir.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "romaudit: files list: %v\n", err)
			continue
		}
		for _, f := range files {
			if partial != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(partial)) {
				continue
			}
			matches, err := store.GetMatchesByFile(s.ctx, s.store.Conn(), f.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "romaudit: files list: %v\n", err)
				continue
			}
			status := store.StatusNone
			if len(matches) > 0 {
				status = matches[0].Status
			}
			if !listModeAllows(mode, status) {
				continue
			}
			fmt.Printf("%s %s  %s\n", statusIndicator(status), filepath.Join(dir.Path, f.Name), humanSize(f.Size))
		}
	}
}

// listModeAllows maps the files-list display modes onto match statuses, the
// way the original tool's ListMode enum did: "warning" is anything short of
// a clean exact match but still matched by content or name.
func listModeAllows(mode string, status store.MatchStatus) bool {
	switch mode {
	case "matched":
		return status == store.StatusMatch
	case "warning":
		return status == store.StatusHash || status == store.StatusName
	case "unmatched":
		return status == store.StatusNone
	default:
		return true
	}
}

func statusIndicator(status store.MatchStatus) string {
	switch status {
	case store.StatusMatch:
		return colorstring.Color("[green][OK][reset]")
	case store.StatusHash, store.StatusName:
		return colorstring.Color("[yellow][??][reset]")
	default:
		return colorstring.Color("[red][XX][reset]")
	}
}

func (s *session) filesSets(args []string) {
	datID, ok := s.requireCurrent()
	if !ok {
		return
	}

	missingOnly := false
	partial := ""
	for _, a := range args {
		switch {
		case a == "--missing":
			missingOnly = true
		case !strings.HasPrefix(a, "--"):
			partial = a
		}
	}

	sets, err := store.ListSetsByDat(s.ctx, s.store.Conn(), datID, partial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: files sets: %v\n", err)
		return
	}

	matchedRoms, err := store.GetMatchesByStatus(s.ctx, s.store.Conn(), datID, store.StatusMatch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: files sets: %v\n", err)
		return
	}
	matchedByRom := make(map[store.RomID]struct{}, len(matchedRoms))
	for _, m := range matchedRoms {
		matchedByRom[m.RomID] = struct{}{}
	}

	for _, set := range sets {
		roms, err := store.ListRomsBySet(s.ctx, s.store.Conn(), set.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "romaudit: files sets: %v\n", err)
			continue
		}
		matched := 0
		for _, r := range roms {
			if _, ok := matchedByRom[r.ID]; ok {
				matched++
			}
		}
		complete := len(roms) > 0 && matched == len(roms)
		if missingOnly && complete {
			continue
		}
		if !missingOnly && !complete {
			continue
		}
		fmt.Printf("%s (%d/%d roms matched)\n", set.Name, matched, len(roms))
	}
}

func (s *session) filesRename() {
	datID, ok := s.requireCurrent()
	if !ok {
		return
	}
	r := rename.New(s.store.Conn())
	renamed, err := r.Run(s.ctx, datID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: rename: %v\n", err)
		return
	}
	for _, ren := range renamed {
		fmt.Printf("%s: %s -> %s\n", ren.Dir, ren.OldName, ren.NewName)
	}
	fmt.Printf("renamed %d file(s)\n", len(renamed))
}

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ryanm101/romaudit/internal/catalog"
	"github.com/ryanm101/romaudit/internal/store"
)

func (s *session) handleData(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "romaudit: data: missing subcommand")
		return
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "import":
		s.dataImport(rest)
	case "update":
		s.dataUpdate(rest)
	case "remove":
		s.dataRemove()
	case "list":
		s.dataList()
	case "select":
		s.dataSelect(rest)
	case "records":
		s.dataRecords()
	case "sets":
		s.dataSets(rest)
	case "roms":
		s.dataRoms(rest)
	default:
		fmt.Fprintf(os.Stderr, "romaudit: data: unknown subcommand %q\n", sub)
	}
}

func (s *session) dataImport(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "romaudit: data import: missing DAT file path")
		return
	}
	imp := catalog.NewImporter(s.store.Conn())
	result, err := imp.Import(s.ctx, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: import %s: %v\n", args[0], err)
		return
	}
	s.current = &result.DatID
	fmt.Printf("imported %q: %d sets, %d roms\n", result.Name, result.SetsCount, result.RomsCount)
}

func (s *session) dataUpdate(args []string) {
	datID, ok := s.requireCurrent()
	if !ok {
		return
	}
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "romaudit: data update: missing DAT file path")
		return
	}
	imp := catalog.NewImporter(s.store.Conn())
	result, err := imp.Update(s.ctx, datID, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: update: %v\n", err)
		return
	}
	fmt.Printf("updated %q: %d sets, %d roms\n", result.Name, result.SetsCount, result.RomsCount)
}

func (s *session) dataRemove() {
	datID, ok := s.requireCurrent()
	if !ok {
		return
	}
	imp := catalog.NewImporter(s.store.Conn())
	if err := imp.Remove(s.ctx, datID); err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: remove: %v\n", err)
		return
	}
	s.current = nil
	fmt.Println("catalog removed.")
}

func (s *session) dataList() {
	dats, err := store.ListDats(s.ctx, s.store.Conn())
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: list: %v\n", err)
		return
	}
	for i, d := range dats {
		marker := " "
		if s.current != nil && *s.current == d.ID {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s (%s)\n", marker, i, d.Name, d.Version)
	}
}

func (s *session) dataSelect(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "romaudit: data select: missing index")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: data select: invalid index %q\n", args[0])
		return
	}
	s.selectDat(n)
}

func (s *session) dataRecords() {
	datID, ok := s.requireCurrent()
	if !ok {
		return
	}
	sets, err := store.ListSetsByDat(s.ctx, s.store.Conn(), datID, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: records: %v\n", err)
		return
	}
	for _, set := range sets {
		fmt.Println(set.Name)
		roms, err := store.ListRomsBySet(s.ctx, s.store.Conn(), set.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "romaudit: records: %v\n", err)
			continue
		}
		for _, r := range roms {
			fmt.Printf("  %s  %s  %s\n", r.Name, humanSize(r.Size), r.Hash)
		}
	}
}

func (s *session) dataSets(args []string) {
	datID, ok := s.requireCurrent()
	if !ok {
		return
	}
	partial := ""
	if len(args) > 0 {
		partial = args[0]
	}
	sets, err := store.ListSetsByDat(s.ctx, s.store.Conn(), datID, partial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: sets: %v\n", err)
		return
	}
	for _, set := range sets {
		fmt.Println(set.Name)
	}
}

func (s *session) dataRoms(args []string) {
	datID, ok := s.requireCurrent()
	if !ok {
		return
	}
	partial := ""
	if len(args) > 0 {
		partial = args[0]
	}
	roms, err := store.ListRomsByName(s.ctx, s.store.Conn(), datID, partial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "romaudit: roms: %v\n", err)
		return
	}
	for _, r := range roms {
		fmt.Printf("%s  %s  %s\n", r.Name, humanSize(r.Size), r.Hash)
	}
}

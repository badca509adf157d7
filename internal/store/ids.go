package store

import "fmt"

// DatID identifies a single imported catalog.
type DatID int64

// SetID identifies a game/machine entry within a catalog.
type SetID int64

// RomID identifies a single rom entry within a set.
type RomID int64

// DirID identifies a scanned directory, real or archive-synthesized.
type DirID int64

// FileID identifies a scanned file within a directory.
type FileID int64

// MatchID identifies a resolved match between a file and a catalog rom.
type MatchID int64

func (id DatID) String() string   { return fmt.Sprintf("dat#%d", int64(id)) }
func (id SetID) String() string   { return fmt.Sprintf("set#%d", int64(id)) }
func (id RomID) String() string   { return fmt.Sprintf("rom#%d", int64(id)) }
func (id DirID) String() string   { return fmt.Sprintf("dir#%d", int64(id)) }
func (id FileID) String() string  { return fmt.Sprintf("file#%d", int64(id)) }
func (id MatchID) String() string { return fmt.Sprintf("match#%d", int64(id)) }

// NoDir is the zero value meaning "no parent directory" (a dat's root dirs).
const NoDir DirID = 0

package store

// MatchStatus classifies how a file reconciled against a catalog.
type MatchStatus string

const (
	// StatusNone means no match row exists for the file; it is unmatched.
	StatusNone MatchStatus = "none"
	// StatusHash means the file's content hash matched a rom but its name didn't.
	StatusHash MatchStatus = "hash"
	// StatusName means the file's name matched a rom but its content didn't.
	StatusName MatchStatus = "name"
	// StatusMatch means both the file's name and content hash matched a rom.
	StatusMatch MatchStatus = "match"
)

// Dat is an imported reference catalog (one Logiqx DAT file).
type Dat struct {
	ID          DatID
	Name        string
	Description string
	Version     string
	Author      string
	HashAlgo    string
}

// Set is a game/machine grouping of roms within a Dat.
type Set struct {
	ID    SetID
	DatID DatID
	Name  string
}

// Rom is a single reference file entry within a Set.
type Rom struct {
	ID    RomID
	DatID DatID
	SetID SetID
	Name  string
	Size  uint64
	Hash  string
}

// Dir is a scanned directory, or a synthetic directory standing in for an
// archive's contents. ParentID is NoDir for a dat's scan roots.
type Dir struct {
	ID       DirID
	DatID    DatID
	Path     string
	ParentID DirID
}

// File is a single scanned file within a Dir.
type File struct {
	ID    FileID
	DirID DirID
	Name  string
	Size  uint64
	Hash  string
}

// Match is the resolved classification of a File against a Rom within a Set.
// A File with no Match row is implicitly StatusNone.
type Match struct {
	ID     MatchID
	DatID  DatID
	FileID FileID
	SetID  SetID
	RomID  RomID
	Status MatchStatus
}

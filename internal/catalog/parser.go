// Package catalog imports, updates and removes Logiqx-style DAT catalogs in
// the store.
package catalog

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// header is the DAT file's <header> element.
type header struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Version     string `xml:"version"`
	Author      string `xml:"author"`
}

// rom is a single <rom> element within a game.
type rom struct {
	Name string `xml:"name,attr"`
	Size int64  `xml:"size,attr"`
	SHA1 string `xml:"sha1,attr"`
}

// game is a <game> or <machine> element.
type game struct {
	Name string `xml:"name,attr"`
	Roms []rom  `xml:"rom"`
}

// Document is a fully parsed Logiqx DAT file.
type Document struct {
	Name        string
	Description string
	Version     string
	Author      string
	Sets        []Set
}

// Set is one game/machine entry and its roms, as read from the catalog.
type Set struct {
	Name string
	Roms []RomEntry
}

// RomEntry is a single rom reference as read from the catalog.
type RomEntry struct {
	Name string
	Size uint64
	Hash string
}

// ErrBadCatalog reports a structurally invalid DAT file.
type ErrBadCatalog struct {
	Reason string
}

func (e *ErrBadCatalog) Error() string { return "bad catalog: " + e.Reason }

// Parse streams a Logiqx XML document into a Document. An optional DOCTYPE
// is accepted and ignored; only the first <header> and every <game> or
// <machine> element are consulted.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{}
	sawHeader := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ErrBadCatalog{Reason: fmt.Sprintf("xml token: %v", err)}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "header":
			if sawHeader {
				if err := dec.Skip(); err != nil {
					return nil, &ErrBadCatalog{Reason: fmt.Sprintf("skip header: %v", err)}
				}
				continue
			}
			var h header
			if err := dec.DecodeElement(&h, &start); err != nil {
				return nil, &ErrBadCatalog{Reason: fmt.Sprintf("decode header: %v", err)}
			}
			doc.Name = h.Name
			doc.Description = h.Description
			doc.Version = h.Version
			doc.Author = h.Author
			sawHeader = true

		case "game", "machine":
			var g game
			if err := dec.DecodeElement(&g, &start); err != nil {
				return nil, &ErrBadCatalog{Reason: fmt.Sprintf("decode %s: %v", start.Name.Local, err)}
			}
			doc.Sets = append(doc.Sets, convertGame(g))
		}
	}

	if !sawHeader {
		return nil, &ErrBadCatalog{Reason: "missing header element"}
	}
	if doc.Name == "" {
		return nil, &ErrBadCatalog{Reason: "header missing name"}
	}
	if doc.Description == "" {
		return nil, &ErrBadCatalog{Reason: "header missing description"}
	}
	if doc.Version == "" {
		return nil, &ErrBadCatalog{Reason: "header missing version"}
	}
	if doc.Author == "" {
		return nil, &ErrBadCatalog{Reason: "header missing author"}
	}
	return doc, nil
}

func convertGame(g game) Set {
	set := Set{Name: g.Name}
	for _, r := range g.Roms {
		if r.Name == "" {
			continue
		}
		set.Roms = append(set.Roms, RomEntry{
			Name: r.Name,
			Size: uint64(r.Size),
			Hash: strings.ToLower(r.SHA1),
		})
	}
	return set
}

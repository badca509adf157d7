package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/ryanm101/romaudit/internal/store"
	"github.com/ryanm101/romaudit/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Importer ingests, refreshes and removes catalogs in the store.
type Importer struct {
	db *sql.DB
}

// NewImporter builds an Importer over the given database connection.
func NewImporter(db *sql.DB) *Importer {
	return &Importer{db: db}
}

// Result reports what an Import or Update call did.
type Result struct {
	DatID       store.DatID
	Name        string
	SetsCount   int
	RomsCount   int
	WasUpdate   bool
}

// Import parses path and inserts it as a brand-new catalog. It fails with
// store.ErrConflict if a catalog with the same name already exists — use
// Update to refresh one in place.
func (imp *Importer) Import(ctx context.Context, path string) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Import", tracing.WithAttributes(attribute.String("catalog.path", path)))
	defer span.End()

	doc, err := parseFile(path)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	tx, err := imp.db.BeginTx(ctx, nil)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("catalog: begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := store.FindDatByName(ctx, tx, doc.Name); err == nil {
		err := fmt.Errorf("catalog %q: %w", doc.Name, store.ErrConflict)
		tracing.RecordError(span, err)
		return nil, err
	} else if !store.IsNotFound(err) {
		tracing.RecordError(span, err)
		return nil, err
	}

	datID, err := store.InsertDat(ctx, tx, store.Dat{
		Name:        doc.Name,
		Description: doc.Description,
		Version:     doc.Version,
		Author:      doc.Author,
		HashAlgo:    "sha1",
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	romsCount, err := writeSets(ctx, tx, datID, doc.Sets)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("catalog: commit import: %w", err)
	}

	tracing.AddSpanAttributes(span,
		attribute.String("catalog.name", doc.Name),
		attribute.Int("catalog.sets", len(doc.Sets)),
		attribute.Int("catalog.roms", romsCount),
	)
	tracing.SetSpanOK(span)

	return &Result{DatID: datID, Name: doc.Name, SetsCount: len(doc.Sets), RomsCount: romsCount}, nil
}

// Update reparses path and replaces an existing catalog's sets and roms in
// place, preserving its DatID and every dir/file row that references it.
// The catalog's match rows are deleted along with the old sets and roms,
// and files are not re-matched against the new roms; they stay unmatched
// until a full (non-incremental) rescan.
func (imp *Importer) Update(ctx context.Context, datID store.DatID, path string) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Update",
		tracing.WithAttributes(attribute.String("catalog.path", path), attribute.Int64("catalog.id", int64(datID))))
	defer span.End()

	doc, err := parseFile(path)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	tx, err := imp.db.BeginTx(ctx, nil)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("catalog: begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := store.GetDatByID(ctx, tx, datID)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	existing.Name = doc.Name
	existing.Description = doc.Description
	existing.Version = doc.Version
	existing.Author = doc.Author
	if err := store.UpdateDat(ctx, tx, existing); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	// Sets and roms are replaced wholesale: deleting sets cascades to roms
	// and to every match row naming them. Dirs and files hang off the dat,
	// not the set, so they're untouched.
	if err := store.DeleteSetsByDat(ctx, tx, datID); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	romsCount, err := writeSets(ctx, tx, datID, doc.Sets)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("catalog: commit update: %w", err)
	}

	tracing.SetSpanOK(span)
	return &Result{DatID: datID, Name: doc.Name, SetsCount: len(doc.Sets), RomsCount: romsCount, WasUpdate: true}, nil
}

// Remove deletes a catalog and everything that cascades from it: sets,
// roms, dirs, files and matches.
func (imp *Importer) Remove(ctx context.Context, datID store.DatID) error {
	ctx, span := tracing.StartSpan(ctx, "catalog.Remove", tracing.WithAttributes(attribute.Int64("catalog.id", int64(datID))))
	defer span.End()

	tx, err := imp.db.BeginTx(ctx, nil)
	if err != nil {
		tracing.RecordError(span, err)
		return fmt.Errorf("catalog: begin remove: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := store.DeleteDatByID(ctx, tx, datID); err != nil {
		tracing.RecordError(span, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		tracing.RecordError(span, err)
		return fmt.Errorf("catalog: commit remove: %w", err)
	}
	tracing.SetSpanOK(span)
	return nil
}

func writeSets(ctx context.Context, tx *sql.Tx, datID store.DatID, sets []Set) (int, error) {
	romsCount := 0
	for _, s := range sets {
		setID, err := store.InsertSet(ctx, tx, store.Set{DatID: datID, Name: s.Name})
		if err != nil {
			return 0, fmt.Errorf("catalog: insert set %q: %w", s.Name, err)
		}
		for _, r := range s.Roms {
			_, err := store.InsertRom(ctx, tx, store.Rom{
				DatID: datID,
				SetID: setID,
				Name:  r.Name,
				Size:  r.Size,
				Hash:  r.Hash,
			})
			if err != nil {
				return 0, fmt.Errorf("catalog: insert rom %q: %w", r.Name, err)
			}
			romsCount++
		}
	}
	return romsCount, nil
}

func parseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

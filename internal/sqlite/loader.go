package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
)

const (
	insertModelSQL = `INSERT INTO models (model_id, name, created_at) VALUES (?, ?, ?)`
	insertSlotSQL  = `INSERT INTO slots (model_id, kind, idx, state, links) VALUES (?, ?, ?, ?, ?)`
)

// loadAllJSONL inserts every model file in dataDir into db and returns the
// number of models loaded. Loading is transactional: either every model is
// loaded or the database stays empty. Files without a header or whose slots
// do not rebuild into tables are skipped with a warning, as is a second
// file carrying an ID already loaded.
func loadAllJSONL(db *sql.DB, dataDir string, log *slog.Logger) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dataDir, "*"+modelExt))
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	seen := make(map[string]bool)
	for _, path := range paths {
		lines, err := readJSONL(path)
		if err != nil {
			return 0, err
		}
		head, slots, err := parseModelFile(lines)
		if err != nil {
			log.Warn("skipping model file", "path", path, "error", err)
			continue
		}
		if head.ModelID == "" {
			log.Warn("skipping model file", "path", path, "error", "no model header")
			continue
		}
		m, err := head.model(0)
		if err != nil {
			log.Warn("skipping model file", "path", path, "error", err)
			continue
		}
		head = newModelLine(m)
		if seen[head.ModelID] {
			log.Warn("skipping model file", "path", path, "error", "duplicate model id "+head.ModelID)
			continue
		}
		if _, err := buildTables(slots); err != nil {
			log.Warn("skipping model file", "path", path, "error", err)
			continue
		}
		if err := insertModel(tx, head, slots); err != nil {
			return 0, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
		}
		seen[head.ModelID] = true
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return len(seen), nil
}

// insertModel writes the model row and its slot rows.
func insertModel(tx *sql.Tx, head modelLine, slots []slotLine) error {
	if _, err := tx.Exec(insertModelSQL, head.ModelID, head.Name, head.CreatedAt); err != nil {
		return fmt.Errorf("inserting model: %w", err)
	}
	stmt, err := tx.Prepare(insertSlotSQL)
	if err != nil {
		return fmt.Errorf("preparing slot insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range slots {
		if _, err := stmt.Exec(head.ModelID, s.Kind, s.Idx, s.State, string(s.Links)); err != nil {
			return fmt.Errorf("inserting slot %s %d: %w", s.Kind, s.Idx, err)
		}
	}
	return nil
}

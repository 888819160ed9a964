package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

const (
	selectModelSQL = `SELECT m.model_id, m.name, m.created_at, COUNT(s.idx)
FROM models m LEFT JOIN slots s ON s.model_id = m.model_id
WHERE m.model_id = ?
GROUP BY m.model_id`

	selectModelByNameSQL = `SELECT model_id FROM models WHERE name = ?
ORDER BY created_at DESC, model_id DESC LIMIT 1`

	selectModelsSQL = `SELECT m.model_id, m.name, m.created_at, COUNT(s.idx)
FROM models m LEFT JOIN slots s ON s.model_id = m.model_id
GROUP BY m.model_id
ORDER BY m.created_at, m.model_id`

	selectSlotsSQL = `SELECT kind, idx, state, links FROM slots WHERE model_id = ?`

	deleteSlotsSQL = `DELETE FROM slots WHERE model_id = ?`
	deleteModelSQL = `DELETE FROM models WHERE model_id = ?`
)

// SaveModel stores every slot of r under a new model ID and returns the ID.
// The model file is written before the rows are committed; if either fails
// nothing is saved.
func (b *Backend) SaveModel(name string, r topo.Reader) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", types.ErrModelNameEmpty
	}
	slots, err := encodeTables(r.Tables())
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return "", types.ErrBackendDetached
	}
	m := types.Model{ID: generateUUID(), Name: name, CreatedAt: time.Now().UTC(), Slots: len(slots)}
	if err := b.saveLocked(newModelLine(m), slots); err != nil {
		return "", err
	}
	b.log.Info("model saved", "model_id", m.ID, "name", name, "slots", len(slots))
	return m.ID, nil
}

func (b *Backend) saveLocked(head modelLine, slots []slotLine) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertModel(tx, head, slots); err != nil {
		return err
	}
	lines, err := modelFileLines(head, slots)
	if err != nil {
		return err
	}
	path := b.modelPath(head.ModelID)
	if err := writeJSONL(path, lines); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		os.Remove(path)
		return fmt.Errorf("committing save transaction: %w", err)
	}
	return nil
}

// LoadModel rebuilds the store saved under id. The store's links are not
// validated; run a check.Checker over it before trusting it. Returns an
// error matching types.ErrModelNotFound if no model has that ID.
func (b *Backend) LoadModel(id string, opts ...topo.Option) (*topo.Store, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	if _, err := b.modelLocked(id); err != nil {
		return nil, err
	}
	slots, err := b.slotsLocked(id)
	if err != nil {
		return nil, err
	}
	t, err := buildTables(slots)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", id, err)
	}
	b.log.Debug("model loaded", "model_id", id, "slots", len(slots))
	return topo.Restore(t, opts...), nil
}

// ListModels returns the saved models, oldest first.
func (b *Backend) ListModels() ([]types.Model, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}

	rows, err := b.db.Query(selectModelsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer rows.Close()

	out := []types.Model{}
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// FindModel resolves ref as a model ID, or failing that as a model name.
// When several models share a name the newest wins.
func (b *Backend) FindModel(ref string) (types.Model, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.Model{}, types.ErrBackendDetached
	}

	m, err := b.modelLocked(ref)
	if !errors.Is(err, types.ErrModelNotFound) {
		return m, err
	}
	var id string
	switch err := b.db.QueryRow(selectModelByNameSQL, ref).Scan(&id); {
	case errors.Is(err, sql.ErrNoRows):
		return types.Model{}, fmt.Errorf("%w: %s", types.ErrModelNotFound, ref)
	case err != nil:
		return types.Model{}, fmt.Errorf("finding model %s: %w", ref, err)
	}
	return b.modelLocked(id)
}

// DeleteModel removes a model's rows, then its model file.
func (b *Backend) DeleteModel(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrBackendDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(deleteSlotsSQL, id); err != nil {
		return fmt.Errorf("deleting slots: %w", err)
	}
	res, err := tx.Exec(deleteModelSQL, id)
	if err != nil {
		return fmt.Errorf("deleting model: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrModelNotFound, id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete transaction: %w", err)
	}
	// The rows are gone; a file left behind here would bring the model back
	// on the next Attach.
	if err := os.Remove(b.modelPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing model file: %w", err)
	}
	b.log.Info("model deleted", "model_id", id)
	return nil
}

// ImportJSONL saves the model in the JSONL file at path under a new ID.
// An empty name falls back to the name in the file's header, then to the
// file's base name. The slots must rebuild into tables; their links are not
// validated.
func (b *Backend) ImportJSONL(path, name string) (string, error) {
	lines, err := readJSONL(path)
	if err != nil {
		return "", err
	}
	head, slots, err := parseModelFile(lines)
	if err != nil {
		return "", fmt.Errorf("importing %s: %w", path, err)
	}
	t, err := buildTables(slots)
	if err != nil {
		return "", fmt.Errorf("importing %s: %w", path, err)
	}
	if name == "" {
		name = head.Name
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return b.SaveModel(name, t)
}

// ExportJSONL writes the model saved under id to path, header first.
func (b *Backend) ExportJSONL(id, path string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrBackendDetached
	}
	m, err := b.modelLocked(id)
	if err != nil {
		return err
	}
	slots, err := b.slotsLocked(id)
	if err != nil {
		return err
	}
	t, err := buildTables(slots)
	if err != nil {
		return fmt.Errorf("model %s: %w", id, err)
	}
	// Re-encode so the file lists slots in table order.
	if slots, err = encodeTables(t); err != nil {
		return err
	}
	lines, err := modelFileLines(newModelLine(m), slots)
	if err != nil {
		return err
	}
	return writeJSONL(path, lines)
}

func (b *Backend) modelLocked(id string) (types.Model, error) {
	m, err := scanModel(b.db.QueryRow(selectModelSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Model{}, fmt.Errorf("%w: %s", types.ErrModelNotFound, id)
	}
	return m, err
}

func (b *Backend) slotsLocked(id string) ([]slotLine, error) {
	rows, err := b.db.Query(selectSlotsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("reading slots: %w", err)
	}
	defer rows.Close()

	var out []slotLine
	for rows.Next() {
		s := slotLine{Type: lineSlot}
		var links string
		if err := rows.Scan(&s.Kind, &s.Idx, &s.State, &links); err != nil {
			return nil, fmt.Errorf("scanning slot: %w", err)
		}
		s.Links = []byte(links)
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(row scanner) (types.Model, error) {
	var (
		l     = modelLine{Type: lineModel}
		count int
	)
	if err := row.Scan(&l.ModelID, &l.Name, &l.CreatedAt, &count); err != nil {
		return types.Model{}, err
	}
	return l.model(count)
}

package sqlite

// Schema DDL. A model row names a saved store; each slot row holds one table
// slot of that store, tombstoned slots included, so indices round-trip.
const (
	createModels = `CREATE TABLE models (
    model_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createSlots = `CREATE TABLE slots (
    model_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    idx INTEGER NOT NULL,
    state TEXT NOT NULL,
    links TEXT NOT NULL,
    PRIMARY KEY (model_id, kind, idx),
    FOREIGN KEY (model_id) REFERENCES models(model_id) ON DELETE CASCADE
);`
)

const (
	idxModelsName = `CREATE INDEX idx_models_name ON models(name);`
	idxSlotsState = `CREATE INDEX idx_slots_state ON slots(model_id, kind, state);`
)

// schemaDDL lists the CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createModels,
	createSlots,
}

var indexDDL = []string{
	idxModelsName,
	idxSlotsState,
}

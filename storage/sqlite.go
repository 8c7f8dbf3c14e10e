package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"chemca/ca"
	"chemca/sim"
)

// SQLiteRepository is a database/sql-backed Repository, grounded on the
// original's TB_SIMULATIONS/TB_ITERATIONS schema but collapsed to plain
// JSON columns rather than a full ORM mapping.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite database at path and
// ensures the schema exists.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS simulations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	spec_json TEXT NOT NULL,
	molar_fractions_json TEXT
);
CREATE TABLE IF NOT EXISTS iteration_chunks (
	simulation_id TEXT NOT NULL,
	chunk_number INTEGER NOT NULL,
	data TEXT NOT NULL,
	PRIMARY KEY (simulation_id, chunk_number)
);
`
	_, err := r.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("storage: migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error { return r.db.Close() }

func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, spec_json FROM simulations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var id, specJSON string
		if err := rows.Scan(&id, &specJSON); err != nil {
			return nil, fmt.Errorf("storage: scan list row: %w", err)
		}
		spec, err := decodeSpec(specJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, Record{ID: id, Spec: spec})
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Record, error) {
	return r.getBy(ctx, `SELECT id, spec_json FROM simulations WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*Record, error) {
	return r.getBy(ctx, `SELECT id, spec_json FROM simulations WHERE name = ?`, name)
}

func (r *SQLiteRepository) GetByNameExcluding(ctx context.Context, name, excludeID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, spec_json FROM simulations WHERE name = ? AND id != ?`, name, excludeID)
	return scanRecord(row)
}

func (r *SQLiteRepository) getBy(ctx context.Context, query, arg string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	return scanRecord(row)
}

func scanRecord(row *sql.Row) (*Record, error) {
	var id, specJSON string
	if err := row.Scan(&id, &specJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: scan record: %w", err)
	}
	spec, err := decodeSpec(specJSON)
	if err != nil {
		return nil, err
	}
	return &Record{ID: id, Spec: spec}, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, spec sim.Spec) (string, error) {
	id := uuid.NewString()
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("storage: marshal spec: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO simulations (id, name, spec_json) VALUES (?, ?, ?)`,
		id, spec.Name, string(specJSON))
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, spec sim.Spec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("storage: marshal spec: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE simulations SET name = ?, spec_json = ? WHERE id = ?`,
		spec.Name, string(specJSON), id)
	if err != nil {
		return fmt.Errorf("storage: update: %w", err)
	}
	return requireRowsAffected(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return requireRowsAffected(res)
}

func (r *SQLiteRepository) SaveResults(ctx context.Context, id string, history [][][]int16, table ca.MolarFractionsTable) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM iteration_chunks WHERE simulation_id = ?`, id); err != nil {
		return fmt.Errorf("storage: clear old chunks: %w", err)
	}

	for i, chunk := range ChunkHistory(history) {
		compressed, err := CompressMatrix(chunk)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO iteration_chunks (simulation_id, chunk_number, data) VALUES (?, ?, ?)`,
			id, i, compressed); err != nil {
			return fmt.Errorf("storage: insert chunk %d: %w", i, err)
		}
	}

	tableJSON, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("storage: marshal molar fractions table: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE simulations SET molar_fractions_json = ? WHERE id = ?`, string(tableJSON), id)
	if err != nil {
		return fmt.Errorf("storage: save molar fractions: %w", err)
	}
	if err := requireRowsAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetIterations(ctx context.Context, id string, chunkNumber int) ([][][]int16, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM iteration_chunks WHERE simulation_id = ? AND chunk_number = ?`,
		id, chunkNumber).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrResultsNotReady
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get iterations: %w", err)
	}
	return DecompressMatrix(data)
}

func (r *SQLiteRepository) GetResults(ctx context.Context, id string) (string, ca.MolarFractionsTable, error) {
	var name string
	var tableJSON sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT name, molar_fractions_json FROM simulations WHERE id = ?`, id).
		Scan(&name, &tableJSON)
	if err == sql.ErrNoRows {
		return "", ca.MolarFractionsTable{}, ErrNotFound
	}
	if err != nil {
		return "", ca.MolarFractionsTable{}, fmt.Errorf("storage: get results: %w", err)
	}
	if !tableJSON.Valid {
		return name, ca.MolarFractionsTable{}, ErrResultsNotReady
	}
	var table ca.MolarFractionsTable
	if err := json.Unmarshal([]byte(tableJSON.String), &table); err != nil {
		return "", ca.MolarFractionsTable{}, fmt.Errorf("storage: unmarshal molar fractions: %w", err)
	}
	return name, table, nil
}

func decodeSpec(specJSON string) (sim.Spec, error) {
	var spec sim.Spec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return sim.Spec{}, fmt.Errorf("storage: unmarshal spec: %w", err)
	}
	return spec, nil
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

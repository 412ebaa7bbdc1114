// Package store keeps labeled sequences and their prediction scores in a
// SQLite database.
package store

import "context"
import "database/sql"
import "encoding/binary"
import "math"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"
import _ "modernc.org/sqlite"

import "github.com/neurlang/seqclassifier/datasets"

// ErrNotFound is returned for a sequence or score set that is not stored.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite database of sequences.
type DB struct{ sql *sql.DB }

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS sequences (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  name TEXT NOT NULL UNIQUE,
	  width INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS positions (
	  sequence_id INTEGER NOT NULL REFERENCES sequences(id) ON DELETE CASCADE,
	  pos INTEGER NOT NULL,
	  idx TEXT,
	  vector BLOB NOT NULL,
	  label REAL,
	  PRIMARY KEY (sequence_id, pos)
	);
	CREATE TABLE IF NOT EXISTS scores (
	  sequence_id INTEGER NOT NULL REFERENCES sequences(id) ON DELETE CASCADE,
	  run_id TEXT NOT NULL,
	  pos INTEGER NOT NULL,
	  score REAL NOT NULL,
	  PRIMARY KEY (sequence_id, run_id, pos)
	);
	`)
	return err
}

// PutSequence stores seq under name, replacing an earlier sequence of the
// same name together with its scores. y may be nil for unlabeled data.
func (d *DB) PutSequence(ctx context.Context, name string, seq datasets.Sequence, y datasets.Labels) error {
	if y != nil && len(y) != seq.Len() {
		return errors.Wrapf(datasets.ErrShape, "sequence %s has %d positions but %d labels", name, seq.Len(), len(y))
	}
	if len(seq.Index) != 0 && len(seq.Index) != seq.Len() {
		return errors.Wrapf(datasets.ErrShape, "sequence %s has %d positions but %d index entries", name, seq.Len(), len(seq.Index))
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM sequences WHERE name=?`, name); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO sequences(name, width) VALUES(?,?)`, name, seq.Width())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO positions(sequence_id, pos, idx, vector, label) VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for t := 0; t < seq.Len(); t++ {
		var idx, label interface{}
		if len(seq.Index) != 0 {
			idx = seq.Index[t]
		}
		if y != nil {
			label = y[t]
		}
		if _, err := stmt.ExecContext(ctx, id, t, idx, encodeF32(seq.X.RawRowView(t)), label); err != nil {
			return errors.Wrapf(err, "storing position %d of %s", t, name)
		}
	}
	return tx.Commit()
}

// Names lists the stored sequences in insertion order.
func (d *DB) Names(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT name FROM sequences ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// LoadSequence returns a stored sequence and its labels, nil when any
// position is unlabeled.
func (d *DB) LoadSequence(ctx context.Context, name string) (datasets.Sequence, datasets.Labels, error) {
	var id int64
	var width int
	row := d.sql.QueryRowContext(ctx, `SELECT id, width FROM sequences WHERE name=?`, name)
	if err := row.Scan(&id, &width); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return datasets.Sequence{}, nil, errors.Wrapf(ErrNotFound, "sequence %s", name)
		}
		return datasets.Sequence{}, nil, err
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT idx, vector, label FROM positions WHERE sequence_id=? ORDER BY pos`, id)
	if err != nil {
		return datasets.Sequence{}, nil, err
	}
	defer rows.Close()
	var data []float64
	var index []string
	var y = datasets.Labels{}
	var indexed, labeled = true, true
	for rows.Next() {
		var idx sql.NullString
		var vb []byte
		var label sql.NullFloat64
		if err := rows.Scan(&idx, &vb, &label); err != nil {
			return datasets.Sequence{}, nil, err
		}
		var v = decodeF32(vb)
		if len(v) != width {
			return datasets.Sequence{}, nil, errors.Wrapf(datasets.ErrShape, "sequence %s stores %d features, expected %d", name, len(v), width)
		}
		data = append(data, v...)
		indexed = indexed && idx.Valid
		index = append(index, idx.String)
		labeled = labeled && label.Valid
		y = append(y, label.Float64)
	}
	if err := rows.Err(); err != nil {
		return datasets.Sequence{}, nil, err
	}
	var seq datasets.Sequence
	if n := len(y); n > 0 {
		seq.X = mat.NewDense(n, width, data)
		if indexed {
			seq.Index = index
		}
	}
	if !labeled {
		y = nil
	}
	return seq, y, nil
}

// LoadSamples returns every stored sequence with its labels, in insertion
// order. Unlabeled sequences are ErrShape.
func (d *DB) LoadSamples(ctx context.Context) ([]string, []datasets.Sample, error) {
	names, err := d.Names(ctx)
	if err != nil {
		return nil, nil, err
	}
	var out = make([]datasets.Sample, 0, len(names))
	for _, name := range names {
		seq, y, err := d.LoadSequence(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		if y == nil {
			return nil, nil, errors.Wrapf(datasets.ErrShape, "sequence %s is not labeled", name)
		}
		out = append(out, datasets.Sample{X: seq, Y: y})
	}
	return names, out, nil
}

// PutScores stores the prediction scores of a sequence made by one training
// run, replacing earlier scores of the same run.
func (d *DB) PutScores(ctx context.Context, name, runID string, scores datasets.Scores) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM sequences WHERE name=?`, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(ErrNotFound, "sequence %s", name)
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scores WHERE sequence_id=? AND run_id=?`, id, runID); err != nil {
		return err
	}
	for t, v := range scores.Values {
		if _, err := tx.ExecContext(ctx, `INSERT INTO scores(sequence_id, run_id, pos, score) VALUES(?,?,?,?)`, id, runID, t, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadScores returns the scores of a sequence made by one training run,
// indexed like the stored sequence.
func (d *DB) LoadScores(ctx context.Context, name, runID string) (datasets.Scores, error) {
	rows, err := d.sql.QueryContext(ctx, `
	SELECT p.idx, s.score FROM scores s
	JOIN sequences q ON q.id = s.sequence_id
	JOIN positions p ON p.sequence_id = s.sequence_id AND p.pos = s.pos
	WHERE q.name=? AND s.run_id=? ORDER BY s.pos`, name, runID)
	if err != nil {
		return datasets.Scores{}, err
	}
	defer rows.Close()
	var out datasets.Scores
	var indexed = true
	for rows.Next() {
		var idx sql.NullString
		var v float64
		if err := rows.Scan(&idx, &v); err != nil {
			return datasets.Scores{}, err
		}
		indexed = indexed && idx.Valid
		out.Index = append(out.Index, idx.String)
		out.Values = append(out.Values, v)
	}
	if err := rows.Err(); err != nil {
		return datasets.Scores{}, err
	}
	if len(out.Values) == 0 {
		return datasets.Scores{}, errors.Wrapf(ErrNotFound, "scores of %s by run %s", name, runID)
	}
	if !indexed {
		out.Index = nil
	}
	return out, nil
}

func encodeF32(v []float64) []byte {
	b := make([]byte, 4*len(v))
	for i := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(float32(v[i])))
	}
	return b
}

func decodeF32(b []byte) []float64 {
	n := len(b) / 4
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		v[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])))
	}
	return v
}

package sheet

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists one sheet in a sqlite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed initializes) the workbook database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open workbook database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cells (
		id TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		formula TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize workbook database: %w", err)
	}

	return &Store{db: db}, nil
}

// Save replaces the persisted cells with the sheet's current contents.
func (st *Store) Save(s *Sheet) error {
	tx, err := st.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM cells"); err != nil {
		tx.Rollback()
		return err
	}

	insert, err := tx.Prepare("INSERT INTO cells (id, value, formula) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer insert.Close()

	var insertErr error
	s.Each(func(id string, c Cell) {
		if insertErr != nil {
			return
		}
		_, insertErr = insert.Exec(id, c.Value, c.Formula)
	})
	if insertErr != nil {
		tx.Rollback()
		return insertErr
	}

	return tx.Commit()
}

// Load reads all persisted cells into a fresh sheet.
func (st *Store) Load() (*Sheet, error) {
	rows, err := st.db.Query("SELECT id, value, formula FROM cells")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s := New()
	for rows.Next() {
		var id string
		var c Cell
		if err := rows.Scan(&id, &c.Value, &c.Formula); err != nil {
			return nil, err
		}
		s.Set(id, c)
	}
	return s, rows.Err()
}

func (st *Store) Close() error {
	return st.db.Close()
}

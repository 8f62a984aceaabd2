package tracing

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTraceWriter stores records into a SQLite database.
type SQLiteTraceWriter struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	records   []Record
	batchSize int
}

// NewSQLiteTraceWriter creates a SQLiteTraceWriter. The database file is
// path + ".sqlite3"; an empty path picks a unique name.
func NewSQLiteTraceWriter(path string) *SQLiteTraceWriter {
	return &SQLiteTraceWriter{
		dbName:    path,
		batchSize: 100000,
	}
}

// Path returns the database file name.
func (t *SQLiteTraceWriter) Path() string {
	return t.dbName + ".sqlite3"
}

// Init creates the database, its table and the insert statement.
func (t *SQLiteTraceWriter) Init() error {
	if t.dbName == "" {
		t.dbName = "iplcsim_trace_" + xid.New().String()
	}

	filename := t.Path()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return fmt.Errorf("failed to open trace database: %w", err)
	}
	t.DB = db

	if err := t.createTable(); err != nil {
		t.closeDB()
		return err
	}

	stmt, err := t.Prepare(`INSERT INTO trace VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		t.closeDB()
		return fmt.Errorf("failed to prepare trace statement: %w", err)
	}
	t.statement = stmt

	atexit.Register(func() {
		_ = t.Close()
	})

	return nil
}

func (t *SQLiteTraceWriter) closeDB() {
	_ = t.DB.Close()
	t.DB = nil
}

func (t *SQLiteTraceWriter) createTable() error {
	stmts := []string{
		`create table trace
		(
			id        varchar(200) not null,
			cycle     integer      not null,
			kind      varchar(20)  not null,
			address   integer      not null,
			set_index integer      default 0,
			tag       integer      default 0,
			hit       boolean      not null,
			hazard    boolean      default 0,
			detail    varchar(200) default ''
		);`,
		`create index trace_cycle_index on trace (cycle);`,
		`create index trace_kind_index on trace (kind);`,
		`create index trace_address_index on trace (address);`,
	}

	for _, s := range stmts {
		if _, err := t.Exec(s); err != nil {
			return fmt.Errorf("failed to create trace table: %w", err)
		}
	}

	return nil
}

// Write buffers a record.
func (t *SQLiteTraceWriter) Write(r Record) error {
	t.records = append(t.records, r)
	if len(t.records) >= t.batchSize {
		return t.Flush()
	}

	return nil
}

// Flush writes the buffered records in one transaction.
func (t *SQLiteTraceWriter) Flush() error {
	if len(t.records) == 0 || t.DB == nil {
		return nil
	}

	tx, err := t.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin trace transaction: %w", err)
	}

	stmt := tx.Stmt(t.statement)
	for _, r := range t.records {
		_, err := stmt.Exec(
			r.ID,
			r.Cycle,
			r.Kind,
			r.Address,
			r.Index,
			r.Tag,
			r.Hit,
			r.Hazard,
			r.Detail,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert trace record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trace records: %w", err)
	}

	t.records = nil

	return nil
}

// Close flushes and closes the database. Closing twice is a no-op.
func (t *SQLiteTraceWriter) Close() error {
	if t.DB == nil {
		return nil
	}

	if err := t.Flush(); err != nil {
		return err
	}

	if t.statement != nil {
		_ = t.statement.Close()
		t.statement = nil
	}

	err := t.DB.Close()
	t.DB = nil

	return err
}

package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for run history.
const (
	runsTable  = "filepulse_report_runs"
	filesTable = "filepulse_run_files"
)

// RunStoreImpl implements the RunStore interface on a SQL database.
type RunStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// driverFor maps a backend to its database/sql driver name.
func driverFor(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// NewRunStore opens the history database and creates its tables.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled history
		return &RunStoreImpl{backend: backend}, nil
	}

	driverName, err := driverFor(backend)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch backend {
	case schema.SQLiteBackend:
		if connStr == "" {
			connStr = contract.GetHistoryDBFilePath("")
		}
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", connStr, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	case schema.MySQLBackend:
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname?parseTime=true", err)
		}
	case schema.PostgreSQLBackend:
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... port=... user=... dbname=...", err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file location is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if err := createTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend, driverName: driverName}, nil
}

func createTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, createRunsQuery(backend)},
		{filesTable, createFilesQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

func createRunsQuery(backend schema.DatabaseBackend) string {
	name := quoteTableName(runsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				duration_ms BIGINT,
				run_trigger VARCHAR(32) NOT NULL,
				total_files INT NOT NULL DEFAULT 0,
				red_count INT NOT NULL DEFAULT 0,
				amber_count INT NOT NULL DEFAULT 0,
				green_count INT NOT NULL DEFAULT 0,
				none_count INT NOT NULL DEFAULT 0,
				artifact_path TEXT
			);
		`, name)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				duration_ms BIGINT,
				run_trigger TEXT NOT NULL,
				total_files INT NOT NULL DEFAULT 0,
				red_count INT NOT NULL DEFAULT 0,
				amber_count INT NOT NULL DEFAULT 0,
				green_count INT NOT NULL DEFAULT 0,
				none_count INT NOT NULL DEFAULT 0,
				artifact_path TEXT
			);
		`, name)
	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				duration_ms INTEGER,
				run_trigger TEXT NOT NULL,
				total_files INTEGER NOT NULL DEFAULT 0,
				red_count INTEGER NOT NULL DEFAULT 0,
				amber_count INTEGER NOT NULL DEFAULT 0,
				green_count INTEGER NOT NULL DEFAULT 0,
				none_count INTEGER NOT NULL DEFAULT 0,
				artifact_path TEXT
			);
		`, name)
	}
}

func createFilesQuery(backend schema.DatabaseBackend) string {
	name := quoteTableName(filesTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				file_path VARCHAR(768) NOT NULL,
				size_bytes BIGINT NOT NULL,
				modified_at DATETIME(6) NOT NULL,
				owner VARCHAR(255),
				age_days DOUBLE NOT NULL,
				band VARCHAR(16) NOT NULL,
				PRIMARY KEY (run_id, file_path)
			);
		`, name)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				file_path TEXT NOT NULL,
				size_bytes BIGINT NOT NULL,
				modified_at TIMESTAMPTZ NOT NULL,
				owner TEXT,
				age_days DOUBLE PRECISION NOT NULL,
				band TEXT NOT NULL,
				PRIMARY KEY (run_id, file_path)
			);
		`, name)
	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				file_path TEXT NOT NULL,
				size_bytes INTEGER NOT NULL,
				modified_at TEXT NOT NULL,
				owner TEXT,
				age_days REAL NOT NULL,
				band TEXT NOT NULL,
				PRIMARY KEY (run_id, file_path)
			);
		`, name)
	}
}

func (rs *RunStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, trigger schema.Trigger) (int64, error) {
	if rs.disabled() {
		return 0, nil
	}

	table := quoteTableName(runsTable, rs.backend)
	var runID int64
	var err error
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, run_trigger) VALUES ($1, $2) RETURNING run_id`, table)
		err = rs.db.QueryRow(query, startTime, string(trigger)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, run_trigger) VALUES (?, ?)`, table)
		var result sql.Result
		result, err = rs.db.Exec(query, formatTime(startTime, rs.backend), string(trigger))
		if err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
		runID, err = result.LastInsertId()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun records the completion data of a run.
func (rs *RunStoreImpl) EndRun(runID int64, summary schema.RunSummary) error {
	if rs.disabled() {
		return nil
	}

	table := quoteTableName(runsTable, rs.backend)
	row := rs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, table, placeholder(rs.backend, 1)), runID)
	startTime, err := scanTime(row)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := summary.EndTime.Sub(startTime).Milliseconds()

	var artifact any
	if summary.ArtifactPath != "" {
		artifact = summary.ArtifactPath
	}

	query := fmt.Sprintf(`UPDATE %s SET end_time = %s, duration_ms = %s, total_files = %s,
		red_count = %s, amber_count = %s, green_count = %s, none_count = %s, artifact_path = %s
		WHERE run_id = %s`, withTable(table, placeholders(rs.backend, 1, 9))...)
	_, err = rs.db.Exec(query,
		formatTime(summary.EndTime, rs.backend), durationMs, summary.TotalFiles,
		summary.Counts[schema.RedBand], summary.Counts[schema.AmberBand],
		summary.Counts[schema.GreenBand], summary.Counts[schema.NoneBand],
		artifact, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordFiles stores the classified files of a run in one transaction.
func (rs *RunStoreImpl) RecordFiles(runID int64, files []schema.RunFileRecord) error {
	if rs.disabled() || len(files) == 0 {
		return nil
	}

	table := quoteTableName(filesTable, rs.backend)
	query := fmt.Sprintf(`INSERT INTO %s (run_id, file_path, size_bytes, modified_at, owner, age_days, band)
		VALUES (%s, %s, %s, %s, %s, %s, %s)`, withTable(table, placeholders(rs.backend, 1, 7))...)

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, f := range files {
		if _, err := stmt.Exec(runID, f.FilePath, f.SizeBytes, formatTime(f.ModifiedAt, rs.backend), f.Owner, f.AgeDays, f.Band); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert file %s: %w", f.FilePath, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run files: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.disabled() {
		return status, nil
	}

	runs := quoteTableName(runsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}
		last, err := scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs)))
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = last

		oldest, err := scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest

		row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_files), 0) FROM %s", runs))
		if err := row.Scan(&status.TotalFilesSeen); err != nil {
			return status, fmt.Errorf("failed to get total files: %w", err)
		}
	}

	for _, table := range []string{runsTable, filesTable} {
		var count int64
		row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns returns every stored run, oldest first.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, duration_ms, run_trigger, total_files,
		red_count, amber_count, green_count, none_count, artifact_path FROM %s ORDER BY run_id`,
		quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var r schema.RunRecord
		var duration sql.NullInt64
		var artifact sql.NullString
		var start, end any
		if err := rows.Scan(&r.RunID, &start, &end, &duration, &r.Trigger, &r.TotalFiles,
			&r.RedCount, &r.AmberCount, &r.GreenCount, &r.NoneCount, &artifact); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartTime, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if end != nil {
			t, err := parseTime(end)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			r.EndTime = &t
		}
		if duration.Valid {
			r.DurationMs = &duration.Int64
		}
		if artifact.Valid {
			r.ArtifactPath = &artifact.String
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetRunFiles returns the files recorded for a run ordered by path. A
// non-positive id returns the files of every run.
func (rs *RunStoreImpl) GetRunFiles(runID int64) ([]schema.RunFileRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	table := quoteTableName(filesTable, rs.backend)
	cols := "run_id, file_path, size_bytes, modified_at, owner, age_days, band"
	var rows *sql.Rows
	var err error
	if runID > 0 {
		rows, err = rs.db.Query(fmt.Sprintf("SELECT %s FROM %s WHERE run_id = %s ORDER BY file_path",
			cols, table, placeholder(rs.backend, 1)), runID)
	} else {
		rows, err = rs.db.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY run_id, file_path", cols, table))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunFileRecord
	for rows.Next() {
		var f schema.RunFileRecord
		var modified any
		var owner sql.NullString
		if err := rows.Scan(&f.RunID, &f.FilePath, &f.SizeBytes, &modified, &owner, &f.AgeDays, &f.Band); err != nil {
			return nil, fmt.Errorf("failed to scan run file: %w", err)
		}
		if f.ModifiedAt, err = parseTime(modified); err != nil {
			return nil, fmt.Errorf("failed to parse modified_at: %w", err)
		}
		f.Owner = owner.String
		results = append(results, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run files: %w", err)
	}
	return results, nil
}

// placeholder returns the n-th bind parameter for the backend.
func placeholder(backend schema.DatabaseBackend, n int) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// placeholders returns bind parameters from..to as format arguments.
func placeholders(backend schema.DatabaseBackend, from, to int) []any {
	out := make([]any, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, placeholder(backend, i))
	}
	return out
}

func withTable(table string, args []any) []any {
	return append([]any{table}, args...)
}

// formatTime converts a time.Time to the storage format of the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t.UTC()
	}
}

func scanTime(row *sql.Row) (time.Time, error) {
	var v any
	if err := row.Scan(&v); err != nil {
		return time.Time{}, err
	}
	return parseTime(v)
}

// mysqlTimeLayout is how MySQL returns DATETIME(6) without parseTime.
const mysqlTimeLayout = "2006-01-02 15:04:05.999999"

// parseTime accepts the native time values of MySQL and PostgreSQL and
// the RFC 3339 strings stored by SQLite.
func parseTime(v any) (time.Time, error) {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return time.Time{}, fmt.Errorf("unsupported time value %T", v)
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(mysqlTimeLayout, s)
}

// quoteTableName quotes a table name for the backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

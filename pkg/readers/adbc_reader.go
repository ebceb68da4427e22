package readers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/drivermgr"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ADBCReader reads the result of a SQL query through an ADBC driver loaded
// by the driver manager.
type ADBCReader struct {
	batchReader
	query string
}

// NewDuckDBReader creates a reader over a DuckDB database. The database is
// config.Path, or config.ConnectionString, or in-memory when both are
// empty. Either config.Query or config.Table selects the rows.
func NewDuckDBReader(config core.ReaderConfig) (core.DatasetReader, error) {
	query, err := readerQuery(config, "DuckDB")
	if err != nil {
		return nil, err
	}

	dbPath := config.Path
	if config.ConnectionString != "" {
		dbPath = config.ConnectionString
	}
	dbOpts := map[string]string{
		"driver":     driverPath(config.DriverPath, "DUCKDB_DRIVER_PATH", "libduckdb", "duckdb"),
		"entrypoint": "duckdb_adbc_init",
	}
	if dbPath != "" {
		dbOpts["path"] = dbPath
	}
	return openADBC("DuckDB", dbOpts, query)
}

// NewPostgresReader creates a reader over a PostgreSQL database. The
// connection URI is config.ConnectionString, or config.Path.
func NewPostgresReader(config core.ReaderConfig) (core.DatasetReader, error) {
	query, err := readerQuery(config, "PostgreSQL")
	if err != nil {
		return nil, err
	}

	uri := config.ConnectionString
	if uri == "" {
		uri = config.Path
	}
	if uri == "" {
		return nil, errors.New("a connection URI is required for PostgreSQL reader")
	}
	dbOpts := map[string]string{
		"driver":          driverPath(config.DriverPath, "POSTGRES_DRIVER_PATH", "libadbc_driver_postgresql", "postgresql"),
		adbc.OptionKeyURI: uri,
	}
	return openADBC("PostgreSQL", dbOpts, query)
}

func readerQuery(config core.ReaderConfig, name string) (string, error) {
	if config.Query != "" {
		return config.Query, nil
	}
	if config.Table != "" {
		return fmt.Sprintf("SELECT * FROM %s", config.Table), nil
	}
	return "", fmt.Errorf("either query or table is required for %s reader", name)
}

func openADBC(name string, dbOpts map[string]string, query string) (*ADBCReader, error) {
	var driver drivermgr.Driver
	db, err := driver.NewDatabase(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("error creating new %s database: %w", name, err)
	}

	ctx := context.Background()
	r := &ADBCReader{query: query}
	r.alloc = memory.NewGoAllocator()
	r.onClose(db.Close)

	conn, err := db.Open(ctx)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	r.onClose(conn.Close)

	stmt, err := conn.NewStatement()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create statement: %w", err)
	}
	r.onClose(stmt.Close)

	if err := stmt.SetSqlQuery(query); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to set SQL query: %w", err)
	}

	rr, _, err := stmt.ExecuteQuery(ctx)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	r.onClose(func() error {
		rr.Release()
		return nil
	})

	r.schema = rr.Schema()
	r.next = iterate(rr)
	return r, nil
}

// Query returns the SQL the reader executes.
func (r *ADBCReader) Query() string {
	return r.query
}

// driverPath returns p, the environment variable env, or the conventional
// install location of the shared library for this platform.
func driverPath(p, env, lib, winName string) string {
	if p != "" {
		return p
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	switch runtime.GOOS {
	case "darwin":
		return "/usr/local/lib/" + lib + ".dylib"
	case "windows":
		if home, err := os.UserHomeDir(); err == nil {
			return home + "/Downloads/" + winName + "-windows-amd64/" + winName + ".dll"
		}
		return winName + ".dll"
	default:
		return "/usr/local/lib/" + lib + ".so"
	}
}

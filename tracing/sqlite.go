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

// SQLiteTracerBackend is a TraceWriter that stores the tasks in a SQLite
// database.
type SQLiteTracerBackend struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	tasks     []Task
	batchSize int
}

// NewSQLiteTracerBackend creates a new SQLiteTracerBackend. When path is
// empty, a unique database name is generated.
func NewSQLiteTracerBackend(path string) *SQLiteTracerBackend {
	t := &SQLiteTracerBackend{
		dbName:    path,
		batchSize: 100000,
	}

	atexit.Register(func() { t.Flush() })

	return t
}

// Init establishes the connection to the database.
func (t *SQLiteTracerBackend) Init() {
	t.createDatabase()
	t.createTable()
	t.prepareStatement()
}

func (t *SQLiteTracerBackend) createDatabase() {
	if t.dbName == "" {
		t.dbName = "tlpbridge_trace_" + xid.New().String()
	}

	filename := t.dbName + ".sqlite3"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	t.DB = db
}

func (t *SQLiteTracerBackend) createTable() {
	t.mustExecute(`
		create table trace
		(
			task_id    varchar(200) not null,
			parent_id  varchar(200),
			kind       varchar(100),
			what       varchar(100),
			location   varchar(100),
			start_time float not null,
			end_time   float
		);
	`)

	t.mustExecute(`
		create index trace_task_id_uindex
			on trace (task_id);
	`)

	t.mustExecute(`
		create index trace_kind_index
			on trace (kind);
	`)

	t.mustExecute(`
		create index trace_start_time_index
			on trace (start_time);
	`)

	t.mustExecute(`
		create index trace_end_time_index
			on trace (end_time);
	`)
}

func (t *SQLiteTracerBackend) prepareStatement() {
	stmt, err := t.Prepare(`
		insert into trace
			(task_id, parent_id, kind, what, location, start_time, end_time)
		values
			(?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		panic(err)
	}

	t.statement = stmt
}

// Write writes a task to the database.
func (t *SQLiteTracerBackend) Write(task Task) {
	t.tasks = append(t.tasks, task)
	if len(t.tasks) >= t.batchSize {
		t.Flush()
	}
}

// Flush writes all the buffered tasks to the database.
func (t *SQLiteTracerBackend) Flush() {
	if len(t.tasks) == 0 {
		return
	}

	t.mustExecute("begin transaction")
	defer t.mustExecute("commit transaction")

	for _, task := range t.tasks {
		_, err := t.statement.Exec(
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Where,
			task.StartTime,
			task.EndTime,
		)
		if err != nil {
			panic(err)
		}
	}

	t.tasks = nil
}

func (t *SQLiteTracerBackend) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		panic(err)
	}

	return res
}

package datarecording

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

// ClickHouseOptions locate a ClickHouse server.
type ClickHouseOptions struct {
	Host      string
	Port      int
	Database  string
	Username  string
	Password  string
	BatchSize int
}

// ClickHouseRecorder writes the connector tables into ClickHouse. It only
// knows the tables of this package and appends them through typed batches.
type ClickHouseRecorder struct {
	conn      clickhouse.Conn
	mu        sync.Mutex
	batchSize int

	execInfoBatch []ExecInfo
	frameBatch    []FrameEntry
	requestBatch  []RequestEntry

	tables     map[string]tableType
	entryCount int
	closed     bool

	exec *execRecorder
}

type tableType int

const (
	tableTypeExecInfo tableType = iota
	tableTypeFrame
	tableTypeRequest
)

// NewClickHouseRecorder connects to ClickHouse and records the run
// information like New does.
func NewClickHouseRecorder(opts ClickHouseOptions) (DataRecorder, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", opts.Host, opts.Port)},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      30 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
		BlockBufferSize:  10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	r := newClickHouseRecorder(conn, opts.BatchSize)
	r.exec = newExecRecorder(r)
	r.exec.Start()

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

func newClickHouseRecorder(
	conn clickhouse.Conn,
	batchSize int,
) *ClickHouseRecorder {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &ClickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]tableType),
	}
}

func clickHouseSchema(tableName string, sample any) (string, tableType) {
	switch sample.(type) {
	case ExecInfo:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				Property String,
				Value String
			) ENGINE = MergeTree()
			ORDER BY Property
		`, tableName), tableTypeExecInfo
	case FrameEntry:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				ID String,
				Time Float64,
				Connector String,
				Direction String,
				Kind String,
				Band String,
				Size Int64,
				Error String
			) ENGINE = MergeTree()
			ORDER BY (Time, ID)
		`, tableName), tableTypeFrame
	case RequestEntry:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				ID String,
				Connector String,
				Band String,
				Kind String,
				StartTime Float64,
				EndTime Float64,
				Outcome String
			) ENGINE = MergeTree()
			ORDER BY (StartTime, ID)
		`, tableName), tableTypeRequest
	default:
		panic(fmt.Sprintf("unknown table type: %T", sample))
	}
}

// CreateTable creates a table for one of the entry types of this package.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	createSQL, tType := clickHouseSchema(tableName, sampleEntry)

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.conn.Exec(context.Background(), createSQL)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = tType
}

// InsertData buffers an entry.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tType, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	switch tType {
	case tableTypeExecInfo:
		r.execInfoBatch = append(r.execInfoBatch, entry.(ExecInfo))
	case tableTypeFrame:
		r.frameBatch = append(r.frameBatch, entry.(FrameEntry))
	case tableTypeRequest:
		r.requestBatch = append(r.requestBatch, entry.(RequestEntry))
	}

	r.entryCount++
	if r.entryCount >= r.batchSize {
		r.flush()
	}
}

// ListTables returns all table names
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]string, 0, len(r.tables))
	for name := range r.tables {
		tables = append(tables, name)
	}

	sort.Strings(tables)

	return tables
}

// Flush writes all batched data to ClickHouse using bulk inserts
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flush()
}

func (r *ClickHouseRecorder) flush() {
	if r.entryCount == 0 || r.closed {
		return
	}

	ctx := context.Background()

	for tableName, tType := range r.tables {
		switch tType {
		case tableTypeExecInfo:
			r.sendBatch(ctx, tableName, len(r.execInfoBatch),
				func(b appender) error {
					for _, e := range r.execInfoBatch {
						if err := b.Append(e.Property, e.Value); err != nil {
							return err
						}
					}

					return nil
				})
			r.execInfoBatch = r.execInfoBatch[:0]
		case tableTypeFrame:
			r.sendBatch(ctx, tableName, len(r.frameBatch),
				func(b appender) error {
					for _, e := range r.frameBatch {
						err := b.Append(e.ID, e.Time, e.Connector, e.Direction,
							e.Kind, e.Band, int64(e.Size), e.Error)
						if err != nil {
							return err
						}
					}

					return nil
				})
			r.frameBatch = r.frameBatch[:0]
		case tableTypeRequest:
			r.sendBatch(ctx, tableName, len(r.requestBatch),
				func(b appender) error {
					for _, e := range r.requestBatch {
						err := b.Append(e.ID, e.Connector, e.Band, e.Kind,
							e.StartTime, e.EndTime, e.Outcome)
						if err != nil {
							return err
						}
					}

					return nil
				})
			r.requestBatch = r.requestBatch[:0]
		}
	}

	r.entryCount = 0
}

type appender interface {
	Append(v ...any) error
}

func (r *ClickHouseRecorder) sendBatch(
	ctx context.Context,
	tableName string,
	n int,
	fill func(b appender) error,
) {
	if n == 0 {
		return
	}

	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w", tableName, err))
	}

	err = fill(batch)
	if err != nil {
		panic(fmt.Errorf("failed to append to batch: %w", err))
	}

	err = batch.Send()
	if err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}
}

// Close flushes remaining data and closes the connection
func (r *ClickHouseRecorder) Close() error {
	if r.exec != nil {
		r.exec.End()
		r.exec = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.flush()
	r.closed = true

	err := r.conn.Close()
	if err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}

	return nil
}

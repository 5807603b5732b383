package storageref

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// storedResult is the single table PostgresStorage keeps its results in,
// one row per (item_id, task_name, flow_name) the way the composite
// Redis key does, grounded in the teacher's bun.DB usage in src/internal/db.
type storedResult struct {
	bun.BaseModel `bun:"table:flowc_results,alias:fr"`

	ItemID    string `bun:"item_id,pk"`
	TaskName  string `bun:"task_name,pk"`
	FlowName  string `bun:"flow_name,pk"`
	Value     []byte `bun:"value,type:jsonb"`
	UpdatedAt time.Time `bun:"updated_at"`
}

// PostgresStorage is a reference Storage backed by a single Postgres
// table, dialed through pgdriver the way the teacher's initBun() does,
// minus the process-wide sync.Once singleton: an adapter here is owned
// by whichever Storage binding constructs it, not shared globally.
type PostgresStorage struct {
	addr     string
	user     string
	password string
	database string
	db       *bun.DB
}

// PostgresConfig carries the connection parameters a Storage binding's
// configuration dict supplies.
type PostgresConfig struct {
	Addr     string
	User     string
	Password string
	Database string
}

func NewPostgresStorage(cfg PostgresConfig) *PostgresStorage {
	return &PostgresStorage{addr: cfg.Addr, user: cfg.User, password: cfg.Password, database: cfg.Database}
}

func (s *PostgresStorage) Connect(ctx context.Context) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithAddr(s.addr),
		pgdriver.WithInsecure(true),
		pgdriver.WithUser(s.user),
		pgdriver.WithPassword(s.password),
		pgdriver.WithDatabase(s.database),
		pgdriver.WithTimeout(5*time.Second),
		pgdriver.WithDialTimeout(5*time.Second),
		pgdriver.WithReadTimeout(5*time.Second),
		pgdriver.WithWriteTimeout(5*time.Second),
	))
	s.db = bun.NewDB(sqldb, pgdialect.New())

	if _, err := s.db.NewCreateTable().Model((*storedResult)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("creating flowc_results table: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Disconnect(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStorage) Store(ctx context.Context, itemID, taskName, flowName string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value for %s: %w", compositeKey(itemID, taskName, flowName), err)
	}

	row := &storedResult{ItemID: itemID, TaskName: taskName, FlowName: flowName, Value: encoded, UpdatedAt: time.Now()}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (item_id, task_name, flow_name) DO UPDATE").
		Set("value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *PostgresStorage) Retrieve(ctx context.Context, itemID, taskName, flowName string) (interface{}, error) {
	row := new(storedResult)
	err := s.db.NewSelect().
		Model(row).
		Where("item_id = ? AND task_name = ? AND flow_name = ?", itemID, taskName, flowName).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving %s: %w", compositeKey(itemID, taskName, flowName), err)
	}

	var value interface{}
	if err := json.Unmarshal(row.Value, &value); err != nil {
		return nil, fmt.Errorf("decoding value for %s: %w", compositeKey(itemID, taskName, flowName), err)
	}
	return value, nil
}

func (s *PostgresStorage) Delete(ctx context.Context, itemID, taskName, flowName string) error {
	_, err := s.db.NewDelete().
		Model((*storedResult)(nil)).
		Where("item_id = ? AND task_name = ? AND flow_name = ?", itemID, taskName, flowName).
		Exec(ctx)
	return err
}

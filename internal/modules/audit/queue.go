package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hotel/internal/database"
	"hotel/internal/domain"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
	"gorm.io/gorm"
)

const QueueAudit = "audit"

// EntryArgs is one audit entry travelling through the job queue.
type EntryArgs struct {
	EventID     string    `json:"event_id"`
	ActorID     *int64    `json:"actor_id,omitempty"`
	Action      string    `json:"action"`
	ModelType   string    `json:"model_type"`
	ObjectID    int64     `json:"object_id"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (EntryArgs) Kind() string { return "audit.entry" }

func (EntryArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueAudit, MaxAttempts: 25}
}

func argsFromEntry(e domain.AuditLog) EntryArgs {
	return EntryArgs{
		EventID:     e.EventID,
		ActorID:     e.ActorID,
		Action:      string(e.Action),
		ModelType:   e.ModelType,
		ObjectID:    e.ObjectID,
		Description: e.Description,
		OccurredAt:  e.CreatedAt,
	}
}

func (a EntryArgs) entry() domain.AuditLog {
	return domain.AuditLog{
		EventID:     a.EventID,
		ActorID:     a.ActorID,
		Action:      domain.AuditAction(a.Action),
		ModelType:   a.ModelType,
		ObjectID:    a.ObjectID,
		Description: a.Description,
		CreatedAt:   a.OccurredAt,
	}
}

// Client is the River client for both drivers; each runs on *sql.Tx.
type Client = river.Client[*sql.Tx]

type QueueConfig struct {
	Workers int
	Logger  *slog.Logger
}

// SetupQueue runs River's migrations and builds a client with the entry worker
// registered. Callers Start and Stop the client.
func SetupQueue(ctx context.Context, db *database.DB, store EntryStore, cfg QueueConfig) (*Client, error) {
	var driver riverdriver.Driver[*sql.Tx]
	if db.Dialect == database.DialectPostgres {
		driver = riverdatabasesql.New(db.SQL)
	} else {
		driver = riversqlite.New(db.SQL)
	}

	// River keeps its own tables (river_job, river_leader, ...) apart from goose.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewEntryWorker(store))

	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueAudit: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}
	return client, nil
}

// QueueRecorder enqueues entries in the caller's transaction. The worker
// writes them to audit_logs after commit, retrying until it succeeds.
type QueueRecorder struct {
	client *Client
}

func NewQueueRecorder(client *Client) *QueueRecorder {
	return &QueueRecorder{client: client}
}

func (r *QueueRecorder) Record(ctx context.Context, tx *gorm.DB, entries ...domain.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	if err := validate(entries); err != nil {
		return err
	}

	sqlTx, ok := tx.Statement.ConnPool.(*sql.Tx)
	if !ok {
		return errors.New("audit: queue recorder needs an open transaction")
	}

	params := make([]river.InsertManyParams, 0, len(entries))
	for _, e := range entries {
		params = append(params, river.InsertManyParams{Args: argsFromEntry(e)})
	}
	if _, err := r.client.InsertManyTx(ctx, sqlTx, params); err != nil {
		return fmt.Errorf("enqueuing audit entries: %w", err)
	}
	return nil
}

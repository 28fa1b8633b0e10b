package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/entities"
	"github.com/Aftab48/Haemologix-sub000/internal/domain/repositories"
	"github.com/Aftab48/Haemologix-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

const trainingExamplesTable = "training_examples"

// insertChunkSize bounds the number of rows per multi-row INSERT.
const insertChunkSize = 500

// TrainingExamplesSchema creates the training example table and its export index.
const TrainingExamplesSchema = `
CREATE TABLE IF NOT EXISTS training_examples (
	id                TEXT PRIMARY KEY,
	task_type         TEXT NOT NULL,
	input_features    JSONB NOT NULL,
	output_label      JSONB NOT NULL,
	outcome           JSONB,
	used_for_training BOOLEAN NOT NULL DEFAULT FALSE,
	source            TEXT NOT NULL DEFAULT 'live',
	agent_decision_id TEXT,
	request_id        TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	exported_at       TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_training_examples_task_unused_created
	ON training_examples (task_type, used_for_training, created_at);
`

var trainingExampleColumns = []any{
	"id", "task_type", "input_features", "output_label", "outcome",
	"used_for_training", "source", "agent_decision_id", "request_id",
	"created_at", "exported_at",
}

// TrainingExampleAdapter implements TrainingExampleRepository on PostgreSQL
type TrainingExampleAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewTrainingExampleAdapter creates a new training example adapter
func NewTrainingExampleAdapter(client *postgres.Client) *TrainingExampleAdapter {
	return &TrainingExampleAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ repositories.TrainingExampleRepository = (*TrainingExampleAdapter)(nil)

// Migrate applies TrainingExamplesSchema.
func (a *TrainingExampleAdapter) Migrate(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, TrainingExamplesSchema); err != nil {
		return apperrors.NewInternalError("failed to migrate training_examples", err)
	}
	return nil
}

// Create inserts a single training example
func (a *TrainingExampleAdapter) Create(ctx context.Context, example *entities.TrainingExample) error {
	return a.CreateBatch(ctx, []*entities.TrainingExample{example})
}

// CreateBatch inserts examples with multi-row statements
func (a *TrainingExampleAdapter) CreateBatch(ctx context.Context, examples []*entities.TrainingExample) error {
	for start := 0; start < len(examples); start += insertChunkSize {
		end := min(start+insertChunkSize, len(examples))

		rows := make([]any, 0, end-start)
		for _, example := range examples[start:end] {
			record, err := toRecord(example)
			if err != nil {
				return err
			}
			rows = append(rows, record)
		}

		query, args, err := a.db.Insert(trainingExamplesTable).Prepared(true).Rows(rows...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build training example insert query", err)
		}
		if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to insert training examples", err)
		}
	}
	return nil
}

// List returns examples matching filter, oldest first
func (a *TrainingExampleAdapter) List(ctx context.Context, filter repositories.TrainingExampleFilter) ([]*entities.TrainingExample, error) {
	where := goqu.Ex{}
	if filter.TaskType != "" {
		where["task_type"] = string(filter.TaskType)
	}
	if filter.Source != "" {
		where["source"] = string(filter.Source)
	}
	if filter.UsedForTraining != nil {
		where["used_for_training"] = *filter.UsedForTraining
	}

	ds := a.db.From(trainingExamplesTable).
		Prepared(true).
		Select(trainingExampleColumns...).
		Where(where).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build training example query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list training examples", err)
	}
	defer rows.Close()

	return scanExamples(rows)
}

// ListUnused returns up to limit unexported examples of one task type
func (a *TrainingExampleAdapter) ListUnused(ctx context.Context, taskType entities.TaskType, limit int) ([]*entities.TrainingExample, error) {
	unused := false
	return a.List(ctx, repositories.TrainingExampleFilter{
		TaskType:        taskType,
		UsedForTraining: &unused,
		Limit:           limit,
	})
}

// CountByTask returns total and unused counts per task type
func (a *TrainingExampleAdapter) CountByTask(ctx context.Context) (map[entities.TaskType]repositories.TaskCounts, error) {
	query, args, err := a.db.From(trainingExamplesTable).
		Prepared(true).
		Select(
			goqu.C("task_type"),
			goqu.COUNT(goqu.Star()).As("total"),
			goqu.L("COUNT(*) FILTER (WHERE NOT used_for_training)").As("unused"),
		).
		GroupBy("task_type").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build count query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count training examples", err)
	}
	defer rows.Close()

	counts := make(map[entities.TaskType]repositories.TaskCounts)
	for rows.Next() {
		var task string
		var c repositories.TaskCounts
		if err := rows.Scan(&task, &c.Total, &c.Unused); err != nil {
			return nil, apperrors.NewInternalError("failed to scan training example counts", err)
		}
		counts[entities.TaskType(task)] = c
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate training example counts", err)
	}
	return counts, nil
}

// ExportBatch claims unused rows with FOR UPDATE SKIP LOCKED, runs fn, and
// marks the claimed rows used in the same transaction.
func (a *TrainingExampleAdapter) ExportBatch(ctx context.Context, taskType entities.TaskType, fn repositories.ExportBatchFunc) (int, error) {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to begin export transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	query, args, err := a.db.From(trainingExamplesTable).
		Prepared(true).
		Select(trainingExampleColumns...).
		Where(goqu.Ex{"task_type": string(taskType), "used_for_training": false}).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		ForUpdate(exp.SkipLocked).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build export claim query", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to claim training examples", err)
	}
	batch, err := scanExamples(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	if err := fn(ctx, batch); err != nil {
		return 0, err
	}

	ids := make([]string, len(batch))
	for i, example := range batch {
		ids[i] = example.ID
	}

	update, updateArgs, err := a.markUsedQuery(ids)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build export mark query", err)
	}

	result, err := tx.ExecContext(ctx, update, updateArgs...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to mark training examples used", err)
	}
	marked, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to read marked row count", err)
	}
	if int(marked) != len(batch) {
		return 0, apperrors.NewConflictError(fmt.Sprintf("marked %d of %d claimed %s examples", marked, len(batch), taskType))
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewInternalError("failed to commit export transaction", err)
	}
	committed = true
	return len(batch), nil
}

// markUsedQuery binds the claimed ids as one array parameter so the statement
// stays under the 65535 bind parameter limit however large the backlog is.
func (a *TrainingExampleAdapter) markUsedQuery(ids []string) (string, []any, error) {
	return a.db.Update(trainingExamplesTable).
		Prepared(true).
		Set(goqu.Record{"used_for_training": true, "exported_at": a.now()}).
		Where(
			goqu.L(`"id" = ANY(?)`, pq.Array(ids)),
			goqu.Ex{"used_for_training": false},
		).
		ToSQL()
}

func toRecord(example *entities.TrainingExample) (goqu.Record, error) {
	if example == nil {
		return nil, apperrors.NewValidationError("training example is nil")
	}
	if err := example.Validate(); err != nil {
		return nil, err
	}

	task, features, label, err := entities.EncodePayload(example.Payload)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode training example payload", err)
	}

	outcome := sql.NullString{}
	if example.Outcome != nil {
		b, err := json.Marshal(example.Outcome)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode training example outcome", err)
		}
		outcome = sql.NullString{String: string(b), Valid: true}
	}

	source := example.Source
	if source == "" {
		source = entities.ExampleSourceLive
	}

	return goqu.Record{
		"id":                example.ID,
		"task_type":         string(task),
		"input_features":    string(features),
		"output_label":      string(label),
		"outcome":           outcome,
		"used_for_training": example.UsedForTraining,
		"source":            string(source),
		"agent_decision_id": nullString(example.AgentDecisionID),
		"request_id":        nullString(example.RequestID),
		"created_at":        example.CreatedAt,
	}, nil
}

func scanExamples(rows *sql.Rows) ([]*entities.TrainingExample, error) {
	var examples []*entities.TrainingExample
	for rows.Next() {
		var (
			e               entities.TrainingExample
			task, source    string
			features, label []byte
			outcome         []byte
			agentDecisionID sql.NullString
			requestID       sql.NullString
			exportedAt      sql.NullTime
		)
		if err := rows.Scan(
			&e.ID, &task, &features, &label, &outcome,
			&e.UsedForTraining, &source, &agentDecisionID, &requestID,
			&e.CreatedAt, &exportedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan training example", err)
		}

		payload, err := entities.DecodePayload(entities.TaskType(task), features, label)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("corrupt training example %s", e.ID), err)
		}
		e.Payload = payload
		e.Source = entities.ExampleSource(source)

		if len(outcome) > 0 {
			e.Outcome = &entities.Outcome{}
			if err := json.Unmarshal(outcome, e.Outcome); err != nil {
				return nil, apperrors.NewInternalError(fmt.Sprintf("corrupt outcome on %s", e.ID), err)
			}
		}
		if agentDecisionID.Valid {
			e.AgentDecisionID = &agentDecisionID.String
		}
		if requestID.Valid {
			e.RequestID = &requestID.String
		}
		if exportedAt.Valid {
			e.ExportedAt = &exportedAt.Time
		}
		examples = append(examples, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate training examples", err)
	}
	return examples, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

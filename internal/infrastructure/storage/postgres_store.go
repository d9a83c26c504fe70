package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"SocialFactory/internal/domain"
	"SocialFactory/internal/ports"
)

// PostgresStore is the relational ContentStore backend, for installs that
// keep the content calendar in a database instead of a spreadsheet.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ContentStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// ListPending returns rows in Pending status, oldest first.
func (s *PostgresStore) ListPending(ctx context.Context) ([]domain.ContentItem, error) {
	if s.db == nil {
		return nil, nil
	}

	query, args, err := s.builder.
		Select("id", "date", "topic", "video_prompt", "platform").
		From("content_items").
		Where(sq.Eq{"status": string(domain.StatusPending)}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		var (
			item        domain.ContentItem
			date        sql.NullTime
			videoPrompt sql.NullString
			platform    sql.NullString
		)
		if err := rows.Scan(&item.ID, &date, &item.Topic, &videoPrompt, &platform); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if date.Valid {
			item.Date = date.Time
		}
		item.VideoPrompt = videoPrompt.String
		item.Platform = platform.String
		if item.Platform == "" {
			item.Platform = "general"
		}
		item.Status = domain.StatusPending
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return items, nil
}

// UpdateStatus writes the status column plus any populated optional fields.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id int, status domain.Status, fields domain.StatusFields) error {
	if s.db == nil {
		return nil
	}

	update := s.builder.
		Update("content_items").
		Set("status", string(status)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id})

	if fields.VideoURL != "" {
		update = update.Set("video_url", fields.VideoURL)
	}
	if fields.Caption != "" {
		update = update.Set("caption", fields.Caption)
	}
	if fields.Script != "" {
		update = update.Set("script", fields.Script)
	}
	if fields.WorkflowID != "" {
		update = update.Set("workflow_id", fields.WorkflowID)
	}
	if fields.PostID != "" {
		update = update.Set("post_id", fields.PostID)
	}
	if fields.ApprovedBy != "" {
		update = update.Set("approved_by", fields.ApprovedBy)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update row %d: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("content row %d not found", id)
	}

	return nil
}

// GetReview reads the durable review payload back from a row.
func (s *PostgresStore) GetReview(ctx context.Context, id int) (domain.ReviewPayload, error) {
	if s.db == nil {
		return domain.ReviewPayload{}, fmt.Errorf("store not connected")
	}

	query, args, err := s.builder.
		Select("topic", "platform", "video_url", "caption", "script", "workflow_id").
		From("content_items").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.ReviewPayload{}, fmt.Errorf("build query: %w", err)
	}

	var (
		payload    domain.ReviewPayload
		platform   sql.NullString
		videoURL   sql.NullString
		caption    sql.NullString
		script     sql.NullString
		workflowID sql.NullString
	)
	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&payload.Topic, &platform, &videoURL, &caption, &script, &workflowID); err != nil {
		if err == sql.ErrNoRows {
			return domain.ReviewPayload{}, fmt.Errorf("content row %d not found", id)
		}
		return domain.ReviewPayload{}, fmt.Errorf("scan row %d: %w", id, err)
	}

	payload.ContentID = id
	payload.Platform = platform.String
	payload.VideoURL = videoURL.String
	payload.Caption = caption.String
	payload.Script = script.String
	payload.WorkflowID = workflowID.String
	return payload, nil
}

// LogError appends a timestamped error line to the row's log column.
func (s *PostgresStore) LogError(ctx context.Context, id int, message string) error {
	if s.db == nil {
		return nil
	}

	line := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05"), message)
	query := `UPDATE content_items
              SET error_log = COALESCE(error_log || E'\n', '') || $1,
                  updated_at = NOW()
              WHERE id = $2`

	if _, err := s.db.ExecContext(ctx, query, line, id); err != nil {
		return fmt.Errorf("log error for row %d: %w", id, err)
	}
	return nil
}

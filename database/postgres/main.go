package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"celerdev/interview"
	"celerdev/logger"

	_ "github.com/lib/pq"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type DatabaseConnectProps struct {
	Logger *logger.LogMiddleware
	DSN    string
}

type Database struct {
	conn   *sql.DB
	logger *logger.LogMiddleware
}

const schema = `
CREATE TABLE IF NOT EXISTS interview_turns (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	user_said  TEXT NOT NULL,
	ai_said    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interview_turns_session
	ON interview_turns (session_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id    TEXT NOT NULL,
	field      TEXT NOT NULL,
	blob       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, field)
);
`

// Connect retries the initial connection a few times at startup, then
// creates the schema. Request-time calls are never retried.
func Connect(ctx context.Context, args DatabaseConnectProps) (*Database, error) {
	tracer := otel.Tracer("postgres/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	connectRetries := 5
	var conn *sql.DB
	var err error

	logger := args.Logger.Logger(ctx)

	for connectRetries > 0 {
		conn, err = getConnection(ctx, args.DSN)
		if err == nil {
			logger.Info("[Postgres] Database client started")
			break
		}
		connectRetries -= 1
		sleepTime := 5
		logger.Error(
			"[Postgres] Could not connect to Postgres. Retrying after sleeping.",
			zap.Error(err),
			zap.Int("Retries Left", connectRetries),
			zap.Int("Sleep Time", sleepTime))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second * time.Duration(sleepTime)):
		}
	}

	if connectRetries <= 0 {
		logger.Error("[Postgres] Failed to Connect to Postgres")
		span.RecordError(err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Database{conn: conn, logger: args.Logger}, nil
}

func getConnection(ctx context.Context, dsn string) (*sql.DB, error) {
	tracer := otel.Tracer("postgres/getConnection")
	ctx, span := tracer.Start(ctx, "getConnection")
	defer span.End()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		span.RecordError(err)
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func (d *Database) Close() error {
	return d.conn.Close()
}

func (d *Database) AppendTurn(ctx context.Context, sessionID interview.SessionID, turn interview.Turn) error {
	tracer := otel.Tracer("postgres/AppendTurn")
	ctx, span := tracer.Start(ctx, "AppendTurn")
	defer span.End()

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO interview_turns (session_id, user_said, ai_said, created_at) VALUES ($1, $2, $3, $4)`,
		string(sessionID), turn.UserSaid, turn.AISaid, turn.Timestamp,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

func (d *Database) RecentTurns(ctx context.Context, sessionID interview.SessionID, limit int) ([]interview.Turn, error) {
	tracer := otel.Tracer("postgres/RecentTurns")
	ctx, span := tracer.Start(ctx, "RecentTurns")
	defer span.End()

	span.SetAttributes(attribute.Int("limit", limit))

	rows, err := d.conn.QueryContext(ctx, `
		SELECT user_said, ai_said, created_at
		FROM interview_turns
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		string(sessionID), limit,
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	out := []interview.Turn{}
	for rows.Next() {
		var t interview.Turn
		if err := rows.Scan(&t.UserSaid, &t.AISaid, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return out, nil
}

// MergeProfile reads, merges and upserts the blob in one transaction. The
// row lock only serializes writers of the same (user, field).
func (d *Database) MergeProfile(ctx context.Context, userID interview.UserID, field interview.ProfileField, blob interview.Profile, updatedAt time.Time) error {
	tracer := otel.Tracer("postgres/MergeProfile")
	ctx, span := tracer.Start(ctx, "MergeProfile")
	defer span.End()

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanProfile(tx.QueryRowContext(ctx,
		`SELECT blob FROM user_profiles WHERE user_id = $1 AND field = $2 FOR UPDATE`,
		string(userID), string(field),
	))
	if err != nil {
		span.RecordError(err)
		return err
	}

	merged, err := json.Marshal(interview.MergeProfile(current, blob))
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, field, blob, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, field) DO UPDATE SET
			blob = excluded.blob,
			updated_at = excluded.updated_at`,
		string(userID), string(field), merged, updatedAt,
	)
	if err != nil {
		span.RecordError(err)
		d.logger.Logger(ctx).Error("[Postgres] Could not upsert profile", zap.Error(err), zap.String("user_id", string(userID)))
		return fmt.Errorf("upsert profile: %w", err)
	}
	return tx.Commit()
}

func (d *Database) GetProfile(ctx context.Context, userID interview.UserID, field interview.ProfileField) (interview.Profile, error) {
	tracer := otel.Tracer("postgres/GetProfile")
	ctx, span := tracer.Start(ctx, "GetProfile")
	defer span.End()

	blob, err := scanProfile(d.conn.QueryRowContext(ctx,
		`SELECT blob FROM user_profiles WHERE user_id = $1 AND field = $2`,
		string(userID), string(field),
	))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return blob, nil
}

func scanProfile(row *sql.Row) (interview.Profile, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan profile row: %w", err)
	}

	var blob interview.Profile
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return blob, nil
}

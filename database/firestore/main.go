package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"celerdev/interview"
	"celerdev/logger"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection      = "users"
	interviewsCollection = "interviews"
	historyCollection    = "history"
	lastUpdatedField     = "lastUpdated"
)

type FirestoreConnectProps struct {
	Logger          *logger.LogMiddleware
	ProjectID       string
	CredentialsFile string
}

type Database struct {
	client *firestore.Client
	logger *logger.LogMiddleware
}

func Connect(ctx context.Context, args FirestoreConnectProps) (*Database, error) {
	tracer := otel.Tracer("firestore/Connect")
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	if args.ProjectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	var opts []option.ClientOption
	if args.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(args.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, args.ProjectID, opts...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	args.Logger.Logger(ctx).Info("[Firestore] Client started", zap.String("project", args.ProjectID))
	return &Database{client: client, logger: args.Logger}, nil
}

func (d *Database) Close() error {
	return d.client.Close()
}

func (d *Database) userDoc(userID interview.UserID) *firestore.DocumentRef {
	return d.client.Collection(usersCollection).Doc(string(userID))
}

func (d *Database) historyCol(sessionID interview.SessionID) *firestore.CollectionRef {
	return d.client.Collection(interviewsCollection).Doc(string(sessionID)).Collection(historyCollection)
}

type turnDoc struct {
	UserSaid  string    `firestore:"userSaid"`
	AISaid    string    `firestore:"aiSaid"`
	Timestamp time.Time `firestore:"timestamp"`
}

// newTurnID returns a time-ordered id so turns sharing a timestamp still
// sort in write order.
func newTurnID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (d *Database) AppendTurn(ctx context.Context, sessionID interview.SessionID, turn interview.Turn) error {
	tracer := otel.Tracer("firestore/AppendTurn")
	ctx, span := tracer.Start(ctx, "AppendTurn")
	defer span.End()

	doc := turnDoc{UserSaid: turn.UserSaid, AISaid: turn.AISaid, Timestamp: turn.Timestamp}
	if _, err := d.historyCol(sessionID).Doc(newTurnID()).Create(ctx, doc); err != nil {
		span.RecordError(err)
		return fmt.Errorf("firestore AppendTurn: %w", err)
	}
	return nil
}

func (d *Database) RecentTurns(ctx context.Context, sessionID interview.SessionID, limit int) ([]interview.Turn, error) {
	tracer := otel.Tracer("firestore/RecentTurns")
	ctx, span := tracer.Start(ctx, "RecentTurns")
	defer span.End()

	span.SetAttributes(attribute.Int("limit", limit))

	q := d.historyCol(sessionID).
		OrderBy("timestamp", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []interview.Turn{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("firestore RecentTurns: %w", err)
		}

		var doc turnDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode turnDoc: %w", err)
		}
		out = append(out, interview.Turn{UserSaid: doc.UserSaid, AISaid: doc.AISaid, Timestamp: doc.Timestamp})
	}
	return out, nil
}

// MergeProfile relies on MergeAll, which merges nested maps field by field.
// lastUpdated is assigned by the Firestore server rather than updatedAt.
func (d *Database) MergeProfile(ctx context.Context, userID interview.UserID, field interview.ProfileField, blob interview.Profile, _ time.Time) error {
	tracer := otel.Tracer("firestore/MergeProfile")
	ctx, span := tracer.Start(ctx, "MergeProfile")
	defer span.End()

	data := map[string]interface{}{
		string(field):    map[string]interface{}(blob),
		lastUpdatedField: firestore.ServerTimestamp,
	}
	if _, err := d.userDoc(userID).Set(ctx, data, firestore.MergeAll); err != nil {
		span.RecordError(err)
		d.logger.Logger(ctx).Error("[Firestore] Could not merge profile", zap.Error(err), zap.String("user_id", string(userID)))
		return fmt.Errorf("firestore MergeProfile: %w", err)
	}
	return nil
}

func (d *Database) GetProfile(ctx context.Context, userID interview.UserID, field interview.ProfileField) (interview.Profile, error) {
	tracer := otel.Tracer("firestore/GetProfile")
	ctx, span := tracer.Start(ctx, "GetProfile")
	defer span.End()

	snap, err := d.userDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}

	blob, ok := snap.Data()[string(field)].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return blob, nil
}

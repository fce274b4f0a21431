// Package memory persists per-conversation turn history. Appends are
// idempotent per (conversation id, seq) so the supervisor's
// fire-and-forget write can be retried without duplicating turns.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

type Config struct {
	URI        string        `envconfig:"URI" split_words:"true" required:"true"`
	Database   string        `envconfig:"DATABASE" split_words:"true" default:"atlas"`
	Collection string        `envconfig:"COLLECTION" split_words:"true" default:"turns"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// turnDoc is the stored shape. The _id encodes (conversation, seq) so the
// unique index makes duplicate appends no-ops.
type turnDoc struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversation_id"`
	Seq            int64     `bson:"seq"`
	Query          string    `bson:"query"`
	Agents         []string  `bson:"agents,omitempty"`
	Response       string    `bson:"response"`
	At             time.Time `bson:"at"`
}

// Collection is the narrow slice of mongo.Collection the store needs.
// Tests substitute a fake.
type Collection interface {
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter any, opts ...*options.CountOptions) (int64, error)
}

// MongoStore implements contract.MemoryStore.
type MongoStore struct {
	coll   Collection
	client *mongo.Client
}

func New(ctx context.Context, cfg Config) (*MongoStore, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("%w: mongo ping: %v", contractx.ErrUpstreamUnavailable, err)
	}

	return &MongoStore{
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		client: client,
	}, nil
}

// NewFromCollection wraps an existing collection. Tests use this.
func NewFromCollection(coll Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func docID(conversationID string, seq int64) string {
	return fmt.Sprintf("%s:%d", conversationID, seq)
}

// Append upserts the turn keyed by (conversation id, seq). Replaying the
// same turn leaves the stored document untouched.
func (s *MongoStore) Append(ctx context.Context, turn contractx.Turn) error {
	if strings.TrimSpace(turn.ConversationID) == "" {
		return fmt.Errorf("%w: conversation id is required", contractx.ErrValidation)
	}
	if turn.Seq <= 0 {
		return fmt.Errorf("%w: turn seq must be > 0", contractx.ErrValidation)
	}

	agents := make([]string, 0, len(turn.Agents))
	for _, a := range turn.Agents {
		agents = append(agents, string(a))
	}

	doc := turnDoc{
		ID:             docID(turn.ConversationID, turn.Seq),
		ConversationID: turn.ConversationID,
		Seq:            turn.Seq,
		Query:          turn.Query,
		Agents:         agents,
		Response:       turn.Response,
		At:             turn.At.UTC(),
	}

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: mongo append: %v", contractx.ErrUpstreamUnavailable, err)
	}
	return nil
}

func (s *MongoStore) Read(ctx context.Context, conversationID string) ([]contractx.Turn, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, fmt.Errorf("%w: conversation id is required", contractx.ErrValidation)
	}

	cursor, err := s.coll.Find(ctx,
		bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: mongo read: %v", contractx.ErrUpstreamUnavailable, err)
	}
	defer cursor.Close(ctx)

	var docs []turnDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: mongo decode: %v", contractx.ErrUpstreamUnavailable, err)
	}

	turns := make([]contractx.Turn, 0, len(docs))
	for _, d := range docs {
		agents := make([]contractx.AgentID, 0, len(d.Agents))
		for _, a := range d.Agents {
			agents = append(agents, contractx.AgentID(a))
		}
		turns = append(turns, contractx.Turn{
			ConversationID: d.ConversationID,
			Seq:            d.Seq,
			Query:          d.Query,
			Agents:         agents,
			Response:       d.Response,
			At:             d.At,
		})
	}
	return turns, nil
}

func (s *MongoStore) NextSeq(ctx context.Context, conversationID string) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		return 0, fmt.Errorf("%w: mongo count: %v", contractx.ErrUpstreamUnavailable, err)
	}
	return count + 1, nil
}

package store

import (
	"context"
	"fmt"

	"github.com/titto/titto-backend/internal/qna"
	"github.com/titto/titto-backend/internal/qna/repository"
	"github.com/titto/titto-backend/internal/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo runs board transactions as multi-document Mongo transactions.
// The server must be a replica set (or sharded cluster).
type Mongo struct {
	client    *mongo.Client
	users     *users.MongoRepository
	questions *repository.MongoQuestions
	answers   *repository.MongoAnswers
}

func NewMongo(client *mongo.Client, database string) *Mongo {
	db := client.Database(database)
	return &Mongo{
		client:    client,
		users:     users.NewMongoRepository(db.Collection("users")),
		questions: repository.NewMongoQuestions(db.Collection("questions")),
		answers:   repository.NewMongoAnswers(db.Collection("answers")),
	}
}

// EnsureIndexes creates the indexes of all three collections.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	if err := m.users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := m.questions.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("questions indexes: %w", err)
	}
	if err := m.answers.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("answers indexes: %w", err)
	}
	return nil
}

type mongoTx struct{ m *Mongo }

func (t mongoTx) Users() users.Repository           { return t.m.users }
func (t mongoTx) Questions() qna.QuestionRepository { return t.m.questions }
func (t mongoTx) Answers() qna.AnswerRepository     { return t.m.answers }

// WithinTx uses session.WithTransaction, which retries fn on transient
// transaction errors such as write conflicts between concurrent accepts.
func (m *Mongo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx qna.Tx) error) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, mongoTx{m})
	})
	return err
}

func (m *Mongo) Read(ctx context.Context, fn func(ctx context.Context, tx qna.Tx) error) error {
	return fn(ctx, mongoTx{m})
}

func (m *Mongo) Users() users.Repository { return m.users }

func (m *Mongo) Ping(ctx context.Context) error { return m.client.Ping(ctx, readpref.Primary()) }

func (m *Mongo) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }

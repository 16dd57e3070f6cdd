package repository

import (
	"context"
	"errors"
	"time"

	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/qna"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoQuestions implements qna.QuestionRepository on a Mongo collection.
// Passing a mongo.SessionContext as ctx makes the calls part of its transaction.
type MongoQuestions struct {
	col *mongo.Collection
}

func NewMongoQuestions(col *mongo.Collection) *MongoQuestions {
	return &MongoQuestions{col: col}
}

// EnsureIndexes creates the indexes backing the newest-first listings.
func (m *MongoQuestions) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "department", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (m *MongoQuestions) Create(ctx context.Context, q *models.Question) error {
	_, err := m.col.InsertOne(ctx, q)
	return err
}

func (m *MongoQuestions) FindByID(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (m *MongoQuestions) Save(ctx context.Context, q *models.Question) error {
	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": q.ID}, q)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoQuestions) DeleteByID(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoQuestions) IncrementViewCount(ctx context.Context, id string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"viewCount": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoQuestions) ExistsWithAcceptedAnswer(ctx context.Context, id string) (bool, error) {
	n, err := m.col.CountDocuments(ctx, bson.M{"_id": id, "acceptedAnswerId": bson.M{"$ne": nil}})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkAccepted only matches a question whose acceptedAnswerId is still null,
// so of two racing transactions at most one can write.
func (m *MongoQuestions) MarkAccepted(ctx context.Context, questionID, answerID string) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": questionID, "acceptedAnswerId": nil},
		bson.M{"$set": bson.M{"acceptedAnswerId": answerID, "isAnswerAccepted": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return qna.ErrAlreadyAcceptedAnswer
	}
	return nil
}

func (m *MongoQuestions) ListOrderedByCreatedDesc(ctx context.Context, page models.Page) ([]*models.Question, error) {
	return m.list(ctx, bson.M{}, page)
}

func (m *MongoQuestions) ListByDepartmentOrderedByCreatedDesc(ctx context.Context, page models.Page, d models.Department) ([]*models.Question, error) {
	return m.list(ctx, bson.M{"department": d}, page)
}

func (m *MongoQuestions) list(ctx context.Context, filter bson.M, page models.Page) ([]*models.Question, error) {
	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.Question{}
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		out = append(out, &q)
	}
	return out, cur.Err()
}

// MongoAnswers implements qna.AnswerRepository on a Mongo collection.
type MongoAnswers struct {
	col *mongo.Collection
}

func NewMongoAnswers(col *mongo.Collection) *MongoAnswers {
	return &MongoAnswers{col: col}
}

func (m *MongoAnswers) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "questionId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (m *MongoAnswers) Create(ctx context.Context, a *models.Answer) error {
	_, err := m.col.InsertOne(ctx, a)
	return err
}

func (m *MongoAnswers) FindByID(ctx context.Context, id string) (*models.Answer, error) {
	var a models.Answer
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (m *MongoAnswers) Save(ctx context.Context, a *models.Answer) error {
	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoAnswers) DeleteByID(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoAnswers) DeleteAllByQuestion(ctx context.Context, questionID string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"questionId": questionID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoAnswers) ListByQuestion(ctx context.Context, questionID string) ([]*models.Answer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"questionId": questionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.Answer{}
	for cur.Next(ctx) {
		var a models.Answer
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, cur.Err()
}

func (m *MongoAnswers) CountByQuestion(ctx context.Context, questionID string) (int64, error) {
	return m.col.CountDocuments(ctx, bson.M{"questionId": questionID})
}

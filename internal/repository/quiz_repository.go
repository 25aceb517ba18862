package repository

import (
	"context"
	"errors"
	"regexp"

	"quizhub/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type QuizRepository struct {
	Col *mongo.Collection
}

func NewQuizRepository(db *mongo.Database) *QuizRepository {
	return &QuizRepository{Col: db.Collection("quizzes")}
}

// FindAll lists quizzes newest first with the creator's name and email joined
// in. A non-empty category narrows to a case-insensitive whole-string match.
func (r *QuizRepository) FindAll(ctx context.Context, category string) ([]models.Quiz, error) {
	match := bson.M{}
	if category != "" {
		match["category"] = bson.M{"$regex": "^" + regexp.QuoteMeta(category) + "$", "$options": "i"}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "createdBy",
			"foreignField": "_id",
			"as":           "creator",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$creator", "preserveNullAndEmptyArrays": true}}},
	}

	cur, err := r.Col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var quizzes []models.Quiz
	for cur.Next(ctx) {
		var q models.Quiz
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, nil
}

func (r *QuizRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&quiz)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID.IsZero() {
		quiz.ID = primitive.NewObjectID()
	}
	_, err := r.Col.InsertOne(ctx, quiz)
	return err
}

func (r *QuizRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

package repository

import (
	"context"

	"quizhub/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("results")}
}

// Create always inserts. Attempts are history, never updated in place.
func (r *ResultRepository) Create(ctx context.Context, result *models.QuizResult) error {
	if result.ID.IsZero() {
		result.ID = primitive.NewObjectID()
	}
	_, err := r.Col.InsertOne(ctx, result)
	return err
}

func (r *ResultRepository) FindByQuiz(ctx context.Context, quizID primitive.ObjectID) ([]models.QuizResult, error) {
	cur, err := r.Col.Find(ctx, bson.M{"quiz": quizID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var results []models.QuizResult
	for cur.Next(ctx) {
		var res models.QuizResult
		if err := cur.Decode(&res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

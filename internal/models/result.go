package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuizResult is one scored play-through. Results are append-only: a user gets
// a new document per attempt and the leaderboard picks the best.
type QuizResult struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Quiz           primitive.ObjectID `bson:"quiz" json:"quiz"`
	User           primitive.ObjectID `bson:"user" json:"user"`
	Score          int                `bson:"score" json:"score"`
	TotalQuestions int                `bson:"totalQuestions" json:"totalQuestions"`
	AttemptedAt    time.Time          `bson:"attemptedAt" json:"attemptedAt"`
}

// LeaderboardEntry is one row of a quiz's top-10 ranking.
type LeaderboardEntry struct {
	Name        string    `json:"name"`
	BestScore   int       `json:"bestScore"`
	AttemptedAt time.Time `json:"attemptedAt"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultQuizImage is used when a quiz is created without an uploaded image.
const DefaultQuizImage = "https://canopylab.io/wp-content/uploads/2020/05/Working-with-adaptive-quizzes-A-beginners-guide.jpg"

// Creator is the owner projection attached when quizzes are listed.
type Creator struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}

type Quiz struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Language    string             `bson:"language" json:"language"`
	Image       string             `bson:"image" json:"image"`
	Questions   []Question         `bson:"questions" json:"questions"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Creator     *Creator           `bson:"creator,omitempty" json:"creator,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Score counts the questions answered fully correctly. Answers map a question
// index to the selected option indices; a missing entry is an empty
// selection. The same function backs both the preview and the authoritative
// submission path.
func (q *Quiz) Score(answers map[int][]int) int {
	score := 0
	for i := range q.Questions {
		if q.Questions[i].IsAnsweredCorrectly(answers[i]) {
			score++
		}
	}
	return score
}

package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"quizhub/internal/event"
	"quizhub/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuizStore and ResultStore are the persistence surfaces of the quiz engine.
// Implemented by repository.QuizRepository and repository.ResultRepository.
type QuizStore interface {
	FindAll(ctx context.Context, category string) ([]models.Quiz, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ResultStore interface {
	Create(ctx context.Context, result *models.QuizResult) error
	FindByQuiz(ctx context.Context, quizID primitive.ObjectID) ([]models.QuizResult, error)
}

// UserLookup resolves account names for the leaderboard.
type UserLookup interface {
	FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// CategoryMine is a client-side sentinel, not a real category; the list
// operation treats it as no filter.
const CategoryMine = "my-quizzes"

const leaderboardSize = 10

type CreateQuizInput struct {
	Name        string
	Description string
	Language    string
	Category    string
	Image       string
	Questions   []models.Question
}

type QuizService struct {
	Quizzes QuizStore
	Results ResultStore
	Users   UserLookup
	Events  *event.EventPublisher
}

func NewQuizService(quizzes QuizStore, results ResultStore, users UserLookup, events *event.EventPublisher) *QuizService {
	return &QuizService{Quizzes: quizzes, Results: results, Users: users, Events: events}
}

// CreateQuiz validates the definition, derives each question's type from its
// option flags and persists the quiz. The derivation happens here on the
// authoritative path; whatever type the caller sent is discarded.
func (s *QuizService) CreateQuiz(ctx context.Context, input CreateQuizInput, ownerID primitive.ObjectID) (*models.Quiz, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: quiz name is required", ErrValidation)
	}
	if err := validateQuestions(input.Questions); err != nil {
		return nil, err
	}

	questions := make([]models.Question, len(input.Questions))
	for i, q := range input.Questions {
		q.Type = q.DeriveType()
		questions[i] = q
	}

	image := input.Image
	if image == "" {
		image = models.DefaultQuizImage
	}

	now := time.Now()
	quiz := &models.Quiz{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Language:    input.Language,
		Image:       image,
		Questions:   questions,
		CreatedBy:   ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Quizzes.Create(ctx, quiz); err != nil {
		return nil, err
	}
	s.Events.Publish("quiz.created", map[string]any{"quizId": quiz.ID.Hex(), "createdBy": ownerID.Hex()})
	return quiz, nil
}

func validateQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrValidation)
	}
	for i, q := range questions {
		if strings.TrimSpace(q.QuestionText) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrValidation, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrValidation, i+1)
		}
		correct := 0
		for j, opt := range q.Options {
			if strings.TrimSpace(opt.Text) == "" {
				return fmt.Errorf("%w: question %d option %d has no text", ErrValidation, i+1, j+1)
			}
			if opt.IsCorrect {
				correct++
			}
		}
		if correct == 0 {
			return fmt.Errorf("%w: question %d has no correct option", ErrValidation, i+1)
		}
	}
	return nil
}

func (s *QuizService) ListQuizzes(ctx context.Context, category string) ([]models.Quiz, error) {
	if category == CategoryMine {
		category = ""
	}
	return s.Quizzes.FindAll(ctx, category)
}

func (s *QuizService) GetQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	quizID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	quiz, err := s.Quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrNotFound
	}
	return quiz, nil
}

func (s *QuizService) DeleteQuiz(ctx context.Context, id string, requesterID primitive.ObjectID) error {
	quiz, err := s.GetQuiz(ctx, id)
	if err != nil {
		return err
	}
	if quiz.CreatedBy != requesterID {
		return ErrForbidden
	}
	if err := s.Quizzes.Delete(ctx, quiz.ID); err != nil {
		return err
	}
	s.Events.Publish("quiz.deleted", map[string]any{"quizId": id})
	return nil
}

// SubmitQuiz scores an attempt and appends it to the results history.
// Repeated submissions by the same user insert new attempts.
func (s *QuizService) SubmitQuiz(ctx context.Context, quizID string, userID primitive.ObjectID, answers map[int][]int) (score, totalQuestions int, err error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, 0, err
	}

	score = quiz.Score(answers)
	result := &models.QuizResult{
		Quiz:           quiz.ID,
		User:           userID,
		Score:          score,
		TotalQuestions: len(quiz.Questions),
		AttemptedAt:    time.Now(),
	}
	if err := s.Results.Create(ctx, result); err != nil {
		return 0, 0, err
	}
	s.Events.Publish("quiz.attempted", map[string]any{
		"quizId": quiz.ID.Hex(),
		"userId": userID.Hex(),
		"score":  score,
	})
	return score, len(quiz.Questions), nil
}

// Leaderboard returns the quiz's top entries: each account's best attempt
// (highest score, earliest on ties) ranked by score descending and timestamp
// ascending, capped at ten.
func (s *QuizService) Leaderboard(ctx context.Context, quizID string) ([]models.LeaderboardEntry, error) {
	id, err := primitive.ObjectIDFromHex(quizID)
	if err != nil {
		return nil, ErrNotFound
	}
	results, err := s.Results.FindByQuiz(ctx, id)
	if err != nil {
		return nil, err
	}

	ranked := rankResults(results)
	if len(ranked) == 0 {
		return []models.LeaderboardEntry{}, nil
	}

	ids := make([]primitive.ObjectID, len(ranked))
	for i, b := range ranked {
		ids[i] = b.User
	}
	users, err := s.Users.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	entries := make([]models.LeaderboardEntry, 0, len(ranked))
	for _, b := range ranked {
		name, ok := names[b.User]
		if !ok {
			// Attempts by deleted accounts stay in the history but never
			// rank.
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			Name:        name,
			BestScore:   b.Score,
			AttemptedAt: b.AttemptedAt,
		})
	}
	return entries, nil
}

type bestAttempt struct {
	User        primitive.ObjectID
	Score       int
	AttemptedAt time.Time
}

// rankResults reduces raw attempts to the ranked best-per-account list. Two
// phases, and the order matters: pick each account's best attempt first, then
// rank those across accounts. Ties reward the earliest timestamp.
func rankResults(results []models.QuizResult) []bestAttempt {
	best := make(map[primitive.ObjectID]bestAttempt)
	for _, r := range results {
		b, ok := best[r.User]
		if !ok || r.Score > b.Score || (r.Score == b.Score && r.AttemptedAt.Before(b.AttemptedAt)) {
			best[r.User] = bestAttempt{User: r.User, Score: r.Score, AttemptedAt: r.AttemptedAt}
		}
	}

	ranked := make([]bestAttempt, 0, len(best))
	for _, b := range best {
		ranked = append(ranked, b)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].AttemptedAt.Before(ranked[j].AttemptedAt)
	})

	if len(ranked) > leaderboardSize {
		ranked = ranked[:leaderboardSize]
	}
	return ranked
}

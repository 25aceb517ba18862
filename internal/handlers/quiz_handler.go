package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quizhub/internal/middleware"
	"quizhub/internal/models"
	"quizhub/internal/service"
	"quizhub/internal/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuizHandler struct {
	Service *service.QuizService
	// Images is nil when no object store is configured; uploads are then
	// ignored and the default image used.
	Images *storage.ImageStore
}

func NewQuizHandler(s *service.QuizService, images *storage.ImageStore) *QuizHandler {
	return &QuizHandler{Service: s, Images: images}
}

// CreateQuiz accepts multipart form data: scalar fields, the questions as a
// JSON-encoded string, and an optional image file.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	ownerID, err := primitive.ObjectIDFromHex(middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is not valid or expired"})
		return
	}

	var questions []models.Question
	if err := json.Unmarshal([]byte(c.PostForm("questions")), &questions); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "questions must be a JSON array"})
		return
	}

	input := service.CreateQuizInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Language:    c.PostForm("language"),
		Category:    c.PostForm("category"),
		Questions:   questions,
	}

	if file, err := c.FormFile("image"); err == nil {
		if h.Images == nil {
			log.Println("Image store not configured, ignoring uploaded image")
		} else {
			src, err := file.Open()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			defer src.Close()
			url, err := h.Images.Store(c.Request.Context(), file.Filename, file.Header.Get("Content-Type"), src, file.Size)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			input.Image = url
		}
	}

	quiz, err := h.Service.CreateQuiz(context.Background(), input, ownerID)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Quiz created successfully", "quiz": quiz})
}

func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.Service.ListQuizzes(context.Background(), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if quizzes == nil {
		quizzes = []models.Quiz{}
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quiz, err := h.Service.GetQuiz(context.Background(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": quiz})
}

func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	requesterID, err := primitive.ObjectIDFromHex(middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is not valid or expired"})
		return
	}

	err = h.Service.DeleteQuiz(context.Background(), c.Param("id"), requesterID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted successfully"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized to delete this quiz"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type submitQuizRequest struct {
	QuizID string `json:"quizId" binding:"required"`
	// Keys are question indices, values the selected option indices.
	UserAnswers map[int][]int `json:"userAnswers"`
}

func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is not valid or expired"})
		return
	}

	var req submitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	score, total, err := h.Service.SubmitQuiz(context.Background(), req.QuizID, userID, req.UserAnswers)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quiz submitted", "score": score, "totalQuestions": total})
}

func (h *QuizHandler) GetLeaderboard(c *gin.Context) {
	leaderboard, err := h.Service.Leaderboard(context.Background(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": leaderboard})
}

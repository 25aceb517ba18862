package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizhub/internal/middleware"
	"quizhub/internal/models"
	"quizhub/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copy := *u
	return &copy, nil
}

func (f *fakeUserStore) FindManyByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	copy := *user
	f.users[user.ID] = &copy
	return nil
}

func (f *fakeUserStore) Save(_ context.Context, user *models.User) error {
	copy := *user
	f.users[user.ID] = &copy
	return nil
}

type fakeQuizStore struct {
	quizzes map[primitive.ObjectID]*models.Quiz
}

func (f *fakeQuizStore) FindAll(_ context.Context, category string) ([]models.Quiz, error) {
	var out []models.Quiz
	for _, q := range f.quizzes {
		if category == "" || strings.EqualFold(q.Category, category) {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeQuizStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Quiz, error) {
	q, ok := f.quizzes[id]
	if !ok {
		return nil, nil
	}
	copy := *q
	return &copy, nil
}

func (f *fakeQuizStore) Create(_ context.Context, quiz *models.Quiz) error {
	if quiz.ID.IsZero() {
		quiz.ID = primitive.NewObjectID()
	}
	copy := *quiz
	f.quizzes[quiz.ID] = &copy
	return nil
}

func (f *fakeQuizStore) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(f.quizzes, id)
	return nil
}

type fakeResultStore struct {
	results []models.QuizResult
}

func (f *fakeResultStore) Create(_ context.Context, result *models.QuizResult) error {
	f.results = append(f.results, *result)
	return nil
}

func (f *fakeResultStore) FindByQuiz(_ context.Context, quizID primitive.ObjectID) ([]models.QuizResult, error) {
	var out []models.QuizResult
	for _, r := range f.results {
		if r.Quiz == quizID {
			out = append(out, r)
		}
	}
	return out, nil
}

type silentSender struct{}

func (silentSender) Send(to, subject, body string) error { return nil }

type testApp struct {
	router *gin.Engine
	users  *fakeUserStore
}

func newTestApp() *testApp {
	gin.SetMode(gin.TestMode)

	userStore := &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
	quizStore := &fakeQuizStore{quizzes: make(map[primitive.ObjectID]*models.Quiz)}
	resultStore := &fakeResultStore{}

	jwtService := service.NewJWTService("handlers-test-secret", 1)
	userService := service.NewUserService(userStore, silentSender{}, jwtService, nil, nil)
	quizService := service.NewQuizService(quizStore, resultStore, userStore, nil)

	authHandler := NewAuthHandler(userService)
	quizHandler := NewQuizHandler(quizService, nil)
	requireAuth := middleware.RequireAuth(jwtService)

	r := gin.New()
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/resend-otp", authHandler.ResendOtp)
		auth.POST("/login", authHandler.Login)
		auth.GET("/profile", requireAuth, authHandler.GetProfile)
	}
	quiz := r.Group("/api/quiz")
	{
		quiz.POST("", requireAuth, quizHandler.CreateQuiz)
		quiz.GET("", quizHandler.ListQuizzes)
		quiz.POST("/submit", requireAuth, quizHandler.SubmitQuiz)
		quiz.GET("/:id", quizHandler.GetQuiz)
		quiz.DELETE("/:id", requireAuth, quizHandler.DeleteQuiz)
		quiz.GET("/:id/leaderboard", quizHandler.GetLeaderboard)
	}

	return &testApp{router: r, users: userStore}
}

func (app *testApp) postJSON(t *testing.T, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) otpFor(t *testing.T, email string) string {
	t.Helper()
	u, _ := app.users.FindByEmail(context.Background(), email)
	if u == nil {
		t.Fatalf("no user stored for %s", email)
	}
	return u.Otp
}

// signUp registers and verifies an account and returns a login token.
func (app *testApp) signUp(t *testing.T, name, email, password string) string {
	t.Helper()
	if w := app.postJSON(t, "/api/auth/register", "", gin.H{"name": name, "email": email, "password": password}); w.Code != http.StatusCreated {
		t.Fatalf("register: status %d: %s", w.Code, w.Body.String())
	}
	if w := app.postJSON(t, "/api/auth/verify-email", "", gin.H{"email": email, "otp": app.otpFor(t, email)}); w.Code != http.StatusOK {
		t.Fatalf("verify: status %d: %s", w.Code, w.Body.String())
	}
	w := app.postJSON(t, "/api/auth/login", "", gin.H{"email": email, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

func (app *testApp) createQuiz(t *testing.T, token string) string {
	t.Helper()
	questions := `[{"questionText":"2+2?","options":[{"text":"4","isCorrect":true},{"text":"5","isCorrect":false}]}]`
	form := fmt.Sprintf("name=Math&category=Numbers&questions=%s", strings.ReplaceAll(questions, "+", "%2B"))
	req := httptest.NewRequest(http.MethodPost, "/api/quiz", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create quiz: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Quiz struct {
			ID string `json:"id"`
		} `json:"quiz"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Quiz.ID
}

func TestLoginBeforeVerificationFails(t *testing.T) {
	app := newTestApp()

	if w := app.postJSON(t, "/api/auth/register", "", gin.H{"name": "Alice", "email": "a@example.com", "password": "pw"}); w.Code != http.StatusCreated {
		t.Fatalf("register: status %d", w.Code)
	}
	if w := app.postJSON(t, "/api/auth/login", "", gin.H{"email": "a@example.com", "password": "pw"}); w.Code != http.StatusUnauthorized {
		t.Errorf("unverified login: status %d, want 401", w.Code)
	}
	wrong := "999999"
	if app.otpFor(t, "a@example.com") == wrong {
		wrong = "000000"
	}
	if w := app.postJSON(t, "/api/auth/verify-email", "", gin.H{"email": "a@example.com", "otp": wrong}); w.Code != http.StatusBadRequest {
		t.Errorf("bad OTP verify: status %d, want 400", w.Code)
	}

	if w := app.postJSON(t, "/api/auth/resend-otp", "", gin.H{"email": "a@example.com"}); w.Code != http.StatusOK {
		t.Errorf("resend-otp: status %d, want 200", w.Code)
	}
	if w := app.postJSON(t, "/api/auth/verify-email", "", gin.H{"email": "a@example.com", "otp": app.otpFor(t, "a@example.com")}); w.Code != http.StatusOK {
		t.Errorf("verify with reissued OTP: status %d, want 200", w.Code)
	}
	if w := app.postJSON(t, "/api/auth/resend-otp", "", gin.H{"email": "a@example.com"}); w.Code != http.StatusBadRequest {
		t.Errorf("resend-otp for a verified account: status %d, want 400", w.Code)
	}
}

func TestQuizLifecycleOverHTTP(t *testing.T) {
	app := newTestApp()
	owner := app.signUp(t, "Owner", "owner@example.com", "ownerpw")
	player := app.signUp(t, "Player", "player@example.com", "playerpw")

	quizID := app.createQuiz(t, owner)

	if w := app.do(t, http.MethodGet, "/api/quiz/"+quizID, ""); w.Code != http.StatusOK {
		t.Errorf("get quiz: status %d", w.Code)
	}
	if w := app.do(t, http.MethodGet, "/api/quiz?category=numbers", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Math") {
		t.Errorf("list by category failed: %d %s", w.Code, w.Body.String())
	}

	// Submission requires auth.
	if w := app.postJSON(t, "/api/quiz/submit", "", gin.H{"quizId": quizID, "userAnswers": gin.H{"0": []int{0}}}); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous submit: status %d, want 401", w.Code)
	}
	w := app.postJSON(t, "/api/quiz/submit", player, gin.H{"quizId": quizID, "userAnswers": gin.H{"0": []int{0}}})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: status %d: %s", w.Code, w.Body.String())
	}
	var submitResp struct {
		Score          int `json:"score"`
		TotalQuestions int `json:"totalQuestions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &submitResp); err != nil {
		t.Fatal(err)
	}
	if submitResp.Score != 1 || submitResp.TotalQuestions != 1 {
		t.Errorf("submit scored %d/%d, want 1/1", submitResp.Score, submitResp.TotalQuestions)
	}

	w = app.do(t, http.MethodGet, "/api/quiz/"+quizID+"/leaderboard", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Player") {
		t.Errorf("leaderboard: %d %s", w.Code, w.Body.String())
	}

	// Only the owner may delete.
	if w := app.do(t, http.MethodDelete, "/api/quiz/"+quizID, player); w.Code != http.StatusForbidden {
		t.Errorf("non-owner delete: status %d, want 403", w.Code)
	}
	if w := app.do(t, http.MethodDelete, "/api/quiz/"+quizID, owner); w.Code != http.StatusOK {
		t.Errorf("owner delete: status %d, want 200", w.Code)
	}
	if w := app.do(t, http.MethodGet, "/api/quiz/"+quizID, ""); w.Code != http.StatusNotFound {
		t.Errorf("deleted quiz fetch: status %d, want 404", w.Code)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	app := newTestApp()
	token := app.signUp(t, "Alice", "alice@example.com", "pw")

	w := app.do(t, http.MethodGet, "/api/auth/profile", token)
	if w.Code != http.StatusOK {
		t.Fatalf("profile: status %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("profile response must not leak the password hash")
	}
	if !strings.Contains(w.Body.String(), "alice@example.com") {
		t.Errorf("profile missing email: %s", w.Body.String())
	}

	if w := app.do(t, http.MethodGet, "/api/auth/profile", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous profile: status %d, want 401", w.Code)
	}
}

package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"quizhub/internal/event"
	"quizhub/internal/models"

	redis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence surface the credential lifecycle needs.
// Implemented by repository.UserRepository.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
}

// Sender delivers one-time codes. Implemented by mailer.EmailService.
type Sender interface {
	Send(to, subject, body string) error
}

const (
	lockKeyPrefix  = "quizhub:lock:"
	lockDuration   = 10 * time.Minute
	maxFailedTries = 10
)

type failedLogin struct {
	lastFailedAt time.Time
	count        int
}

type UserService struct {
	Users  UserStore
	Mailer Sender
	JWT    *JWTService
	// Redis backs the login lockout; nil disables it.
	Redis  *redis.Client
	Events *event.EventPublisher

	mu           sync.Mutex
	failedLogins map[string]*failedLogin
}

func NewUserService(users UserStore, sender Sender, jwtService *JWTService, redisClient *redis.Client, events *event.EventPublisher) *UserService {
	return &UserService{
		Users:        users,
		Mailer:       sender,
		JWT:          jwtService,
		Redis:        redisClient,
		Events:       events,
		failedLogins: make(map[string]*failedLogin),
	}
}

// NormalizeEmail lowercases and trims, matching how addresses are stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and mails a verification code. An
// existing unverified account is updated in place and the code reissued, so
// re-registering never creates a duplicate; the returned flag distinguishes
// that resend path. A verified account fails with ErrAlreadyRegistered.
func (us *UserService) Register(ctx context.Context, name, email, password string) (resent bool, err error) {
	email = NormalizeEmail(email)

	existing, err := us.Users.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.IsVerified {
		return false, ErrAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("error hashing password: %w", err)
	}
	otp, err := GenerateOTP()
	if err != nil {
		return false, err
	}
	expires := time.Now().Add(OTPTTL)

	if existing != nil {
		existing.Name = name
		existing.Password = string(hash)
		existing.Otp = otp
		existing.OtpExpires = expires
		if err := us.Users.Save(ctx, existing); err != nil {
			return false, err
		}
		if err := us.Mailer.Send(email, "Verify your email", "Your verification code is: "+otp); err != nil {
			return false, err
		}
		return true, nil
	}

	user := &models.User{
		Name:       name,
		Email:      email,
		Password:   string(hash),
		IsVerified: false,
		Otp:        otp,
		OtpExpires: expires,
	}
	if err := us.Users.Create(ctx, user); err != nil {
		return false, err
	}
	if err := us.Mailer.Send(email, "Verify your email", "Your verification code is: "+otp); err != nil {
		return false, err
	}
	us.Events.Publish("user.registered", map[string]any{"userId": user.ID.Hex(), "email": email})
	return false, nil
}

// VerifyEmail flips the account to verified when the pending code matches and
// is unexpired, then clears the code fields for good.
func (us *UserService) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := us.Users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if !user.OtpValid(code, time.Now()) {
		return ErrInvalidOTP
	}

	user.IsVerified = true
	user.Otp = ""
	user.OtpExpires = time.Time{}
	if err := us.Users.Save(ctx, user); err != nil {
		return err
	}
	us.Events.Publish("user.verified", map[string]any{"userId": user.ID.Hex()})
	return nil
}

// ResendOTP reissues the verification code for an unverified account. The
// previous code stops working once the new one is stored.
func (us *UserService) ResendOTP(ctx context.Context, email string) error {
	user, err := us.Users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	otp, err := GenerateOTP()
	if err != nil {
		return err
	}
	user.Otp = otp
	user.OtpExpires = time.Now().Add(OTPTTL)
	if err := us.Users.Save(ctx, user); err != nil {
		return err
	}
	return us.Mailer.Send(user.Email, "Your new OTP", "Your new OTP is: "+otp)
}

// Login checks verification before the password: an unverified account gets
// ErrNotVerified no matter what password was supplied. Unknown emails and
// wrong passwords both map to ErrInvalidCredentials.
func (us *UserService) Login(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	if us.isLocked(ctx, email) {
		return "", ErrAccountLocked
	}

	user, err := us.Users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", ErrNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		us.recordFailedLogin(ctx, email)
		return "", ErrInvalidCredentials
	}

	us.clearFailedLogins(email)
	return us.JWT.GenerateToken(user.ID.Hex())
}

// ForgotPassword issues a reset code. It reuses the same OTP fields as
// verification; concurrent flows are last-write-wins.
func (us *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := us.Users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	otp, err := GenerateOTP()
	if err != nil {
		return err
	}
	user.Otp = otp
	user.OtpExpires = time.Now().Add(OTPTTL)
	if err := us.Users.Save(ctx, user); err != nil {
		return err
	}
	return us.Mailer.Send(user.Email, "Reset your password", "Your password reset OTP is: "+otp)
}

// ResetPassword replaces the credential when the reset code checks out. The
// verified flag is left alone.
func (us *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := us.Users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if !user.OtpValid(code, time.Now()) {
		return ErrInvalidOTP
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	user.Password = string(hash)
	user.Otp = ""
	user.OtpExpires = time.Time{}
	return us.Users.Save(ctx, user)
}

func (us *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	user, err := us.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (us *UserService) isLocked(ctx context.Context, email string) bool {
	if us.Redis == nil {
		return false
	}
	n, err := us.Redis.Exists(ctx, lockKeyPrefix+email).Result()
	if err != nil {
		log.Printf("Error checking lock for %s: %v", email, err)
		return false
	}
	return n > 0
}

// recordFailedLogin tracks failures in memory and escalates to a redis lock
// on burst failures (two inside a second) or more than maxFailedTries.
func (us *UserService) recordFailedLogin(ctx context.Context, email string) {
	if us.Redis == nil {
		return
	}
	now := time.Now()

	us.mu.Lock()
	attempt := us.failedLogins[email]
	if attempt == nil {
		attempt = &failedLogin{}
		us.failedLogins[email] = attempt
	}
	burst := !attempt.lastFailedAt.IsZero() && now.Sub(attempt.lastFailedAt) < time.Second
	attempt.lastFailedAt = now
	attempt.count++
	count := attempt.count
	us.mu.Unlock()

	if burst || count > maxFailedTries {
		log.Printf("WARN: locking %s after %d failed login attempts", email, count)
		if err := us.Redis.Set(ctx, lockKeyPrefix+email, now.UnixMilli(), lockDuration).Err(); err != nil {
			log.Printf("Error setting lock for %s: %v", email, err)
		}
	}
}

func (us *UserService) clearFailedLogins(email string) {
	us.mu.Lock()
	delete(us.failedLogins, email)
	us.mu.Unlock()
}

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"template-service/internal/model"
	"template-service/pkg/config"
	"template-service/pkg/jwtutil"
	"template-service/pkg/logger"
	"template-service/pkg/notify"
	"template-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"
	tempPasswordLength   = 8
)

// Session is an issued access token together with the claims it carries
type Session struct {
	AccessToken string
	Claims      *jwtutil.UserClaims
}

// PasswordReset describes the outcome of a password reset. TempPassword is
// only set when the email could not be delivered.
type PasswordReset struct {
	Email        string
	EmailSent    bool
	TempPassword string
}

// SignupInput is the data needed to register a user
type SignupInput struct {
	Email    string
	Password string
	Tenant   string
}

// AuthService verifies credentials and issues sessions
type AuthService struct {
	db       *gorm.DB
	tenants  *TenantService
	jwt      *jwtutil.JWTUtil
	notifier notify.Notifier
	cfg      config.AuthConfig
}

// NewAuthService creates the authentication service
func NewAuthService(db *gorm.DB, tenants *TenantService, jwt *jwtutil.JWTUtil, notifier notify.Notifier, cfg config.AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{db: db, tenants: tenants, jwt: jwt, notifier: notifier, cfg: cfg}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// ValidateCredentials returns the user when email and password match, and
// nil without an error when they do not.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*model.User, error) {
	log := logger.FromContext(ctx)

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		log.Info("Login for unknown email", zap.String("email", email))
		prometheus.RecordAuthError("user_not_found")
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Info("Invalid password", zap.String("email", user.Email))
		prometheus.RecordAuthError("invalid_password")
		return nil, nil
	}
	return user, nil
}

// IssueSession signs a token for the user
func (s *AuthService) IssueSession(user *model.User) (*Session, error) {
	role := user.Role
	if role == "" {
		role = model.RoleUser
	}
	token, claims, err := s.jwt.GenerateToken(user.ID, user.Email, user.TenantID, role)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Session{AccessToken: token, Claims: claims}, nil
}

// Login validates credentials and issues a session. Bad credentials are an
// ErrAuthentication.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		prometheus.RecordLogin(false)
		return nil, err
	}
	if user == nil {
		prometheus.RecordLogin(false)
		return nil, newError(ErrAuthentication, "invalid credentials", nil)
	}

	session, err := s.IssueSession(user)
	if err != nil {
		prometheus.RecordLogin(false)
		return nil, err
	}

	prometheus.RecordLogin(true)
	logger.FromContext(ctx).Info("User logged in",
		zap.String("user_id", user.ID),
		zap.String("tenant_id", user.TenantID),
		zap.String("role", session.Claims.Role))
	return session, nil
}

// Signup registers a plain user in an existing tenant and logs them in. The
// tenant may be given by id or by name.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	log := logger.FromContext(ctx)

	session, err := s.signup(ctx, in)
	if err != nil {
		prometheus.RecordSignup(false)
		return nil, err
	}
	prometheus.RecordSignup(true)
	log.Info("User signed up",
		zap.String("user_id", session.Claims.UserID()),
		zap.String("tenant_id", session.Claims.TenantID))
	return session, nil
}

func (s *AuthService) signup(ctx context.Context, in SignupInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, newError(ErrValidation, "email and password are required", nil)
	}

	tenant, err := s.tenants.Resolve(ctx, in.Tenant)
	if err != nil {
		return nil, err
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		prometheus.RecordAuthError("email_already_exists")
		return nil, newError(ErrConflict, "User with this email already exists", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		Email:    email,
		Password: string(hash),
		TenantID: tenant.ID,
		Role:     model.RoleUser,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, newError(ErrConflict, "User with this email already exists", err)
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, newError(ErrValidation, fmt.Sprintf("Tenant %q does not exist", in.Tenant), err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.IssueSession(&user)
}

// ResetPassword replaces the user's password with a random temporary one
// and tries to email it. When delivery fails the temporary password is
// returned to the caller unless revealing it is disabled.
func (s *AuthService) ResetPassword(ctx context.Context, email string) (*PasswordReset, error) {
	log := logger.FromContext(ctx)

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newError(ErrNotFound, "No account found with this email address. Please check and try again.", nil)
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	start := time.Now()
	err = s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Update("password", string(hash)).Error
	prometheus.TrackDBOperation("update")(start)
	if err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}

	reset := &PasswordReset{Email: user.Email}
	if err := s.notifier.SendPasswordReset(ctx, user.Email, tempPassword); err != nil {
		log.Warn("Password reset email not delivered", zap.String("user_id", user.ID), zap.Error(err))
		if !s.cfg.RevealTempPassword {
			prometheus.RecordPasswordReset("failed")
			return nil, newError(ErrDependency, "Password reset email could not be sent. Please contact support.", err)
		}
		prometheus.RecordPasswordReset("revealed")
		reset.TempPassword = tempPassword
		return reset, nil
	}

	prometheus.RecordPasswordReset("email")
	reset.EmailSent = true
	log.Info("Password reset", zap.String("user_id", user.ID))
	return reset, nil
}

func generateTempPassword() (string, error) {
	size := big.NewInt(int64(len(tempPasswordAlphabet)))
	buf := make([]byte, tempPasswordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate temporary password: %w", err)
		}
		buf[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/parking/internal/clock"
	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

type AuthUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, *Token, error)
	Login(ctx context.Context, input LoginInput) (*Token, error)
	Authenticate(tokenString string) (domain.Principal, error)
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Pincode  string `json:"pincode"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Token struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	Role        domain.Role `json:"role"`
	UserID      int64       `json:"user_id,omitempty"`
}

// AdminCredentials identifies the single operator account. Password may be
// plain text or a bcrypt hash.
type AdminCredentials struct {
	Username string
	Password string
}

type AuthService struct {
	store    repository.Store
	secret   []byte
	tokenTTL time.Duration
	admin    AdminCredentials
	clock    clock.Clock
	log      *zap.Logger
}

type AuthServiceOption func(*AuthService)

func WithClock(c clock.Clock) AuthServiceOption {
	return func(s *AuthService) {
		s.clock = c
	}
}

func WithLogger(log *zap.Logger) AuthServiceOption {
	return func(s *AuthService) {
		s.log = log
	}
}

func NewAuthService(store repository.Store, secret string, tokenTTL time.Duration, admin AdminCredentials, opts ...AuthServiceOption) *AuthService {
	service := &AuthService{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		admin:    admin,
		clock:    clock.Real{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	service.log = service.log.Named("auth.service")
	return service
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *Token, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	switch {
	case input.Username == "":
		return nil, nil, domain.InvalidInput("username is required")
	case input.Password == "":
		return nil, nil, domain.InvalidInput("password is required")
	case input.Email == "":
		return nil, nil, domain.InvalidInput("email is required")
	}
	if s.admin.Username != "" && strings.EqualFold(input.Username, s.admin.Username) {
		return nil, nil, fmt.Errorf("username %q: %w", input.Username, domain.ErrDuplicate)
	}

	user := &domain.User{
		Username: input.Username,
		Email:    input.Email,
		Name:     strings.TrimSpace(input.Name),
		Address:  strings.TrimSpace(input.Address),
		Pincode:  strings.TrimSpace(input.Pincode),
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, nil, err
	}

	token, err := s.issue(strconv.FormatInt(user.ID, 10), domain.RoleUser, user.Username)
	if err != nil {
		return nil, nil, err
	}
	token.UserID = user.ID
	s.log.Info("user registered", zap.Int64("user_id", user.ID))
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Token, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.admin.Username != "" && username == s.admin.Username {
		if !s.checkAdminPassword(input.Password) {
			s.log.Warn("admin login failed")
			return nil, domain.ErrInvalidCredentials
		}
		return s.issue(adminSubject, domain.RoleAdmin, username)
	}

	var user *domain.User
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		user, err = r.Users.GetByUsername(ctx, username)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(input.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issue(strconv.FormatInt(user.ID, 10), domain.RoleUser, user.Username)
	if err != nil {
		return nil, err
	}
	token.UserID = user.ID
	return token, nil
}

func (s *AuthService) checkAdminPassword(attempt string) bool {
	if strings.HasPrefix(s.admin.Password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(s.admin.Password), []byte(attempt)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(s.admin.Password), []byte(attempt)) == 1
}

func (s *AuthService) issue(subject string, role domain.Role, username string) (*Token, error) {
	now := s.clock.Now()
	expires := now.Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub":      subject,
		"role":     string(role),
		"username": username,
		"iat":      now.Unix(),
		"exp":      expires.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: signed, ExpiresAt: expires, Role: role}, nil
}

// Authenticate verifies a bearer token and returns the principal it names.
func (s *AuthService) Authenticate(tokenString string) (domain.Principal, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.Anonymous(), fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return domain.Anonymous(), fmt.Errorf("%w: malformed token", domain.ErrUnauthenticated)
		}
		return domain.Anonymous(), fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return domain.Anonymous(), domain.ErrUnauthenticated
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	switch domain.Role(role) {
	case domain.RoleAdmin:
		if sub != adminSubject {
			return domain.Anonymous(), fmt.Errorf("%w: bad admin subject", domain.ErrUnauthenticated)
		}
		return domain.AdminPrincipal(), nil
	case domain.RoleUser:
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil || id <= 0 {
			return domain.Anonymous(), fmt.Errorf("%w: bad subject", domain.ErrUnauthenticated)
		}
		return domain.UserPrincipal(id), nil
	default:
		return domain.Anonymous(), fmt.Errorf("%w: unknown role %q", domain.ErrUnauthenticated, role)
	}
}

var _ AuthUseCase = (*AuthService)(nil)

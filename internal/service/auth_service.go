package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/poshpearl/poshpearl/internal/cache"
	"github.com/poshpearl/poshpearl/internal/config"
	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/repository"
)

const resetTokenTTL = 2 * time.Hour

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	IsStaff      bool   `json:"is_staff"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	CompanyName string
}

// AuthService 用户鉴权服务
type AuthService struct {
	cfg          *config.Config
	userRepo     repository.UserRepository
	cartService  *CartService
	notification *NotificationService
}

// NewAuthService 创建鉴权服务
func NewAuthService(cfg *config.Config, userRepo repository.UserRepository, cartService *CartService, notification *NotificationService) *AuthService {
	return &AuthService{
		cfg:          cfg,
		userRepo:     userRepo,
		cartService:  cartService,
		notification: notification,
	}
}

// GenerateJWT 生成用户 JWT Token
func (s *AuthService) GenerateJWT(user *models.User, expireHours int) (string, time.Time, error) {
	if expireHours <= 0 {
		expireHours = s.cfg.UserJWT.ExpireHours
		if expireHours <= 0 {
			expireHours = 24
		}
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		IsStaff:      user.IsStaff,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析用户 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Register 注册新用户，成功后合并匿名购物车并触发欢迎邮件
func (s *AuthService) Register(input RegisterInput, sessionKey string) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, "", time.Time{}, err
	}
	existing, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if existing != nil {
		return nil, "", time.Time{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	user := &models.User{
		Email:        normalized,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
		CompanyName:  strings.TrimSpace(input.CompanyName),
		Status:       constants.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", time.Time{}, err
	}

	if sessionKey != "" && s.cartService != nil {
		_ = s.cartService.MergeOnLogin(sessionKey, user.ID)
	}
	if s.notification != nil {
		s.notification.NotifyWelcome(user.ID)
	}

	token, expiresAt, err := s.GenerateJWT(user, 0)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// Login 用户登录，成功后合并匿名购物车
func (s *AuthService) Login(email, password, sessionKey string, rememberMe bool) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if strings.ToLower(user.Status) != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	expireHours := s.cfg.UserJWT.ExpireHours
	if rememberMe && s.cfg.UserJWT.RememberMeExpireHours > 0 {
		expireHours = s.cfg.UserJWT.RememberMeExpireHours
	}
	token, expiresAt, err := s.GenerateJWT(user, expireHours)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	if sessionKey != "" && s.cartService != nil {
		_ = s.cartService.MergeOnLogin(sessionKey, user.ID)
	}
	return user, token, expiresAt, nil
}

// ValidateClaims 校验 JWT 声明对应的用户仍然有效
func (s *AuthService) ValidateClaims(ctx context.Context, claims *UserJWTClaims) (*models.User, error) {
	if claims == nil || claims.UserID == 0 {
		return nil, ErrInvalidCredentials
	}
	if state, found, _ := cache.GetUserAuthState(ctx, claims.UserID); found {
		if state.Status != constants.UserStatusActive || state.TokenVersion != claims.TokenVersion {
			return nil, ErrInvalidCredentials
		}
		if state.TokenInvalidBefore > 0 && claims.IssuedAt != nil && claims.IssuedAt.Unix() < state.TokenInvalidBefore {
			return nil, ErrInvalidCredentials
		}
	}
	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if strings.ToLower(user.Status) != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrInvalidCredentials
	}
	if user.TokenInvalidBefore != nil && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(*user.TokenInvalidBefore) {
		return nil, ErrInvalidCredentials
	}
	_ = cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user))
	return user, nil
}

// RequestPasswordReset 生成重置令牌并触发重置邮件。
// 邮箱不存在时静默成功，避免探测注册邮箱。
func (s *AuthService) RequestPasswordReset(email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, err := randomToken(32)
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetTokenTTL)
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"reset_token":         token,
		"reset_token_expires": expires,
	}); err != nil {
		return err
	}
	if s.notification != nil {
		s.notification.NotifyPasswordReset(user.ID, token)
	}
	return nil
}

// ResetPassword 用重置令牌设置新密码
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}
	user, err := s.userRepo.GetByResetToken(strings.TrimSpace(token))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrResetTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"password_hash":       string(hash),
		"reset_token":         "",
		"reset_token_expires": nil,
		"token_version":       user.TokenVersion + 1,
	}); err != nil {
		return err
	}
	_ = cache.DelUserAuthState(context.Background(), user.ID)
	return nil
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"password_hash": string(hash),
		"token_version": user.TokenVersion + 1,
	}); err != nil {
		return err
	}
	_ = cache.DelUserAuthState(context.Background(), user.ID)
	return nil
}

// GetUserByID 按 ID 获取用户
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

func randomToken(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

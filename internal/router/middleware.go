package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/poshpearl/poshpearl/internal/cache"
	"github.com/poshpearl/poshpearl/internal/config"
	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/repository"
	"github.com/poshpearl/poshpearl/internal/service"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const staffContextKey = "is_staff"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// SessionMiddleware 匿名会话中间件。
// 无 ps_session cookie 时懒发一个 uuid，匿名购物车挂在它下面。
func SessionMiddleware(cfg config.SessionConfig) gin.HandlerFunc {
	maxAge := cfg.MaxAgeDays * 24 * 3600
	if maxAge <= 0 {
		maxAge = constants.SessionCookieMaxAge
	}
	return func(c *gin.Context) {
		key, err := c.Cookie(constants.SessionCookieName)
		if err != nil || strings.TrimSpace(key) == "" {
			key = uuid.NewString()
			c.SetCookie(constants.SessionCookieName, key, maxAge, "/", cfg.CookieDomain, cfg.CookieSecure, true)
		}
		c.Set("session_key", key)
		c.Next()
	}
}

func parseBearerClaims(c *gin.Context, secretKey string) (*service.UserJWTClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || secretKey == "" {
		return nil, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return nil, false
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &service.UserJWTClaims{}
	token, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return nil, false
	}
	return claims, true
}

func validateUserClaims(c *gin.Context, claims *service.UserJWTClaims, userRepo repository.UserRepository) bool {
	if cached, hit, err := cache.GetUserAuthState(c.Request.Context(), claims.UserID); err == nil && hit && cached != nil {
		if !isActiveUserStatus(cached.Status) {
			return false
		}
		if claims.TokenVersion != cached.TokenVersion || !isIssuedAfterInvalidBeforeUnix(claims.IssuedAt, cached.TokenInvalidBefore) {
			return false
		}
		c.Set(staffContextKey, cached.IsStaff)
		return true
	}

	if userRepo == nil {
		return false
	}
	user, err := userRepo.GetByID(claims.UserID)
	if err != nil || user == nil {
		return false
	}
	if !isActiveUserStatus(user.Status) {
		return false
	}
	if claims.TokenVersion != user.TokenVersion || !isIssuedAfterInvalidBefore(claims.IssuedAt, user.TokenInvalidBefore) {
		return false
	}
	_ = cache.SetUserAuthState(c.Request.Context(), cache.BuildUserAuthState(user))
	c.Set(staffContextKey, user.IsStaff)
	return true
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件（必须登录）
func UserJWTAuthMiddleware(secretKey string, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearerClaims(c, secretKey)
		if !ok {
			response.Unauthorized(c, "invalid or missing token")
			c.Abort()
			return
		}
		if !validateUserClaims(c, claims, userRepo) {
			response.Unauthorized(c, "token revoked or account disabled")
			c.Abort()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}

// OptionalUserMiddleware 可选登录中间件。
// 携带有效令牌时注入用户身份，否则按匿名会话继续。
func OptionalUserMiddleware(secretKey string, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearerClaims(c, secretKey); ok {
			if validateUserClaims(c, claims, userRepo) {
				c.Set("user_id", claims.UserID)
				c.Set("user_email", claims.Email)
			}
		}
		c.Next()
	}
}

// StaffAuthMiddleware 员工鉴权中间件，置于 UserJWTAuthMiddleware 之后。
func StaffAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if value, ok := c.Get(staffContextKey); ok {
			if isStaff, ok := value.(bool); ok && isStaff {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "staff access required")
		c.Abort()
	}
}

func isIssuedAfterInvalidBefore(issuedAt *jwt.NumericDate, invalidBefore *time.Time) bool {
	if invalidBefore == nil {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Time.Unix() >= invalidBefore.Unix()
}

func isIssuedAfterInvalidBeforeUnix(issuedAt *jwt.NumericDate, invalidBeforeUnix int64) bool {
	if invalidBeforeUnix <= 0 {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Time.Unix() >= invalidBeforeUnix
}

func isActiveUserStatus(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == constants.UserStatusActive
}

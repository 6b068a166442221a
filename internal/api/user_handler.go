package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resumebuilder/internal/api/middleware"
	"resumebuilder/internal/auth"
	"resumebuilder/internal/metrics"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/users"
)

const invalidCredentialsMessage = "Invalid email or password"

// WelcomeMailer 在注册成功后安排欢迎邮件。
type WelcomeMailer interface {
	ScheduleWelcomeMail(ctx context.Context, email, name string) error
}

// UserHandler 处理注册、登录与账号数据查询。
type UserHandler struct {
	users                 *users.Service
	resumes               *resume.Service
	tokens                *auth.TokenService
	redis                 rateStore
	mailer                WelcomeMailer
	logger                *slog.Logger
	loginRateLimitPerHour int
	loginLockThreshold    int
	loginLockTTL          time.Duration
}

// NewUserHandler 构造账号处理器。redis 与 mailer 可以为空。
func NewUserHandler(
	userService *users.Service,
	resumeService *resume.Service,
	tokens *auth.TokenService,
	redisClient rateStore,
	mailer WelcomeMailer,
	logger *slog.Logger,
	loginRateLimitPerHour int,
	loginLockThreshold int,
	loginLockTTL time.Duration,
) *UserHandler {
	return &UserHandler{
		users:                 userService,
		resumes:               resumeService,
		tokens:                tokens,
		redis:                 redisClient,
		mailer:                mailer,
		logger:                logger,
		loginRateLimitPerHour: loginRateLimitPerHour,
		loginLockThreshold:    loginLockThreshold,
		loginLockTTL:          loginLockTTL,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register 创建新账号并直接返回登录令牌。
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	user, err := h.users.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrMissingFields):
			BadRequest(c, "Missing required fields (name, email, password)")
		case errors.Is(err, users.ErrEmailTaken):
			logger.Info("register conflict: user already exists")
			BadRequest(c, "User already exists with this email address")
		case errors.Is(err, auth.ErrPasswordTooLong):
			BadRequest(c, "password must be at most 72 bytes")
		default:
			logger.Error("register user failed", slog.Any("error", err))
			Internal(c, "Registration failed due to a server error.")
		}
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		logger.Error("issue token failed", slog.Any("error", err))
		Internal(c, "Registration failed due to a server error.")
		return
	}

	if h.mailer != nil {
		if err := h.mailer.ScheduleWelcomeMail(ctx, user.Email, user.Name); err != nil {
			logger.Warn("schedule welcome mail failed", slog.Any("error", err))
		}
	}

	logger.Info("user registered", slog.String("user_id", user.ID))
	c.JSON(http.StatusCreated, gin.H{
		"message": "User Created Successfully",
		"token":   token,
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login 校验口令并返回 Token。
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	email := users.NormalizeEmail(req.Email)
	logger := h.loggerFromContext(c)

	// 速率限制：每 IP+邮箱 每小时 N 次
	if overHourlyLimit(ctx, h.redis, "rate:login:"+c.ClientIP()+":"+email, h.loginRateLimitPerHour) {
		TooManyRequests(c, "rate limit exceeded")
		return
	}

	// 锁定检查
	if h.redis != nil && email != "" {
		if ttl, _ := h.redis.TTL(ctx, "lock:login:"+email).Result(); ttl > 0 {
			TooManyRequests(c, "account temporarily locked")
			return
		}
	}

	user, err := h.users.Authenticate(ctx, email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrMissingFields), errors.Is(err, users.ErrInvalidCredentials):
			logger.Info("login failed", slog.String("reason", err.Error()))
			if email != "" {
				_ = h.incrementLoginFail(ctx, email)
			}
			BadRequest(c, invalidCredentialsMessage)
		default:
			logger.Error("login query failed", slog.Any("error", err))
			Internal(c, "Login failed due to a server error.")
		}
		return
	}

	// 登录成功：清理失败计数
	if h.redis != nil {
		_ = h.redis.Del(ctx, "lock:login:fail:"+email).Err()
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		logger.Error("issue token failed", slog.Any("error", err))
		Internal(c, "Login failed due to a server error.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login Successful!",
		"token":   token,
		"user":    user,
	})
}

// GetUserData 返回当前登录用户的资料。
func (h *UserHandler) GetUserData(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			NotFound(c, "User not found!")
			return
		}
		h.loggerFromContext(c).Error("get user failed", slog.Any("error", err))
		Internal(c, "Failed to fetch user profile.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetUserResumes 列出当前用户的全部简历，最近更新的在前。
func (h *UserHandler) GetUserResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	list, err := h.resumes.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.loggerFromContext(c).Error("list resumes failed", slog.Any("error", err))
		Internal(c, "Failed to fetch user resumes.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"resumes": list})
}

func (h *UserHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func (h *UserHandler) incrementLoginFail(ctx context.Context, email string) error {
	if h.redis == nil || h.loginLockThreshold <= 0 {
		return nil
	}
	failKey := "lock:login:fail:" + email
	count, err := incrWithTTL(ctx, h.redis, failKey, h.loginLockTTL)
	if err != nil {
		return err
	}
	if count >= int64(h.loginLockThreshold) {
		metrics.IncLoginLockout()
		return h.redis.Set(ctx, "lock:login:"+email, "1", h.loginLockTTL).Err()
	}
	return nil
}

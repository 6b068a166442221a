package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumebuilder/internal/ai"
	"resumebuilder/internal/auth"
	"resumebuilder/internal/config"
	"resumebuilder/internal/database"
	"resumebuilder/internal/imagehost"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/tasks"
	"resumebuilder/internal/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			Port:           3000,
			AllowedOrigins: []string{"http://localhost:5173"},
			MaxUploadBytes: 1 << 20,
		},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			TokenTTL:              time.Hour,
			LoginRateLimitPerHour: 100,
			LoginLockThreshold:    3,
			LoginLockTTL:          time.Minute,
		},
		AI: config.AIConfig{RateLimitPerHour: 100},
	}
}

type fakeImages struct {
	mu      sync.Mutex
	uploads []imagehost.Upload
	deleted []string
}

func (f *fakeImages) Upload(_ context.Context, in imagehost.Upload) (imagehost.Result, error) {
	if _, err := io.ReadAll(in.Body); err != nil {
		return imagehost.Result{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, in)
	id := fmt.Sprintf("file_%d", len(f.uploads))
	return imagehost.Result{FileID: id, URL: "https://img.test/" + id}, nil
}

func (f *fakeImages) Delete(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return nil
}

type fakeExports struct {
	payloads []tasks.PDFExportPayload
	err      error
}

func (f *fakeExports) SchedulePDFExport(_ context.Context, p tasks.PDFExportPayload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.payloads = append(f.payloads, p)
	return "task-1", nil
}

type fakeLinks struct {
	keys  []string
	names []string
}

func (f *fakeLinks) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration, downloadName string) (string, error) {
	f.keys = append(f.keys, objectKey)
	f.names = append(f.names, downloadName)
	return "https://minio.test/" + objectKey + "?sig=1", nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) ScheduleWelcomeMail(_ context.Context, email, _ string) error {
	f.sent = append(f.sent, email)
	return nil
}

type fakeLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Complete(_ context.Context, _ []ai.Message, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply, f.err
}

// memoryRedis 在内存中模拟限流用到的 Redis 命令。
type memoryRedis struct {
	mu     sync.Mutex
	counts map[string]int64
	ttls   map[string]time.Duration
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (m *memoryRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(m.counts[key])
	return cmd
}

func (m *memoryRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttls[key] = expiration
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (m *memoryRedis) TTL(ctx context.Context, key string) *redis.DurationCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewDurationCmd(ctx, time.Second)
	if ttl, ok := m.ttls[key]; ok {
		cmd.SetVal(ttl)
	} else {
		cmd.SetVal(-2)
	}
	return cmd
}

func (m *memoryRedis) Set(ctx context.Context, key string, _ any, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttls[key] = expiration
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (m *memoryRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.counts, k)
		delete(m.ttls, k)
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(keys)))
	return cmd
}

type testEnv struct {
	t       *testing.T
	db      *gorm.DB
	cfg     *config.Config
	router  *gin.Engine
	tokens  *auth.TokenService
	users   *users.Service
	resumes *resume.Service
	images  *fakeImages
	exports *fakeExports
	links   *fakeLinks
	mailer  *fakeMailer
	llm     *fakeLLM
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	env := &testEnv{
		t:       t,
		db:      db,
		cfg:     cfg,
		tokens:  tokens,
		users:   users.NewService(db),
		images:  &fakeImages{},
		exports: &fakeExports{},
		links:   &fakeLinks{},
		mailer:  &fakeMailer{},
		llm:     &fakeLLM{},
	}
	env.resumes = resume.NewService(db, resume.WithImages(env.images), resume.WithLogger(discardLogger))

	env.router = NewRouter(cfg, discardLogger)
	RegisterRoutes(env.router, Deps{
		Config:  cfg,
		Logger:  discardLogger,
		Tokens:  tokens,
		Users:   env.users,
		Resumes: env.resumes,
		AI:      ai.NewRelay(env.llm, env.resumes, discardLogger),
		Exports: env.exports,
		Links:   env.links,
		Mailer:  env.mailer,
	})
	return env
}

// signup 注册一个用户并返回其 ID 与令牌。
func (e *testEnv) signup(email string) (string, string) {
	e.t.Helper()
	user, err := e.users.Register(context.Background(), "Test User", email, "password123")
	if err != nil {
		e.t.Fatalf("register %s: %v", email, err)
	}
	token, err := e.tokens.Issue(user.ID)
	if err != nil {
		e.t.Fatalf("issue token: %v", err)
	}
	return user.ID, token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(req)
}

func (e *testEnv) send(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

type resumeEnvelope struct {
	Message string        `json:"message"`
	Resume  resume.Resume `json:"resume"`
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"resumebuilder/internal/tasks"
)

// WelcomeSender 发送欢迎邮件，mail.Sender 满足该接口。
type WelcomeSender interface {
	SendWelcome(to, name string) error
}

// WelcomeMailHandler 消费注册后的欢迎邮件任务。
type WelcomeMailHandler struct {
	sender WelcomeSender
	logger *slog.Logger
}

func NewWelcomeMailHandler(sender WelcomeSender, logger *slog.Logger) *WelcomeMailHandler {
	return &WelcomeMailHandler{sender: sender, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *WelcomeMailHandler) ProcessTask(_ context.Context, t *asynq.Task) error {
	var payload tasks.WelcomeMailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.Email == "" {
		h.logger.Warn("welcome mail without recipient, skipping")
		return nil
	}
	return h.sender.SendWelcome(payload.Email, payload.Name)
}

// Package mail 发送账号相关的通知邮件。
package mail

import (
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/jordan-wright/email"

	"resumebuilder/internal/config"
)

// Deliverer 发送一封已组装好的邮件，默认实现为 SMTP。
type Deliverer func(e *email.Email) error

// Sender 通过 SMTP 发送邮件。
type Sender struct {
	cfg     config.SMTPConfig
	deliver Deliverer
	logger  *slog.Logger
}

// NewSender 返回 Sender；未配置 SMTP 时返回错误。
func NewSender(cfg config.SMTPConfig, logger *slog.Logger) (*Sender, error) {
	if !cfg.Enabled() {
		return nil, errors.New("smtp host and sender are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sender{cfg: cfg, logger: logger}
	s.deliver = s.sendSMTP
	return s, nil
}

// WithDeliverer 替换投递方式，测试中用于捕获邮件。
func (s *Sender) WithDeliverer(d Deliverer) *Sender {
	s.deliver = d
	return s
}

// SendWelcome 发送注册欢迎邮件。
func (s *Sender) SendWelcome(to, name string) error {
	e := email.NewEmail()
	e.From = s.cfg.Sender
	e.To = []string{to}
	e.Subject = "Welcome to Resume Builder"
	e.Text = []byte(fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your account is ready. Create your first resume, pick a template and share it with a public link whenever you like.\n\n"+
			"Happy building,\nResume Builder",
		name,
	))

	if err := s.deliver(e); err != nil {
		s.logger.Error("send welcome email",
			slog.String("to", to),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("send welcome email: %w", err)
	}

	s.logger.Info("welcome email sent", slog.String("to", to))
	return nil
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return e.Send(addr, auth)
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"resumebuilder/internal/resume"
)

var (
	// ErrEmptyInput 表示请求缺少需要处理的文本。
	ErrEmptyInput = errors.New("missing required fields")
	// ErrMalformedOutput 表示模型返回的内容无法解析为简历 JSON。
	ErrMalformedOutput = errors.New("model returned malformed resume data")
)

// ResumeCreator 持久化抽取出的简历，由 resume.Service 实现。
type ResumeCreator interface {
	CreateFromExtraction(ctx context.Context, ownerID, title string, content resume.Content) (resume.Resume, error)
}

// Relay 将简历相关的 AI 请求转发给模型。
type Relay struct {
	llm     Completer
	resumes ResumeCreator
	logger  *slog.Logger
}

// NewRelay 返回 Relay。
func NewRelay(llm Completer, resumes ResumeCreator, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{llm: llm, resumes: resumes, logger: logger}
}

// EnhanceSummary 润色个人简介，原样返回模型输出。
func (r *Relay) EnhanceSummary(ctx context.Context, text string) (string, error) {
	return r.enhance(ctx, summaryPrompt, text)
}

// EnhanceJobDescription 润色工作描述，原样返回模型输出。
func (r *Relay) EnhanceJobDescription(ctx context.Context, text string) (string, error) {
	return r.enhance(ctx, jobDescriptionPrompt, text)
}

func (r *Relay) enhance(ctx context.Context, systemPrompt, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	out, err := r.llm.Complete(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: text},
	}, false)
	if err != nil {
		return "", fmt.Errorf("enhance: %w", err)
	}
	return out, nil
}

// ExtractResume 抽取简历文本为结构化数据并保存为新简历，返回其 ID。
// 只要求输出是合法 JSON 且字段类型匹配，内容本身不做校验。
func (r *Relay) ExtractResume(ctx context.Context, ownerID, title, resumeText string) (string, error) {
	if strings.TrimSpace(resumeText) == "" {
		return "", ErrEmptyInput
	}

	out, err := r.llm.Complete(ctx, []Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: extractionUserPrompt(resumeText)},
	}, true)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}

	var content resume.Content
	if err := json.Unmarshal([]byte(out), &content); err != nil {
		r.logger.Warn("extraction output rejected",
			slog.Int("length", len(out)),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	created, err := r.resumes.CreateFromExtraction(ctx, ownerID, title, content)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

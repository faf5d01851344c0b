package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

// RewriteUnclear is what the model is told to return verbatim when the
// draft is too vague to rewrite. Clients match on it to prompt the student
// for more detail.
const RewriteUnclear = "Input unclear, please describe the issue details."

const rewriteInstruction = `You rewrite hostel complaint drafts for students. Rewrite the given text so it is clear, polite, and specific, keeping every factual detail and adding none. Reply with the rewritten text only. If the input is too vague or garbled to rewrite, reply with exactly: Input unclear, please describe the issue details.`

// AssistService offers the complaint drafting helper. Suggestions are
// ephemeral; nothing here is persisted.
type AssistService struct {
	generator textGenerator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssistService constructs an AssistService.
func NewAssistService(generator textGenerator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AssistService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistService{generator: generator, metrics: metrics, validator: validate, logger: logger}
}

// Rewrite produces a cleaned-up version of a complaint draft. The student
// decides whether to use it; the original text is never modified.
func (s *AssistService) Rewrite(ctx context.Context, req dto.RewriteRequest) (*dto.RewriteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rewrite payload")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "text must not be empty")
	}

	start := time.Now()
	suggestion, err := s.generator.Complete(ctx, rewriteInstruction, text)
	if s.metrics != nil {
		s.metrics.ObserveLLMRequest("rewrite", err == nil, time.Since(start))
	}
	if err != nil {
		s.logger.Warn("rewrite generation failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrAssistUpstream.Code, appErrors.ErrAssistUpstream.Status, "rewrite service unavailable")
	}

	suggestion = strings.TrimSpace(suggestion)
	if suggestion == "" {
		suggestion = RewriteUnclear
	}
	return &dto.RewriteResponse{Suggestion: suggestion}, nil
}

package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/repository"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

// SummaryFallback is returned in place of a summary when generation fails.
// It is never written to the summary cache.
const SummaryFallback = "Analysis unavailable."

const summarizeInstruction = `You are a strict backend analyzer. Analyze a list of user complaints and group them by specific root causes.

Rules:
1. FILTER: Ignore any individual lines that are spam, gibberish, or meaningless.
2. CLUSTER: Identify distinct problems. If there are multiple different issues (e.g., "Fan not working" AND "Leaking Tap"), treat them as separate points.
3. FORMAT: For each distinct issue, output exactly one line in this format:
   [Short Title]: [Clean, easy understanding, concise summary]
4. OUTPUT: Do NOT use bullet points. Do NOT add introductory text. Just the lines.
5. EXCEPTION: If ALL inputs are spam/gibberish, return exactly: "No actionable issues detected."

Example Output:
Fan Issue: Multiple reports of ceiling fans not working in 2nd-floor rooms.
Leaking Tap: Persistent water leakage reported in the common washroom.`

type openComplaintStore interface {
	ListOpen(ctx context.Context, gender string) ([]repository.OpenComplaint, error)
}

type summaryStore interface {
	ListByGender(ctx context.Context, gender *string) ([]models.CategorySummary, error)
	FindLatest(ctx context.Context, category string, gender *string) (*models.CategorySummary, error)
	Replace(ctx context.Context, category string, gender *string, summary string, generatedAt time.Time) (*models.CategorySummary, error)
}

type textGenerator interface {
	Complete(ctx context.Context, instruction, input string) (string, error)
}

type insightAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// InsightConfig tunes the summarization engine.
type InsightConfig struct {
	Enabled        bool
	MaxConcurrency int
}

// InsightService produces per-category narrative summaries of the open
// complaint backlog. Summaries are served cache-aside from the
// category_summaries table; generation only happens on a miss or an explicit
// refresh, and failed generations are never cached.
type InsightService struct {
	complaints openComplaintStore
	summaries  summaryStore
	generator  textGenerator
	metrics    *MetricsService
	audits     insightAuditor
	logger     *zap.Logger
	cfg        InsightConfig
	now        func() time.Time
}

// NewInsightService constructs an InsightService.
func NewInsightService(complaints openComplaintStore, summaries summaryStore, generator textGenerator, metrics *MetricsService, audits insightAuditor, logger *zap.Logger, cfg InsightConfig) *InsightService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	return &InsightService{
		complaints: complaints,
		summaries:  summaries,
		generator:  generator,
		metrics:    metrics,
		audits:     audits,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// categoryGroup is one partition of the open backlog.
type categoryGroup struct {
	category     string
	ids          []string
	descriptions []string
}

// Generate builds the per-category insight board. Live counts and complaint
// ids always reflect the backlog at call time even when the narrative text
// comes from cache.
func (s *InsightService) Generate(ctx context.Context, actorID string, req dto.InsightRequest) (*dto.InsightResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "insights are disabled")
	}

	open, err := s.complaints.ListOpen(ctx, req.Gender)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open complaints")
	}

	groups := partitionByCategory(open)
	gender := genderKey(req.Gender)

	insights := make([]dto.CategoryInsight, len(groups))
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.MaxConcurrency)
	for i, group := range groups {
		wg.Add(1)
		go func(i int, group categoryGroup) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			insights[i] = s.insightFor(ctx, actorID, gender, group, req.ForceRefresh)
		}(i, group)
	}
	wg.Wait()

	sort.SliceStable(insights, func(a, b int) bool {
		return insights[a].OpenCount > insights[b].OpenCount
	})

	return &dto.InsightResponse{Insights: insights, GeneratedAt: s.now()}, nil
}

// Cached returns the stored summaries for a gender partition without
// triggering any generation.
func (s *InsightService) Cached(ctx context.Context, genderFilter string) ([]models.CategorySummary, error) {
	summaries, err := s.summaries.ListByGender(ctx, genderKey(genderFilter))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cached summaries")
	}
	return summaries, nil
}

func (s *InsightService) insightFor(ctx context.Context, actorID string, gender *string, group categoryGroup, forceRefresh bool) dto.CategoryInsight {
	insight := dto.CategoryInsight{
		Category:     group.category,
		OpenCount:    len(group.ids),
		ComplaintIDs: group.ids,
	}

	if !forceRefresh {
		cached, err := s.summaries.FindLatest(ctx, group.category, gender)
		if err != nil {
			s.logger.Warn("summary cache lookup failed", zap.String("category", group.category), zap.Error(err))
		} else if cached != nil {
			insight.Summary = cached.Summary
			insight.GeneratedAt = cached.GeneratedAt
			insight.FromCache = true
			return insight
		}
	}

	text, err := s.generate(ctx, group)
	if err != nil {
		s.logger.Warn("summary generation failed",
			zap.String("category", group.category),
			zap.Error(err))
		insight.Summary = SummaryFallback
		insight.GeneratedAt = s.now()
		insight.Degraded = true
		return insight
	}

	stored, err := s.summaries.Replace(ctx, group.category, gender, text, s.now())
	if err != nil {
		// Serve the fresh text anyway; only the cache write was lost.
		s.logger.Warn("summary cache write failed", zap.String("category", group.category), zap.Error(err))
		insight.Summary = text
		insight.GeneratedAt = s.now()
		return insight
	}

	s.auditGenerated(ctx, actorID, group.category)
	insight.Summary = stored.Summary
	insight.GeneratedAt = stored.GeneratedAt
	return insight
}

func (s *InsightService) generate(ctx context.Context, group categoryGroup) (string, error) {
	var input strings.Builder
	fmt.Fprintf(&input, "Category: %s\n", group.category)
	for i, desc := range group.descriptions {
		fmt.Fprintf(&input, "%d. %s\n", i+1, desc)
	}

	start := time.Now()
	text, err := s.generator.Complete(ctx, summarizeInstruction, input.String())
	if s.metrics != nil {
		s.metrics.ObserveLLMRequest("summarize", err == nil, time.Since(start))
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(text), nil
}

func (s *InsightService) auditGenerated(ctx context.Context, actorID, category string) {
	if s.audits == nil {
		return
	}
	entry := &models.AuditLog{
		AccountID:  &actorID,
		Action:     models.AuditActionSummaryGenerated,
		Resource:   "category_summary",
		ResourceID: &category,
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record summary audit log", zap.Error(err))
	}
}

// partitionByCategory groups the open backlog by category, mapping blank
// categories to Other. Categories with no open complaints produce no group.
func partitionByCategory(open []repository.OpenComplaint) []categoryGroup {
	index := make(map[string]int)
	groups := make([]categoryGroup, 0)
	for _, c := range open {
		category := strings.TrimSpace(c.Category)
		if category == "" {
			category = models.CategoryOther
		}
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, categoryGroup{category: category})
		}
		groups[i].ids = append(groups[i].ids, c.ID)
		groups[i].descriptions = append(groups[i].descriptions, c.Description)
	}
	return groups
}

func genderKey(filter string) *string {
	if filter == "" {
		return nil
	}
	return &filter
}

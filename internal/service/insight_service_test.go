package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/repository"
)

type mockOpenStore struct {
	open []repository.OpenComplaint
}

func (m *mockOpenStore) ListOpen(ctx context.Context, gender string) ([]repository.OpenComplaint, error) {
	return m.open, nil
}

type mockSummaryStore struct {
	mu       sync.Mutex
	cached   map[string]*models.CategorySummary
	replaced map[string]string
}

func newMockSummaryStore() *mockSummaryStore {
	return &mockSummaryStore{cached: make(map[string]*models.CategorySummary), replaced: make(map[string]string)}
}

// summaryPartition mirrors the (category, gender) keying of the
// category_summaries table.
func summaryPartition(category string, gender *string) string {
	if gender == nil {
		return category + "|all"
	}
	return category + "|" + *gender
}

func (m *mockSummaryStore) ListByGender(ctx context.Context, gender *string) ([]models.CategorySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CategorySummary, 0, len(m.cached))
	for _, s := range m.cached {
		if summaryPartition(s.Category, s.Gender) == summaryPartition(s.Category, gender) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSummaryStore) FindLatest(ctx context.Context, category string, gender *string) (*models.CategorySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.cached[summaryPartition(category, gender)]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *mockSummaryStore) Replace(ctx context.Context, category string, gender *string, summary string, generatedAt time.Time) (*models.CategorySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := summaryPartition(category, gender)
	m.replaced[key] = summary
	row := &models.CategorySummary{ID: "new", Category: category, Gender: gender, Summary: summary, GeneratedAt: generatedAt}
	m.cached[key] = row
	copied := *row
	return &copied, nil
}

type mockGenerator struct {
	mu          sync.Mutex
	calls       int
	instruction string
	text        string
	err         error
}

func (m *mockGenerator) Complete(ctx context.Context, instruction, input string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.instruction = instruction
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func newInsightService(open *mockOpenStore, summaries *mockSummaryStore, gen *mockGenerator) *InsightService {
	return NewInsightService(open, summaries, gen, nil, &mockAuditor{}, zap.NewNop(), InsightConfig{Enabled: true, MaxConcurrency: 2})
}

func TestInsightServiceGeneratesOnMiss(t *testing.T) {
	open := &mockOpenStore{open: []repository.OpenComplaint{
		{ID: "c1", Category: "Food", Description: "cold food"},
		{ID: "c2", Category: "Food", Description: "late dinner"},
	}}
	summaries := newMockSummaryStore()
	gen := &mockGenerator{text: "Students report cold and late meals."}
	svc := newInsightService(open, summaries, gen)

	resp, err := svc.Generate(context.Background(), "staff-1", dto.InsightRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Insights, 1)

	insight := resp.Insights[0]
	assert.Equal(t, "Food", insight.Category)
	assert.Equal(t, 2, insight.OpenCount)
	assert.ElementsMatch(t, []string{"c1", "c2"}, insight.ComplaintIDs)
	assert.Equal(t, "Students report cold and late meals.", insight.Summary)
	assert.False(t, insight.FromCache)
	assert.False(t, insight.Degraded)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "Students report cold and late meals.", summaries.replaced[summaryPartition("Food", nil)])
}

func TestInsightServiceInstructionClustersDistinctIssues(t *testing.T) {
	open := &mockOpenStore{open: []repository.OpenComplaint{
		{ID: "c1", Category: "Maintenance", Description: "fan not working"},
		{ID: "c2", Category: "Maintenance", Description: "leaking tap"},
	}}
	summaries := newMockSummaryStore()
	gen := &mockGenerator{text: "Fan Issue: Fans reported broken.\nLeaking Tap: Water leakage in washroom."}
	svc := newInsightService(open, summaries, gen)

	_, err := svc.Generate(context.Background(), "staff-1", dto.InsightRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, gen.calls)

	// One line per distinct issue, spam filtered out, Title: Summary shape.
	assert.Contains(t, gen.instruction, "FILTER")
	assert.Contains(t, gen.instruction, "spam")
	assert.Contains(t, gen.instruction, "CLUSTER")
	assert.Contains(t, gen.instruction, "[Short Title]:")
	assert.Contains(t, gen.instruction, "No actionable issues detected.")
}

func TestInsightServiceServesFromCache(t *testing.T) {
	open := &mockOpenStore{open: []repository.OpenComplaint{
		{ID: "c1", Category: "Hygiene", Description: "dirty corridor"},
	}}
	summaries := newMockSummaryStore()
	cachedAt := time.Now().UTC().Add(-time.Hour)
	summaries.cached[summaryPartition("Hygiene", nil)] = &models.CategorySummary{ID: "old", Category: "Hygiene", Summary: "Cleanliness issues on floor two.", GeneratedAt: cachedAt}
	gen := &mockGenerator{text: "should not be used"}
	svc := newInsightService(open, summaries, gen)

	resp, err := svc.Generate(context.Background(), "staff-1", dto.InsightRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Insights, 1)

	insight := resp.Insights[0]
	assert.True(t, insight.FromCache)
	assert.Equal(t, "Cleanliness issues on floor two.", insight.Summary)
	assert.Equal(t, cachedAt, insight.GeneratedAt)
	// The live membership still reflects the current backlog.
	assert.Equal(t, 1, insight.OpenCount)
	assert.Equal(t, 0, gen.calls)
}

func TestInsightServiceForceRefreshBypassesCache(t *testing.T) {
	open := &mockOpenStore{open: []repository.OpenComplaint{
		{ID: "c1", Category: "Hygiene", Description: "dirty corridor"},
	}}
	summaries := newMockSummaryStore()
	summaries.cached[summaryPartition("Hygiene", nil)] = &models.CategorySummary{ID: "old", Category: "Hygiene", Summary: "stale text", GeneratedAt: time.Now().UTC().Add(-24 * time.Hour)}
	gen := &mockGenerator{text: "Fresh summary of hygiene complaints."}
	svc := newInsightService(open, summaries, gen)

	resp, err := svc.Generate(context.Background(), "staff-1", dto.InsightRequest{ForceRefresh: true})
	require.NoError(t, err)
	require.Len(t, resp.Insights, 1)
	assert.False(t, resp.Insights[0].FromCache)
	assert.Equal(t, "Fresh summary of hygiene complaints.", resp.Insights[0].Summary)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "Fresh summary of hygiene complaints.", summaries.replaced[summaryPartition("Hygiene", nil)])
}

func TestInsightServiceCachePartitionedByGender(t *testing.T) {
	open := &mockOpenStore{open: []repository.OpenComplaint{
		{ID: "c1", Category: "Food", Description: "cold food"},
	}}
	summaries := newMockSummaryStore()
	male := "male"
	female := "female"
	cachedAt := time.Now().UTC().Add(-time.Hour)
	summaries.cached[summaryPartition("Food", &male)] = &models.CategorySummary{ID: "m", Category: "Food", Gender: &male, Summary: "Mess complaints in the boys wing.", GeneratedAt: cachedAt}
	summaries.cached[summaryPartition("Food", &female)] = &models.CategorySummary{ID: "f", Category: "Food", Gender: &female, Summary: "Mess complaints in the girls wing.", GeneratedAt: cachedAt}
	gen := &mockGenerator{text: "Freshly generated text."}
	svc := newInsightService(open, summaries, gen)

	resp, err := svc.Generate(context.Background(), "staff-1", dto.InsightRequest{Gender: "male"})
	require.NoError(t, err)
	require.Len(t, resp.Insights, 1)
	assert.True(t, resp.Insights[0].FromCache)
	assert.Equal(t, "Mess complaints in the boys wing.", resp.Insights[0].Summary)

	resp, err = svc.Generate(context.Background(), "staff-1", dto.InsightRequest{Gender: "female"})
	require.NoError(t, err)
	require.Len(t, resp.Insights, 1)
	assert.True(t, resp.Insights[0].FromCache)
	assert.Equal(t, "Mess complaints in the girls wing.", resp.Insights[0].Summary)
	assert.Equal(t, 0, gen.calls)

	// The all-wings partition has no cached row, so it generates.
	resp, err = svc.Generate(context.Background(), "staff-1", dto.InsightRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Insights, 1)
	assert.False(t, resp.Insights[0].FromCache)
	assert.Equal(t, "Freshly generated text.", resp.Insights[0].Summary)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "Freshly generated text.", summaries.replaced[summaryPartition("Food", nil)])
}

func TestInsightServiceFailureNeverCached(t *testing.T) {
	open := &mockOpenStore{open: []repository.OpenComplaint{
		{ID: "c1", Category: "Maintenance", Description: "broken fan"},
	}}
	summaries := newMockSummaryStore()
	gen := &mockGenerator{err: errors.New("upstream timeout")}
	svc := newInsightService(open, summaries, gen)

	resp, err := svc.Generate(context.Background(), "staff-1", dto.InsightRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Insights, 1)

	insight := resp.Insights[0]
	assert.True(t, insight.Degraded)
	assert.Equal(t, SummaryFallback, insight.Summary)
	// The fallback text must not poison the cache.
	assert.Empty(t, summaries.replaced)
	assert.Empty(t, summaries.cached)
}

func TestInsightServiceBlankCategoryFallsToOther(t *testing.T) {
	open := &mockOpenStore{open: []repository.OpenComplaint{
		{ID: "c1", Category: "", Description: "misc issue"},
		{ID: "c2", Category: "  ", Description: "another misc"},
	}}
	summaries := newMockSummaryStore()
	gen := &mockGenerator{text: "Assorted unclassified issues."}
	svc := newInsightService(open, summaries, gen)

	resp, err := svc.Generate(context.Background(), "staff-1", dto.InsightRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Insights, 1)
	assert.Equal(t, models.CategoryOther, resp.Insights[0].Category)
	assert.Equal(t, 2, resp.Insights[0].OpenCount)
}

func TestInsightServiceOrdersByOpenCount(t *testing.T) {
	open := &mockOpenStore{open: []repository.OpenComplaint{
		{ID: "c1", Category: "Food", Description: "a"},
		{ID: "c2", Category: "Hygiene", Description: "b"},
		{ID: "c3", Category: "Hygiene", Description: "c"},
		{ID: "c4", Category: "Hygiene", Description: "d"},
		{ID: "c5", Category: "Food", Description: "e"},
	}}
	summaries := newMockSummaryStore()
	gen := &mockGenerator{text: "summary"}
	svc := newInsightService(open, summaries, gen)

	resp, err := svc.Generate(context.Background(), "staff-1", dto.InsightRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Insights, 2)
	assert.Equal(t, "Hygiene", resp.Insights[0].Category)
	assert.Equal(t, 3, resp.Insights[0].OpenCount)
	assert.Equal(t, "Food", resp.Insights[1].Category)
}

func TestInsightServiceEmptyBacklog(t *testing.T) {
	svc := newInsightService(&mockOpenStore{}, newMockSummaryStore(), &mockGenerator{text: "x"})

	resp, err := svc.Generate(context.Background(), "staff-1", dto.InsightRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Insights)
}

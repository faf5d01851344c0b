package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

func TestAssistServiceRewrite(t *testing.T) {
	gen := &mockGenerator{text: "  The bathroom tap on floor two has been leaking since Monday.  "}
	svc := NewAssistService(gen, nil, nil, zap.NewNop())

	resp, err := svc.Rewrite(context.Background(), dto.RewriteRequest{Text: "tap leak 2nd floor bathroom pls fix"})
	require.NoError(t, err)
	assert.Equal(t, "The bathroom tap on floor two has been leaking since Monday.", resp.Suggestion)
	assert.Equal(t, 1, gen.calls)
}

func TestAssistServiceRewriteBlankText(t *testing.T) {
	gen := &mockGenerator{text: "x"}
	svc := NewAssistService(gen, nil, nil, zap.NewNop())

	_, err := svc.Rewrite(context.Background(), dto.RewriteRequest{Text: "   "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, gen.calls)
}

func TestAssistServiceRewriteUpstreamFailure(t *testing.T) {
	gen := &mockGenerator{err: errors.New("connection refused")}
	svc := NewAssistService(gen, nil, nil, zap.NewNop())

	_, err := svc.Rewrite(context.Background(), dto.RewriteRequest{Text: "water cooler broken"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAssistUpstream.Code, appErrors.FromError(err).Code)
}

func TestAssistServiceRewriteEmptyCompletion(t *testing.T) {
	gen := &mockGenerator{text: "   "}
	svc := NewAssistService(gen, nil, nil, zap.NewNop())

	resp, err := svc.Rewrite(context.Background(), dto.RewriteRequest{Text: "hostel issue"})
	require.NoError(t, err)
	assert.Equal(t, RewriteUnclear, resp.Suggestion)
}

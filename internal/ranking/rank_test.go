package ranking

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/types"
)

// scriptedInvoker answers each call in order from its script.
type scriptedInvoker struct {
	payloads []string
	errs     []error
	prompts  []string
	tiers    []llm.ModelTier
	calls    int
}

func (s *scriptedInvoker) InvokeJSON(ctx context.Context, tier llm.ModelTier, prompt, schemaName string, dest any) error {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	s.tiers = append(s.tiers, tier)
	if i < len(s.errs) && s.errs[i] != nil {
		return s.errs[i]
	}
	return json.Unmarshal([]byte(s.payloads[i]), dest)
}

func testProfile() *types.Profile {
	return &types.Profile{Name: "Jane", Skills: []string{"Go", "SQL"}}
}

func testPostings(ids ...string) []types.Posting {
	out := make([]types.Posting, len(ids))
	for i, id := range ids {
		out[i] = types.Posting{ID: id, Title: "Role " + id, Company: "Acme", Description: "Desc " + id}
	}
	return out
}

func TestRank_SortsByScoreDescending(t *testing.T) {
	inv := &scriptedInvoker{payloads: []string{`[
		{"job_id": "a", "match_score": 0.4, "reasoning": "ok"},
		{"job_id": "b", "match_score": 0.9, "reasoning": "great"},
		{"job_id": "c", "match_score": 0.7, "reasoning": "good"}
	]`}}
	r := NewRanker(inv, nil)

	matches, err := r.Rank(context.Background(), testProfile(), testPostings("a", "b", "c"), nil, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "b", matches[0].Posting.ID)
	assert.Equal(t, "c", matches[1].Posting.ID)
	assert.Equal(t, "a", matches[2].Posting.ID)
	assert.Equal(t, []llm.ModelTier{llm.TierStandard}, inv.tiers)
}

func TestRank_TieKeepsPostingOrder(t *testing.T) {
	inv := &scriptedInvoker{payloads: []string{`[
		{"job_id": "c", "match_score": 0.5, "reasoning": "r"},
		{"job_id": "a", "match_score": 0.5, "reasoning": "r"},
		{"job_id": "b", "match_score": 0.5, "reasoning": "r"}
	]`}}
	r := NewRanker(inv, nil)

	matches, err := r.Rank(context.Background(), testProfile(), testPostings("a", "b", "c"), nil, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "a", matches[0].Posting.ID, "ties keep original posting order")
	assert.Equal(t, "b", matches[1].Posting.ID)
	assert.Equal(t, "c", matches[2].Posting.ID)
}

func TestRank_NumericIDsAndClamping(t *testing.T) {
	inv := &scriptedInvoker{payloads: []string{`[
		{"job_id": 101, "match_score": 1.7, "reasoning": "over"},
		{"job_id": "102", "match_score": -0.2, "reasoning": "under"}
	]`}}
	r := NewRanker(inv, nil)

	matches, err := r.Rank(context.Background(), testProfile(), testPostings("101", "102"), nil, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 1.0, matches[0].Score, "scores clamp to [0, 1]")
	assert.Equal(t, 0.0, matches[1].Score)
}

func TestRank_OmittedPostingAbsentAndTopKCap(t *testing.T) {
	inv := &scriptedInvoker{payloads: []string{`[
		{"job_id": "a", "match_score": 0.9, "reasoning": "r"},
		{"job_id": "b", "match_score": 0.8, "reasoning": "r"},
		{"job_id": "d", "match_score": 0.7, "reasoning": "r"}
	]`}}
	r := NewRanker(inv, nil)

	matches, err := r.Rank(context.Background(), testProfile(), testPostings("a", "b", "c", "d"), nil, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2, "topK caps the result")
	assert.Equal(t, "a", matches[0].Posting.ID)
	assert.Equal(t, "b", matches[1].Posting.ID)
}

func TestRank_DefaultReasoning(t *testing.T) {
	inv := &scriptedInvoker{payloads: []string{`[{"job_id": "a", "match_score": 0.6, "reasoning": ""}]`}}
	r := NewRanker(inv, nil)

	matches, err := r.Rank(context.Background(), testProfile(), testPostings("a"), nil, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "No reasoning provided", matches[0].Reasoning)
}

func TestRank_PromptIncludesSkillsAndTruncation(t *testing.T) {
	inv := &scriptedInvoker{payloads: []string{`[{"job_id": "a", "match_score": 0.5, "reasoning": "r"}]`}}
	r := NewRanker(inv, nil)

	postings := testPostings("a")
	postings[0].Description = strings.Repeat("z", maxDescriptionChars+200)
	skillsByPosting := types.SkillsByPosting{
		"a": {HardSkills: []string{"Go"}, Tools: []string{"Docker"}, Seniority: "Senior"},
	}

	_, err := r.Rank(context.Background(), testProfile(), postings, skillsByPosting, 0)
	require.NoError(t, err)
	require.Len(t, inv.prompts, 1)
	assert.Contains(t, inv.prompts[0], "Hard Skills: Go")
	assert.Contains(t, inv.prompts[0], "Seniority: Senior")
	assert.NotContains(t, inv.prompts[0], strings.Repeat("z", maxDescriptionChars+1),
		"descriptions are truncated in summaries")
}

func TestQuickRank_Batches(t *testing.T) {
	inv := &scriptedInvoker{payloads: []string{
		`[{"job_id": "a", "match_score": 0.9}, {"job_id": "b", "match_score": 0.3}]`,
		`[{"job_id": "c", "match_score": 0.6}]`,
	}}
	r := NewRanker(inv, nil)

	scores, err := r.QuickRank(context.Background(), testProfile(), testPostings("a", "b", "c"), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.calls, "three postings at batch size two take two calls")
	assert.Equal(t, map[string]float64{"a": 0.9, "b": 0.3, "c": 0.6}, scores)
	assert.Equal(t, []llm.ModelTier{llm.TierLite, llm.TierLite}, inv.tiers,
		"quick rank uses the cheap tier")
}

func TestQuickRank_PartialOnBatchFailure(t *testing.T) {
	inv := &scriptedInvoker{
		payloads: []string{`[{"job_id": "a", "match_score": 0.9}]`, ""},
		errs:     []error{nil, &llm.ProviderError{Model: "m", Cause: assert.AnError}},
	}
	r := NewRanker(inv, nil)

	scores, err := r.QuickRank(context.Background(), testProfile(), testPostings("a", "b"), 1)
	require.Error(t, err)
	assert.Equal(t, map[string]float64{"a": 0.9}, scores,
		"scores from completed batches are returned alongside the error")
}

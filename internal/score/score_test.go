package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

var scoreNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestScoreWorkedExample(t *testing.T) {
	t.Parallel()

	// high urgency 3.0 + "million" 3.0 + fintech in title 1.0 +
	// software in description 0.5 + deadline in 3 days 2.0 = 9.5
	opp := rfp.Opportunity{
		Title:       "Fintech Modernization Initiative",
		Description: "Statewide rollout of new licensing software",
		Urgency:     rfp.UrgencyHigh,
		Value:       "$2 million",
		Deadline:    scoreNow.AddDate(0, 0, 3).Format("2006-01-02"),
	}

	got := NewDefault().Score(opp, scoreNow)
	require.InDelta(t, 9.5, got, 1e-9)
}

func TestScoreClampedToUpperBound(t *testing.T) {
	t.Parallel()

	opp := rfp.Opportunity{
		Title:       "Digital payment software technology platform for fintech",
		Description: "digital payment software technology fintech",
		Urgency:     rfp.UrgencyHigh,
		Value:       "$10 million",
		Deadline:    scoreNow.AddDate(0, 0, 2).Format("2006-01-02"),
	}

	got := NewDefault().Score(opp, scoreNow)
	require.Equal(t, MaxScore, got)
}

func TestScoreSignals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opp  rfp.Opportunity
		want float64
	}{
		{
			name: "unset urgency defaults to low",
			opp:  rfp.Opportunity{},
			want: 1.0,
		},
		{
			name: "medium urgency",
			opp:  rfp.Opportunity{Urgency: rfp.UrgencyMedium},
			want: 2.0,
		},
		{
			name: "thousand value signal",
			opp:  rfp.Opportunity{Value: "750 thousand"},
			want: 2.0,
		},
		{
			name: "k suffix counts as thousand",
			opp:  rfp.Opportunity{Value: "$450K"},
			want: 2.0,
		},
		{
			name: "million beats thousand",
			opp:  rfp.Opportunity{Value: "1.5 Million"},
			want: 4.0,
		},
		{
			name: "unparsable deadline contributes nothing",
			opp:  rfp.Opportunity{Deadline: rfp.DeadlineTBD},
			want: 1.0,
		},
		{
			name: "deadline within thirty days",
			opp:  rfp.Opportunity{Deadline: scoreNow.AddDate(0, 0, 20).Format("2006-01-02")},
			want: 2.0,
		},
		{
			name: "deadline beyond thirty days",
			opp:  rfp.Opportunity{Deadline: scoreNow.AddDate(0, 0, 45).Format("2006-01-02")},
			want: 1.0,
		},
		{
			name: "keywords sum independently",
			opp: rfp.Opportunity{
				Title:       "Payment and fintech overhaul",
				Description: "payment rails",
			},
			want: 1.0 + 1.0 + 1.0 + 0.5,
		},
	}

	scorer := NewDefault()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.InDelta(t, tt.want, scorer.Score(tt.opp, scoreNow), 1e-9)
		})
	}
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	scorer := NewDefault()
	opps := []rfp.Opportunity{
		{},
		{Title: "payment payment payment", Urgency: rfp.UrgencyHigh, Value: "million"},
		{
			Title:       "payment fintech technology digital software",
			Description: "payment fintech technology digital software",
			Urgency:     rfp.UrgencyHigh,
			Value:       "$9 million",
			Deadline:    scoreNow.Format("2006-01-02"),
		},
	}
	for _, opp := range opps {
		got := scorer.Score(opp, scoreNow)
		require.GreaterOrEqual(t, got, MinScore)
		require.LessOrEqual(t, got, MaxScore)
	}
}

func TestScoreCustomVocabulary(t *testing.T) {
	t.Parallel()

	scorer := New(DefaultWeights(), []string{"transit"})
	opp := rfp.Opportunity{Title: "Transit fare collection"}
	// low urgency 1.0 + custom keyword in title 1.0
	require.InDelta(t, 2.0, scorer.Score(opp, scoreNow), 1e-9)
}

func TestScoreVocabularyCaseInsensitive(t *testing.T) {
	t.Parallel()

	// Configured casing must not matter; matching is case-insensitive in
	// both directions.
	scorer := New(DefaultWeights(), []string{"Fintech"})
	opp := rfp.Opportunity{
		Title:       "fintech modernization",
		Description: "Statewide FINTECH initiative.",
	}
	// low urgency 1.0 + title 1.0 + description 0.5
	require.InDelta(t, 2.5, scorer.Score(opp, scoreNow), 1e-9)
}

func TestDeriveUrgency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		deadline string
		want     rfp.Urgency
	}{
		{"within a week", scoreNow.AddDate(0, 0, 5).Format("2006-01-02"), rfp.UrgencyHigh},
		{"within a month", scoreNow.AddDate(0, 0, 25).Format("2006-01-02"), rfp.UrgencyMedium},
		{"far out", scoreNow.AddDate(0, 2, 0).Format("2006-01-02"), rfp.UrgencyLow},
		{"tbd sentinel", rfp.DeadlineTBD, rfp.UrgencyMedium},
		{"empty", "", rfp.UrgencyMedium},
		{"garbage", "next Tuesday", rfp.UrgencyMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, DeriveUrgency(tt.deadline, scoreNow))
		})
	}
}

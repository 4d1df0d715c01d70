// Package score implements the deterministic opportunity relevance scorer.
package score

import (
	"strings"
	"time"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// Deadline strings are normalized by adapters to this layout.
const deadlineLayout = "2006-01-02"

// Score bounds.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Weights holds the per-signal score increments. The values are configuration
// defaults, not business rules.
type Weights struct {
	UrgencyHigh        float64
	UrgencyMedium      float64
	UrgencyLow         float64
	ValueMillion       float64
	ValueThousand      float64
	KeywordTitle       float64
	KeywordDescription float64
	DeadlineWeek       float64
	DeadlineMonth      float64
}

// DefaultWeights returns the stock score increments.
func DefaultWeights() Weights {
	return Weights{
		UrgencyHigh:        3.0,
		UrgencyMedium:      2.0,
		UrgencyLow:         1.0,
		ValueMillion:       3.0,
		ValueThousand:      1.0,
		KeywordTitle:       1.0,
		KeywordDescription: 0.5,
		DeadlineWeek:       2.0,
		DeadlineMonth:      1.0,
	}
}

// DefaultKeywords returns the stock relevance vocabulary.
func DefaultKeywords() []string {
	return []string{"payment", "fintech", "technology", "digital", "software"}
}

// Scorer maps an opportunity to a bounded relevance score. It is pure: no
// I/O, no clock reads; callers inject now.
type Scorer struct {
	weights  Weights
	keywords []string
}

// New builds a Scorer. Nil keywords fall back to the default vocabulary.
// Terms are matched case-insensitively regardless of how they are configured.
func New(weights Weights, keywords []string) *Scorer {
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	normalized := make([]string, len(keywords))
	for i, kw := range keywords {
		normalized[i] = strings.ToLower(kw)
	}
	return &Scorer{weights: weights, keywords: normalized}
}

// NewDefault builds a Scorer with stock weights and vocabulary.
func NewDefault() *Scorer {
	return New(DefaultWeights(), nil)
}

// Score computes the relevance score for opp as of now, clamped to
// [MinScore, MaxScore].
func (s *Scorer) Score(opp rfp.Opportunity, now time.Time) float64 {
	total := s.urgencySignal(opp.Urgency)
	total += s.valueSignal(opp.Value)
	total += s.keywordSignal(opp.Title, opp.Description)
	total += s.deadlineSignal(opp.Deadline, now)

	if total > MaxScore {
		return MaxScore
	}
	if total < MinScore {
		return MinScore
	}
	return total
}

func (s *Scorer) urgencySignal(u rfp.Urgency) float64 {
	switch u {
	case rfp.UrgencyHigh:
		return s.weights.UrgencyHigh
	case rfp.UrgencyMedium:
		return s.weights.UrgencyMedium
	default:
		return s.weights.UrgencyLow
	}
}

func (s *Scorer) valueSignal(value string) float64 {
	v := strings.ToLower(value)
	switch {
	case strings.Contains(v, "million"):
		return s.weights.ValueMillion
	case strings.Contains(v, "thousand"), strings.Contains(v, "k"):
		return s.weights.ValueThousand
	default:
		return 0
	}
}

func (s *Scorer) keywordSignal(title, description string) float64 {
	titleLower := strings.ToLower(title)
	descLower := strings.ToLower(description)

	var total float64
	for _, kw := range s.keywords {
		if strings.Contains(titleLower, kw) {
			total += s.weights.KeywordTitle
		}
		if strings.Contains(descLower, kw) {
			total += s.weights.KeywordDescription
		}
	}
	return total
}

func (s *Scorer) deadlineSignal(deadline string, now time.Time) float64 {
	days, ok := daysUntil(deadline, now)
	if !ok {
		return 0
	}
	switch {
	case days <= 7:
		return s.weights.DeadlineWeek
	case days <= 30:
		return s.weights.DeadlineMonth
	default:
		return 0
	}
}

// DeriveUrgency classifies a deadline as of now. Adapters never set urgency;
// the session runner applies this before scoring. An unparsable or missing
// deadline is medium.
func DeriveUrgency(deadline string, now time.Time) rfp.Urgency {
	days, ok := daysUntil(deadline, now)
	if !ok {
		return rfp.UrgencyMedium
	}
	switch {
	case days <= 7:
		return rfp.UrgencyHigh
	case days <= 30:
		return rfp.UrgencyMedium
	default:
		return rfp.UrgencyLow
	}
}

func daysUntil(deadline string, now time.Time) (int, bool) {
	d, err := time.Parse(deadlineLayout, strings.TrimSpace(deadline))
	if err != nil {
		return 0, false
	}
	return int(d.Sub(now).Hours() / 24), true
}

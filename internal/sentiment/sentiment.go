// Package sentiment scores cleaned text with the VADER lexicon and maps the
// compound score onto a discrete label.
//
// The analyzer only reads its lexicon after construction, so one instance is
// shared by every pipeline run.
package sentiment

import (
	"math"

	"github.com/jonreiter/govader"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

// Label thresholds on the compound score.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Scorer produces a compound sentiment score in [-1, 1].
type Scorer interface {
	Compound(text string) float64
}

// Scores is the full VADER polarity breakdown.
type Scores struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// Analyzer wraps the VADER sentiment intensity analyzer.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity returns all four VADER scores for text.
func (a *Analyzer) Polarity(text string) Scores {
	s := a.vader.PolarityScores(text)
	return Scores{
		Negative: s.Negative,
		Neutral:  s.Neutral,
		Positive: s.Positive,
		Compound: clamp(s.Compound),
	}
}

// Compound returns only the normalized compound score.
func (a *Analyzer) Compound(text string) float64 {
	return a.Polarity(text).Compound
}

func clamp(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(-1, math.Min(1, score))
}

// LabelFor maps a compound score onto Positive, Negative or Neutral.
func LabelFor(score float64) types.Label {
	switch {
	case score >= PositiveThreshold:
		return types.LabelPositive
	case score <= NegativeThreshold:
		return types.LabelNegative
	default:
		return types.LabelNeutral
	}
}

package sentiment

import (
	"math"
	"testing"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

func TestLabelForBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  types.Label
	}{
		{0.05, types.LabelPositive},
		{0.0500001, types.LabelPositive},
		{1, types.LabelPositive},
		{-0.05, types.LabelNegative},
		{-1, types.LabelNegative},
		{0, types.LabelNeutral},
		{0.0499, types.LabelNeutral},
		{-0.0499, types.LabelNeutral},
	}
	for _, tc := range cases {
		if got := LabelFor(tc.score); got != tc.want {
			t.Errorf("LabelFor(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestAnalyzerPolarity(t *testing.T) {
	a := NewAnalyzer()

	if got := a.Compound("i love this it is wonderful"); got < PositiveThreshold {
		t.Fatalf("expected positive compound, got %v", got)
	}
	if got := a.Compound("this is terrible and i hate it"); got > NegativeThreshold {
		t.Fatalf("expected negative compound, got %v", got)
	}
	if got := a.Compound(""); got != 0 {
		t.Fatalf("expected zero compound for empty text, got %v", got)
	}
}

func TestAnalyzerCompoundInRange(t *testing.T) {
	a := NewAnalyzer()
	for _, text := range []string{
		"good good good good good great great excellent amazing love",
		"bad bad awful horrible terrible hate worst disgusting",
		"speech recognition could not understand the audio",
	} {
		score := a.Compound(text)
		if score < -1 || score > 1 || math.IsNaN(score) {
			t.Fatalf("compound %v out of range for %q", score, text)
		}
	}
}

func TestClamp(t *testing.T) {
	if clamp(math.NaN()) != 0 || clamp(2) != 1 || clamp(-3) != -1 || clamp(0.3) != 0.3 {
		t.Fatal("clamp did not bound scores to [-1, 1]")
	}
}

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSymptomExtractor(t *testing.T) *SymptomExtractor {
	t.Helper()
	e, err := NewSymptomExtractor()
	require.NoError(t, err)
	return e
}

func TestSymptomExtractor_ConsultationTranscript(t *testing.T) {
	e := newTestSymptomExtractor(t)

	transcript := "Good morning doctor, this is Ramesh. I have had a high fever " +
		"and a dry cough for three days. I also feel dizzy when I stand up. " +
		"The patient denies chest pain. No shortness of breath. " +
		"However, I do have a headache in the evenings."

	got := e.Extract(transcript)

	assert.Equal(t, []string{"fever", "cough", "dizziness", "headache"}, got.Affirmed)
	assert.Equal(t, []string{"chest pain", "shortness of breath"}, got.Negated)
}

func TestSymptomExtractor_CanonicalizesVariants(t *testing.T) {
	e := newTestSymptomExtractor(t)

	got := e.Extract("She has a high temperature and has been throwing up all night.")

	assert.Equal(t, []string{"fever", "vomiting"}, got.Affirmed)
	assert.Empty(t, got.Negated)
}

func TestSymptomExtractor_DeduplicatesByCanonicalLabel(t *testing.T) {
	e := newTestSymptomExtractor(t)

	got := e.Extract("Coughing all day. The cough gets worse at night. Still coughing now.")

	assert.Equal(t, []string{"cough"}, got.Affirmed)
	assert.Empty(t, got.Negated)
}

func TestSymptomExtractor_NegationCues(t *testing.T) {
	e := newTestSymptomExtractor(t)

	tests := []struct {
		name       string
		transcript string
		negated    []string
	}{
		{"no", "No fever.", []string{"fever"}},
		{"denies", "Patient denies nausea.", []string{"nausea"}},
		{"without", "Presented without chills.", []string{"chills"}},
		{"multi word cue", "There is no evidence of wheezing.", []string{"wheezing"}},
		{"negative for", "Negative for swelling.", []string{"swelling"}},
		{"contraction", "She doesn't have a rash.", []string{"rash"}},
		{"following cue", "Fever was ruled out.", []string{"fever"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.transcript)
			assert.Empty(t, got.Affirmed)
			assert.Equal(t, tt.negated, got.Negated)
		})
	}
}

func TestSymptomExtractor_TerminatorEndsNegationScope(t *testing.T) {
	e := newTestSymptomExtractor(t)

	got := e.Extract("No fever but complains of cough")

	assert.Equal(t, []string{"cough"}, got.Affirmed)
	assert.Equal(t, []string{"fever"}, got.Negated)
}

func TestSymptomExtractor_NegationScopeEndsAtSentence(t *testing.T) {
	e := newTestSymptomExtractor(t)

	// The cue in the first sentence must not reach the entity in the second.
	got := e.Extract("No fever today. The headache persists.")

	assert.Equal(t, []string{"headache"}, got.Affirmed)
	assert.Equal(t, []string{"fever"}, got.Negated)
}

func TestSymptomExtractor_NegationWinsOnConflict(t *testing.T) {
	e := newTestSymptomExtractor(t)

	got := e.Extract("I had a fever last week. No fever since Tuesday.")

	assert.Empty(t, got.Affirmed)
	assert.Equal(t, []string{"fever"}, got.Negated)
}

func TestSymptomExtractor_LongestMatchWins(t *testing.T) {
	e := newTestSymptomExtractor(t)

	// "lower back pain" must match as one phrase, not as bare "back pain"
	// plus leftovers.
	got := e.Extract("Complains of lower back pain.")

	assert.Equal(t, []string{"back pain"}, got.Affirmed)
}

func TestSymptomExtractor_EmptyAndUnmatchedInput(t *testing.T) {
	e := newTestSymptomExtractor(t)

	for _, transcript := range []string{"", "   ", "The weather has been lovely lately."} {
		got := e.Extract(transcript)
		assert.Empty(t, got.Affirmed)
		assert.Empty(t, got.Negated)
	}
}

func TestSymptomExtractor_Deterministic(t *testing.T) {
	e := newTestSymptomExtractor(t)

	transcript := "Fever, chills and a sore throat. Denies vomiting. No diarrhea."
	first := e.Extract(transcript)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Extract(transcript))
	}
}

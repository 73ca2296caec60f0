package ai

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	fenced := "```json\n{\"score\": 0.5}\n```"
	require.Equal(t, `{"score": 0.5}`, stripCodeFence(fenced))

	bare := "  {\"score\": 0.5} "
	require.Equal(t, `{"score": 0.5}`, stripCodeFence(bare))

	plainFence := "```\n[1,2]\n```"
	require.Equal(t, "[1,2]", stripCodeFence(plainFence))
}

func TestClampScore(t *testing.T) {
	require.Equal(t, 0.0, clampScore(-0.2))
	require.Equal(t, 1.0, clampScore(1.7))
	require.Equal(t, 0.0, clampScore(math.NaN()))
	require.Equal(t, 0.0, clampScore(math.Inf(1)))
	require.Equal(t, 0.45, clampScore(0.45))
}

func TestParseGradeResponseClampsUntrustedScores(t *testing.T) {
	result, err := parseGradeResponse(`{"score": 1.7, "feedback": "great", "confidence": -3}`)
	require.NoError(t, err)
	require.Equal(t, 1.0, result.Score)
	require.Equal(t, 0.0, result.Confidence)
	require.Equal(t, "great", result.Feedback)
}

func TestParseGradeResponseUnparsable(t *testing.T) {
	_, err := parseGradeResponse("not json")
	require.ErrorIs(t, err, ErrUnparsable)
}

func TestParseGenerationResponseAcceptsWrappedObject(t *testing.T) {
	wrapped := `{"problems": [{"question": "1+1?", "correctAnswer": "2", "explanation": "add", "type": "short-answer"}]}`
	problems, err := parseGenerationResponse(wrapped)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	require.Equal(t, "2", problems[0].CorrectAnswer)
}

func TestParseExtractionResponse(t *testing.T) {
	content := "```json\n[{\"problemNumber\": 1, \"problemId\": \"p1\", \"extractedAnswer\": \"x=2\", \"score\": 2.5, \"confidence\": 0.9}]\n```"
	answers, err := parseExtractionResponse(content)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.Equal(t, 1.0, answers[0].Score)
	require.Equal(t, "x=2", answers[0].ExtractedAnswer)

	_, err = parseExtractionResponse("I could not read the sheet")
	require.ErrorIs(t, err, ErrUnparsable)
}

package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// stripCodeFence removes a Markdown code fence wrapping, which some models
// add around JSON despite instructions not to.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

// clampScore forces a backend-supplied score into [0,1]. Non-finite values
// collapse to zero; the backend is untrusted.
func clampScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func parseGradeResponse(content string) (GradeResult, error) {
	var result GradeResult
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &result); err != nil {
		return GradeResult{}, fmt.Errorf("%w: %s", ErrUnparsable, err)
	}

	result.Score = clampScore(result.Score)
	result.Confidence = clampScore(result.Confidence)

	return result, nil
}

func parseGenerationResponse(content string) ([]GeneratedProblem, error) {
	cleaned := stripCodeFence(content)

	var problems []GeneratedProblem
	if err := json.Unmarshal([]byte(cleaned), &problems); err == nil {
		return problems, nil
	}

	// Some models wrap the list in an object.
	var wrapped struct {
		Problems []GeneratedProblem `json:"problems"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil || wrapped.Problems == nil {
		return nil, fmt.Errorf("%w: expected a problem list", ErrUnparsable)
	}

	return wrapped.Problems, nil
}

func parseExtractionResponse(content string) ([]ExtractedAnswer, error) {
	cleaned := stripCodeFence(content)

	var answers []ExtractedAnswer
	if err := json.Unmarshal([]byte(cleaned), &answers); err == nil {
		for i := range answers {
			answers[i].Score = clampScore(answers[i].Score)
			answers[i].Confidence = clampScore(answers[i].Confidence)
		}
		return answers, nil
	}

	var wrapped struct {
		Answers []ExtractedAnswer `json:"answers"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil || wrapped.Answers == nil {
		return nil, fmt.Errorf("%w: expected an answer list", ErrUnparsable)
	}

	for i := range wrapped.Answers {
		wrapped.Answers[i].Score = clampScore(wrapped.Answers[i].Score)
		wrapped.Answers[i].Confidence = clampScore(wrapped.Answers[i].Confidence)
	}

	return wrapped.Answers, nil
}

package ai

import (
	"fmt"
	"strings"
)

func generatorSystemPrompt() string {
	return "You are a teacher creating practice worksheets. Respond ONLY with a JSON array of problem objects, " +
		"each with question, options (array of 4 strings for multiple-choice, omit otherwise), correctAnswer, " +
		"explanation, and type (one of multiple-choice, short-answer, essay). Mix multiple-choice and open-ended " +
		"questions. For multiple-choice, exactly one option must equal correctAnswer."
}

func buildGenerationPrompt(input GenerationInput) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "Create %d practice problems.\n", input.NumQuestions)
	fmt.Fprintf(&b, "Subject: %s\n", input.Subject)
	fmt.Fprintf(&b, "Difficulty: %s\n", input.Difficulty)
	if input.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", input.Topic)
	}
	if input.SourceFileURL != "" {
		b.WriteString("Base the problems on the content of the attached document.\n")
	}
	b.WriteString("Return JSON only, no Markdown fences.")
	return b.String()
}

func graderSystemPrompt() string {
	return "You are grading a learner's free-text answer. Respond ONLY with a JSON object " +
		`{"score": <0 to 1>, "feedback": "<short feedback for the learner>", "reasoning": "<why this score>", ` +
		`"confidence": <0 to 1>}. Award partial credit for partially correct answers.`
}

func buildGradingPrompt(input GradingInput) string {
	b := strings.Builder{}
	b.WriteString("QUESTION:\n")
	b.WriteString(input.Question)
	b.WriteString("\n\nMODEL ANSWER:\n")
	b.WriteString(input.ModelAnswer)
	if input.Explanation != "" {
		b.WriteString("\n\nEXPLANATION:\n")
		b.WriteString(input.Explanation)
	}
	b.WriteString("\n\nLEARNER ANSWER:\n")
	b.WriteString(input.UserAnswer)
	b.WriteString("\n\nReturn JSON.")
	return b.String()
}

func extractorSystemPrompt() string {
	return "You are reading a scanned, handwritten answer sheet and grading it. Read the handwriting in the " +
		"attached file, associate each recognized answer with its problem by number or id, and respond ONLY with " +
		"a JSON array of objects " +
		`{"problemNumber": <number>, "problemId": "<id>", "extractedAnswer": "<what the learner wrote>", ` +
		`"score": <0 to 1>, "feedback": "<short feedback>", "reasoning": "<why>", "confidence": <0 to 1>}. ` +
		"Include an entry for every problem you can locate on the sheet. Award partial credit where deserved."
}

func buildExtractionPrompt(input ExtractionInput) string {
	b := strings.Builder{}
	b.WriteString("The worksheet contains the following problems:\n\n")
	for _, problem := range input.Problems {
		fmt.Fprintf(&b, "Problem %d (id: %s)\n", problem.Number, problem.ID)
		fmt.Fprintf(&b, "Question: %s\n", problem.Question)
		if len(problem.Options) > 0 {
			fmt.Fprintf(&b, "Options: %s\n", strings.Join(problem.Options, " | "))
		}
		fmt.Fprintf(&b, "Model answer: %s\n", problem.CorrectAnswer)
		if problem.Explanation != "" {
			fmt.Fprintf(&b, "Explanation: %s\n", problem.Explanation)
		}
		b.WriteString("\n")
	}
	b.WriteString("Read the attached scanned answer sheet and return the JSON array. No Markdown fences.")
	return b.String()
}

package generator

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func validBatchJSON(count int) string {
	correctAnswers := []string{"A", "B", "C", "D"}
	topics := []string{"airspace", "weather minimums", "weight and balance", "right-of-way", "fuel planning", "radio procedures"}
	batch := GeneratedBatch{Questions: make([]GeneratedQuestion, count)}

	for i := 0; i < count; i++ {
		correctID := correctAnswers[i%4]
		topic := topics[i%len(topics)]
		choices := make([]GeneratedChoice, 4)
		for j, id := range correctAnswers {
			label := "incorrect"
			if id == correctID {
				label = "correct"
			}
			choices[j] = GeneratedChoice{
				ID:   id,
				Text: "The " + label + " choice about " + topic + " for this question",
			}
		}
		batch.Questions[i] = GeneratedQuestion{
			Question:        "Which requirement applies when operating under conditions involving " + topic + "?",
			Choices:         choices,
			CorrectAnswerID: correctID,
			Explanation:     "The correct answer restates the applicable rule for " + topic + ".",
			Difficulty:      "medium",
		}
	}

	data, _ := json.Marshal(batch)
	return string(data)
}

func TestParseResponse_ValidJSON(t *testing.T) {
	input := validBatchJSON(6)

	batch, err := ParseResponse(input)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(batch.Questions) != 6 {
		t.Errorf("expected 6 questions, got %d", len(batch.Questions))
	}

	for i, q := range batch.Questions {
		if len(q.Choices) != 4 {
			t.Errorf("question %d: expected 4 choices, got %d", i+1, len(q.Choices))
		}
		if q.CorrectAnswerID == "" {
			t.Errorf("question %d: empty correct_answer_id", i+1)
		}
	}
}

func TestParseResponse_MarkdownFences(t *testing.T) {
	input := "```json\n" + validBatchJSON(3) + "\n```"

	batch, err := ParseResponse(input)
	if err != nil {
		t.Fatalf("expected no error with markdown fences, got: %v", err)
	}

	if len(batch.Questions) != 3 {
		t.Errorf("expected 3 questions, got %d", len(batch.Questions))
	}
}

func TestParseResponse_MissingChoice(t *testing.T) {
	batch := GeneratedBatch{
		Questions: []GeneratedQuestion{
			{
				Question: "Which airspace requires an operable transponder?",
				Choices: []GeneratedChoice{
					{ID: "A", Text: "Class A airspace only"},
					{ID: "B", Text: "Class B and above 10,000 feet MSL"},
					{ID: "C", Text: "All controlled airspace"},
					// Missing D
				},
				CorrectAnswerID: "B",
				Explanation:     "The answer is B.",
				Difficulty:      "medium",
			},
		},
	}
	data, _ := json.Marshal(batch)

	_, err := ParseResponse(string(data))
	if err == nil {
		t.Fatal("expected validation error for missing choice")
	}

	var ve *ValidationError
	if !isValidationError(err, &ve) {
		t.Fatalf("expected ValidationError, got: %T", err)
	}

	found := false
	for _, e := range ve.Errors {
		if strings.Contains(e, "expected 4 choices") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected error about 4 choices, got: %v", ve.Errors)
	}
}

func TestParseResponse_InvalidCorrectAnswerID(t *testing.T) {
	batch := GeneratedBatch{
		Questions: []GeneratedQuestion{
			{
				Question: "Which airspace requires an operable transponder?",
				Choices: []GeneratedChoice{
					{ID: "A", Text: "Class A airspace only"},
					{ID: "B", Text: "Class B and above 10,000 feet MSL"},
					{ID: "C", Text: "All controlled airspace"},
					{ID: "D", Text: "Class G below 1,200 feet AGL"},
				},
				CorrectAnswerID: "E",
				Explanation:     "The answer is E.",
				Difficulty:      "medium",
			},
		},
	}
	data, _ := json.Marshal(batch)

	_, err := ParseResponse(string(data))
	if err == nil {
		t.Fatal("expected validation error for invalid correct_answer_id")
	}

	var ve *ValidationError
	if !isValidationError(err, &ve) {
		t.Fatalf("expected ValidationError, got: %T", err)
	}

	found := false
	for _, e := range ve.Errors {
		if strings.Contains(e, "invalid correct_answer_id") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected error about invalid correct_answer_id, got: %v", ve.Errors)
	}
}

func TestParseResponse_InvalidDifficulty(t *testing.T) {
	batch := GeneratedBatch{
		Questions: []GeneratedQuestion{
			{
				Question: "Which airspace requires an operable transponder?",
				Choices: []GeneratedChoice{
					{ID: "A", Text: "Class A airspace only"},
					{ID: "B", Text: "Class B and above 10,000 feet MSL"},
					{ID: "C", Text: "All controlled airspace"},
					{ID: "D", Text: "Class G below 1,200 feet AGL"},
				},
				CorrectAnswerID: "B",
				Explanation:     "The answer is B.",
				Difficulty:      "brutal",
			},
		},
	}
	data, _ := json.Marshal(batch)

	_, err := ParseResponse(string(data))
	if err == nil {
		t.Fatal("expected validation error for invalid difficulty")
	}

	var ve *ValidationError
	if !isValidationError(err, &ve) {
		t.Fatalf("expected ValidationError, got: %T", err)
	}

	found := false
	for _, e := range ve.Errors {
		if strings.Contains(e, "invalid difficulty") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected error about invalid difficulty, got: %v", ve.Errors)
	}
}

func TestParseResponse_MalformedJSON(t *testing.T) {
	_, err := ParseResponse("this is not json at all")
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}

	// Should NOT be a ValidationError — should be a parse error
	var ve *ValidationError
	if isValidationError(err, &ve) {
		t.Fatal("expected parse error, not ValidationError")
	}
}

func TestParseResponse_EmptyExplanation(t *testing.T) {
	batch := GeneratedBatch{
		Questions: []GeneratedQuestion{
			{
				Question: "Which airspace requires an operable transponder?",
				Choices: []GeneratedChoice{
					{ID: "A", Text: "Class A airspace only"},
					{ID: "B", Text: "Class B and above 10,000 feet MSL"},
					{ID: "C", Text: "All controlled airspace"},
					{ID: "D", Text: "Class G below 1,200 feet AGL"},
				},
				CorrectAnswerID: "B",
				Explanation:     "",
				Difficulty:      "easy",
			},
		},
	}
	data, _ := json.Marshal(batch)

	_, err := ParseResponse(string(data))
	if err == nil {
		t.Fatal("expected validation error for empty explanation")
	}
}

func TestSplitAnswers(t *testing.T) {
	q := GeneratedQuestion{
		Choices: []GeneratedChoice{
			{ID: "A", Text: "first wrong"},
			{ID: "B", Text: "the right one"},
			{ID: "C", Text: "second wrong"},
			{ID: "D", Text: "third wrong"},
		},
		CorrectAnswerID: "B",
	}

	correct, incorrect := q.SplitAnswers()
	if correct != "the right one" {
		t.Errorf("correct = %q, want %q", correct, "the right one")
	}
	want := []string{"first wrong", "second wrong", "third wrong"}
	if len(incorrect) != 3 {
		t.Fatalf("got %d incorrect answers, want 3", len(incorrect))
	}
	for i, w := range want {
		if incorrect[i] != w {
			t.Errorf("incorrect[%d] = %q, want %q", i, incorrect[i], w)
		}
	}
}

func TestMockClientOutputParses(t *testing.T) {
	mock := NewMockClient()
	resp, err := mock.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("mock Generate: %v", err)
	}

	batch, err := ParseResponse(resp.Content)
	if err != nil {
		t.Fatalf("mock output failed validation: %v", err)
	}
	if len(batch.Questions) == 0 {
		t.Fatal("mock output has no questions")
	}

	for i, q := range batch.Questions {
		correct, incorrect := q.SplitAnswers()
		if correct == "" {
			t.Errorf("question %d: no correct answer text", i+1)
		}
		if len(incorrect) != 3 {
			t.Errorf("question %d: %d incorrect answers, want 3", i+1, len(incorrect))
		}
	}
}

// isValidationError checks if err is a *ValidationError via type assertion
func isValidationError(err error, target **ValidationError) bool {
	ve, ok := err.(*ValidationError)
	if ok && target != nil {
		*target = ve
	}
	return ok
}

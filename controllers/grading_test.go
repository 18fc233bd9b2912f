package controllers

import (
	"testing"

	"github.com/codequizhub/codequiz_backend/models"
)

func questionsWithKey(answers ...string) []models.Question {
	qs := make([]models.Question, len(answers))
	for i, a := range answers {
		qs[i] = models.Question{ID: i + 1, QuizID: 1, CorrectAnswer: a}
	}
	return qs
}

func TestGradeAnswersAllCorrect(t *testing.T) {
	qs := questionsWithKey("A", "B", "C", "D")
	answers := map[string]string{"1": "A", "2": "B", "3": "C", "4": "D"}

	graded, correct := gradeAnswers(qs, answers)
	if correct != 4 {
		t.Fatalf("expected 4 correct, got %d", correct)
	}
	for i, g := range graded {
		if !g.IsCorrect {
			t.Errorf("question %d should be correct", i+1)
		}
	}
}

func TestGradeAnswersConcreteScenario(t *testing.T) {
	// five questions keyed [A,B,C,D,A], submission [A,B,X,D,""]
	qs := questionsWithKey("A", "B", "C", "D", "A")
	answers := map[string]string{"1": "A", "2": "B", "3": "X", "4": "D", "5": ""}

	graded, correct := gradeAnswers(qs, answers)
	if correct != 3 {
		t.Fatalf("expected 3 correct, got %d", correct)
	}
	want := []bool{true, true, false, true, false}
	for i, g := range graded {
		if g.IsCorrect != want[i] {
			t.Errorf("question %d: is_correct = %v, want %v", i+1, g.IsCorrect, want[i])
		}
	}
	if got := scorePercent(correct, len(qs)); got != 60.00 {
		t.Errorf("score = %v, want 60.00", got)
	}
}

func TestGradeAnswersUnansweredIsIncorrect(t *testing.T) {
	qs := questionsWithKey("A", "B")
	// question 2 omitted from the map entirely
	answers := map[string]string{"1": "A"}

	graded, correct := gradeAnswers(qs, answers)
	if correct != 1 {
		t.Fatalf("expected 1 correct, got %d", correct)
	}
	if graded[1].IsCorrect {
		t.Error("unanswered question must be graded incorrect")
	}
	if graded[1].Selected != "" {
		t.Errorf("unanswered selected = %q, want empty", graded[1].Selected)
	}
}

func TestGradeAnswersPreservesQuestionOrder(t *testing.T) {
	qs := questionsWithKey("A", "B", "C")
	graded, _ := gradeAnswers(qs, map[string]string{})
	for i, g := range graded {
		if g.QuestionID != qs[i].ID {
			t.Fatalf("graded[%d].QuestionID = %d, want %d", i, g.QuestionID, qs[i].ID)
		}
	}
}

func TestScorePercentRounding(t *testing.T) {
	cases := []struct {
		correct, total int
		want           float64
	}{
		{0, 5, 0},
		{5, 5, 100},
		{3, 5, 60},
		{2, 3, 66.67},
		{1, 3, 33.33},
		{1, 6, 16.67},
		{1, 8, 12.5},
		{1, 7, 14.29},
	}
	for _, tc := range cases {
		if got := scorePercent(tc.correct, tc.total); got != tc.want {
			t.Errorf("scorePercent(%d, %d) = %v, want %v", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestRound2HalfUp(t *testing.T) {
	// 0.125 and 0.375 are exact in binary, so the .xx5 boundary is real
	if got := round2(0.125); got != 0.13 {
		t.Errorf("round2(0.125) = %v, want 0.13", got)
	}
	if got := round2(0.375); got != 0.38 {
		t.Errorf("round2(0.375) = %v, want 0.38", got)
	}
	if got := round2(33.334); got != 33.33 {
		t.Errorf("round2(33.334) = %v, want 33.33", got)
	}
}

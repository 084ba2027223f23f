package engine

import (
	"errors"
	"math"

	"solfege-learning-service/internal/domain"
)

// BonusThreshold is the percentage at or above which the performance bonus
// applies.
const BonusThreshold = 90.0

// bonusRate is the fraction of base points awarded as the performance bonus.
const bonusRate = 0.2

// roundPercentage rounds half-up to one decimal, the display convention used
// everywhere a percentage is stored or compared.
func roundPercentage(p float64) float64 {
	return math.Floor(p*10+0.5) / 10
}

// Score grades a full submission. Answers align 1:1 with quiz.Questions by
// index; a missing, out-of-range, or uncoercible answer counts as incorrect
// and never aborts grading; a full AttemptResult is always produced.
// Malformed questions (zero or multiple correct options) are reported in the
// per-question details and excluded from the earnable points, surfacing the
// authoring defect without failing the learner's whole quiz.
func Score(quiz domain.Quiz, answers []any) domain.AttemptResult {
	result := domain.AttemptResult{
		QuizID:  quiz.ID,
		Total:   len(quiz.Questions),
		Details: make([]domain.AnswerDetail, 0, len(quiz.Questions)),
	}

	for i, q := range quiz.Questions {
		detail := domain.AnswerDetail{QuestionID: q.ID, CorrectOption: -1}

		var raw any
		if i < len(answers) {
			raw = answers[i]
		}
		vr, err := ValidateRaw(q, raw)
		detail.CorrectOption = vr.CorrectOption
		detail.Explanation = vr.Explanation

		var malformed *domain.MalformedQuestionError
		var invalid *domain.InvalidSelectorError
		switch {
		case errors.As(err, &malformed):
			detail.Outcome = domain.AnswerMalformed
		case errors.As(err, &invalid):
			detail.Outcome = domain.AnswerInvalid
		case vr.Correct:
			detail.Outcome = domain.AnswerCorrect
			detail.Correct = true
			result.Score++
			result.BasePoints += q.PointValue()
		default:
			detail.Outcome = domain.AnswerWrong
		}
		result.Details = append(result.Details, detail)
	}

	if result.Total > 0 {
		result.Percentage = roundPercentage(float64(result.Score) / float64(result.Total) * 100)
	}
	if result.Percentage >= BonusThreshold {
		result.Bonus = int(math.Round(float64(result.BasePoints) * bonusRate))
	}
	result.TotalPoints = result.BasePoints + result.Bonus
	result.Passed = result.Percentage >= float64(quiz.PassingThreshold())
	return result
}

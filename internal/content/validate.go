// Package content validates authored quiz documents before they reach the
// store, so runtime grading never has to repair malformed data.
package content

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"solfege-learning-service/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(singleCorrectOption, domain.Question{})
	return v
}

// singleCorrectOption enforces the invariant struct tags cannot express:
// exactly one option per question is flagged correct.
func singleCorrectOption(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.Question)
	count := 0
	for _, opt := range q.Options {
		if opt.Correct {
			count++
		}
	}
	if count != 1 {
		sl.ReportError(q.Options, "Options", "options", "onecorrect", "")
	}
}

// Validate checks a quiz document against the content schema. Structural
// problems surface as validator field errors; a question with zero or
// multiple correct options additionally surfaces as a
// domain.MalformedQuestionError so callers can report the exact question.
func Validate(quiz domain.Quiz) error {
	if err := validate.Struct(quiz); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.Tag() == "onecorrect" {
					if merr := findMalformed(quiz); merr != nil {
						return merr
					}
				}
			}
			return fmt.Errorf("quiz %s failed content validation: %w", quiz.ID, err)
		}
		return err
	}
	return nil
}

func findMalformed(quiz domain.Quiz) error {
	for _, q := range quiz.Questions {
		count := 0
		for _, opt := range q.Options {
			if opt.Correct {
				count++
			}
		}
		if count != 1 {
			return &domain.MalformedQuestionError{QuestionID: q.ID, CorrectCount: count}
		}
	}
	return nil
}

// Package engine implements the progression and assessment core: answer
// validation, scoring, level progression, streak tracking, and achievement
// evaluation. Everything here is a pure function over explicit snapshots;
// persistence and concurrency control stay with the caller.
package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"solfege-learning-service/internal/domain"
)

// ParseSelector coerces a raw answer selector into an option index. This is
// the single place selector representations are normalized: ints, floats
// carrying whole values (the usual JSON decoding of a number), and strings
// with surrounding whitespace all resolve to the same index, so "1" and 1
// can never grade differently.
func ParseSelector(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, &domain.InvalidSelectorError{Raw: raw, Reason: "not a whole number"}
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, &domain.InvalidSelectorError{Raw: raw, Reason: "not an integer"}
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, &domain.InvalidSelectorError{Raw: raw, Reason: "not an integer"}
		}
		return n, nil
	case nil:
		return 0, &domain.InvalidSelectorError{Raw: raw, Reason: "missing"}
	}
	return 0, &domain.InvalidSelectorError{Raw: raw, Reason: "unsupported type"}
}

// correctIndex locates the unique correct option, enforcing the
// single-correctness invariant.
func correctIndex(q domain.Question) (int, error) {
	idx := -1
	count := 0
	for i, opt := range q.Options {
		if opt.Correct {
			if count == 0 {
				idx = i
			}
			count++
		}
	}
	if count != 1 {
		return -1, &domain.MalformedQuestionError{QuestionID: q.ID, CorrectCount: count}
	}
	return idx, nil
}

// explanationFor prefers the correct option's explanation over the
// question-level one.
func explanationFor(q domain.Question, correct int) string {
	if exp := q.Options[correct].Explanation; exp != "" {
		return exp
	}
	return q.Explanation
}

// Validate checks a selected option index against a question's canonical
// correct option. A selector out of [0, len(options)) yields an
// InvalidSelectorError; a question with zero or multiple correct options
// yields a MalformedQuestionError. No guessing, no side effects.
func Validate(q domain.Question, selected int) (domain.ValidationResult, error) {
	correct, err := correctIndex(q)
	if err != nil {
		return domain.ValidationResult{CorrectOption: -1}, err
	}
	if selected < 0 || selected >= len(q.Options) {
		return domain.ValidationResult{CorrectOption: correct},
			&domain.InvalidSelectorError{Raw: selected, Reason: "index out of range"}
	}
	return domain.ValidationResult{
		Correct:       selected == correct,
		CorrectOption: correct,
		Explanation:   explanationFor(q, correct),
	}, nil
}

// ValidateRaw coerces the selector first, then validates. Coercion failures
// surface as InvalidSelectorError with the correct option still resolved, so
// scoring can count the question as incorrect rather than abort.
func ValidateRaw(q domain.Question, raw any) (domain.ValidationResult, error) {
	selected, err := ParseSelector(raw)
	if err != nil {
		correct, cerr := correctIndex(q)
		if cerr != nil {
			return domain.ValidationResult{CorrectOption: -1}, cerr
		}
		return domain.ValidationResult{CorrectOption: correct}, err
	}
	return Validate(q, selected)
}

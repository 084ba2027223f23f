package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"solfege-learning-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

// Distinct quiz IDs fill the cache through concurrent singleflight closures;
// run with -race to check the jitter path.
func TestQuizRepositoryConcurrentFill(t *testing.T) {
	quizzes := make(map[string]domain.Quiz, 16)
	for i := 0; i < 16; i++ {
		id := "quiz-" + string(rune('a'+i))
		quiz := sampleQuiz()
		quiz.ID = id
		quizzes[id] = quiz
	}
	repo := NewQuizRepository(NewStaticQuizLoader(quizzes), time.Minute)

	var wg sync.WaitGroup
	for id := range quizzes {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			quiz, err := repo.GetQuiz(context.Background(), id)
			if err != nil {
				t.Errorf("get %s: %v", id, err)
				return
			}
			if quiz.ID != id {
				t.Errorf("got quiz %s for id %s", quiz.ID, id)
			}
		}(id)
	}
	wg.Wait()
}

func TestQuizRepositoryUnknownQuiz(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "nope"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:       "quiz-1",
		Title:    "Note Names",
		ModuleID: "mod-notes",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Prompt: "Which note sits on the second line of the treble staff?",
				Options: []domain.Option{
					{ID: "o0", Text: "E"},
					{ID: "o1", Text: "G", Correct: true},
				},
				Points: 10,
			},
		},
	}
}

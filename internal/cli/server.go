package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"solfege-learning-service/internal/app"
	"solfege-learning-service/internal/config"
	"solfege-learning-service/internal/domain"
	"solfege-learning-service/internal/infra/memory"
	pgstore "solfege-learning-service/internal/infra/postgres"
	rediscache "solfege-learning-service/internal/infra/redis"
	transport "solfege-learning-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the learning service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader rediscache.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	var learners app.LearnerRepository
	if pool != nil {
		loader = pgstore.NewQuizStore(pool)
		learners = pgstore.NewLearnerStore(pool)
	} else {
		store := memory.NewLearnerStore()
		store.Seed(domain.Learner{
			ID:          "demo",
			DisplayName: "Demo Learner",
			Level:       domain.LevelBeginner,
			WeeklyGoal:  cfg.Engine.DefaultWeeklyGoal,
		})
		learners = store
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizzes app.QuizRepository
	if redisClient != nil {
		quizzes = rediscache.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizzes = memory.NewQuizRepository(loader, quizTTL)
	}

	service := app.NewLearningService(quizzes, learners, cfg.ProgressionThresholds())

	mux := http.NewServeMux()
	transport.NewHandler(service, log).Register(mux)
	mux.HandleFunc("GET /ws", transport.NewWSHandler(service, log).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting learning service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds the in-memory demo mode; production content comes from
// Postgres via the seed command.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-notes": {
			ID:       "quiz-notes",
			Title:    "Note Names",
			ModuleID: "mod-notes",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "Which note sits on the second line of the treble staff?",
					Options: []domain.Option{
						{ID: "o0", Text: "E"},
						{ID: "o1", Text: "G", Correct: true, Explanation: "The treble clef circles the G line."},
						{ID: "o2", Text: "B"},
					},
					Difficulty: domain.DifficultyEasy,
					Points:     10,
				},
				{
					ID:     "q2",
					Prompt: "How many semitones are in an octave?",
					Options: []domain.Option{
						{ID: "o0", Text: "8"},
						{ID: "o1", Text: "12", Correct: true},
						{ID: "o2", Text: "7"},
					},
					Difficulty: domain.DifficultyEasy,
					Points:     10,
				},
			},
			PassingScore: 70,
			Level:        domain.LevelBeginner,
			Type:         domain.QuizTypeModule,
		},
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"solfege-learning-service/internal/config"
	"solfege-learning-service/internal/content"
	"solfege-learning-service/internal/domain"
	pgstore "solfege-learning-service/internal/infra/postgres"
)

// NewSeedCmd loads quiz JSON documents from a directory into Postgres.
// Every document is validated first; a quiz violating the single-correctness
// invariant is rejected here instead of surfacing during grading.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <dir>",
		Short: "Validate and load quiz content into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			log := logrus.New()
			ctx := cmd.Context()

			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			store := pgstore.NewQuizStore(pool)

			entries, err := os.ReadDir(args[0])
			if err != nil {
				return err
			}
			seeded := 0
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
					continue
				}
				path := filepath.Join(args[0], entry.Name())
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				var quiz domain.Quiz
				if err := json.Unmarshal(raw, &quiz); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := content.Validate(quiz); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := store.UpsertQuiz(ctx, quiz); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				log.WithFields(logrus.Fields{"quiz": quiz.ID, "file": entry.Name()}).Info("seeded quiz")
				seeded++
			}
			log.WithField("count", seeded).Info("seeding complete")
			return nil
		},
	}
}

package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/chatterfeed/internal/api"
	"github.com/chatterfeed/internal/config"
	"github.com/chatterfeed/internal/database"
	"github.com/chatterfeed/internal/hashtags"
	"github.com/chatterfeed/internal/jobqueue"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the ChatterFeed API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			db, err := database.NewDB()
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			ctx := context.Background()

			// Hashtag generation is optional. Without an API key the feed
			// runs fine; published chats just stay untagged.
			var queue *jobqueue.JobQueue
			if cfg.AI.APIKey != "" {
				generator, err := hashtags.NewGenerator(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.MaxTokens, cfg.AI.Temperature)
				if err != nil {
					return fmt.Errorf("failed to initialize hashtag generator: %w", err)
				}

				dbURL, err := database.LoadURL()
				if err != nil {
					return fmt.Errorf("failed to resolve database URL: %w", err)
				}

				queue, err = jobqueue.NewJobQueue(dbURL, generator)
				if err != nil {
					return fmt.Errorf("failed to initialize job queue: %w", err)
				}
				if err := queue.Start(ctx); err != nil {
					return fmt.Errorf("failed to start job queue: %w", err)
				}
				defer queue.Stop(ctx)
			} else {
				log.Warn().Msg("no AI API key configured, hashtag generation disabled")
			}

			var enqueuer api.HashtagEnqueuer
			if queue != nil {
				enqueuer = queue
			}

			server := api.NewServer(cfg, db, enqueuer)
			return server.Start()
		},
	}
}

// ranger is the account inauthenticity analysis daemon: an HTTP API over
// the scoring engine, with persisted results, feedback-driven classifier
// training, and prometheus metrics.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/bencan1a/RedditRanger/detector"
	"github.com/bencan1a/RedditRanger/detector/engine"
	"github.com/bencan1a/RedditRanger/detector/textanalyzer"
	"github.com/bencan1a/RedditRanger/fakedata"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "ranger",
		Usage:   "reddit account inauthenticity analysis service",
		Version: versioninfo.Short(),
	}
	app.Commands = []*cli.Command{
		serveCmd,
		demoCmd,
	}
	return app.Run(args)
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the analysis HTTP API",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the HTTP API",
			Value:   ":8500",
			EnvVars: []string{"RANGER_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics",
			Value:   ":8501",
			EnvVars: []string{"RANGER_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/ranger/ranger.sqlite",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			Value:   40,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for counters and result cache; in-process stores when empty",
			EnvVars: []string{"RANGER_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "model-cache-dir",
			Usage:   "directory for the persisted classifier model",
			Value:   "data/ranger/model_cache",
			EnvVars: []string{"RANGER_MODEL_CACHE_DIR"},
		},
		&cli.IntFlag{
			Name:    "ratelimit-burst",
			Usage:   "max burst of analyze requests per client",
			Value:   5,
			EnvVars: []string{"RANGER_RATELIMIT_BURST"},
		},
		&cli.Float64Flag{
			Name:    "ratelimit-refill",
			Usage:   "analyze request tokens refilled per second per client",
			Value:   0.1,
			EnvVars: []string{"RANGER_RATELIMIT_REFILL"},
		},
		&cli.DurationFlag{
			Name:    "cache-ttl",
			Usage:   "how long a computed analysis is served without re-scoring",
			Value:   ResultCacheTTL,
			EnvVars: []string{"RANGER_CACHE_TTL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		srv, err := NewServer(Config{
			Logger:          logger,
			Bind:            cctx.String("bind"),
			MetricsListen:   cctx.String("metrics-listen"),
			DatabaseURL:     cctx.String("database-url"),
			MaxDBConns:      cctx.Int("max-db-connections"),
			RedisURL:        cctx.String("redis-url"),
			ModelCacheDir:   cctx.String("model-cache-dir"),
			RateLimitBurst:  cctx.Int("ratelimit-burst"),
			RateLimitRefill: cctx.Float64("ratelimit-refill"),
			CacheTTL:        cctx.Duration("cache-ttl"),
		})
		if err != nil {
			return err
		}
		return srv.RunUntilSignal()
	},
}

var demoCmd = &cli.Command{
	Name:  "demo",
	Usage: "score synthetic accounts and print the results",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "count",
			Usage: "number of accounts to generate",
			Value: 10,
		},
		&cli.Int64Flag{
			Name:  "seed",
			Usage: "generator seed",
			Value: 1,
		},
		&cli.Float64Flag{
			Name:  "frac-bots",
			Usage: "portion of generated accounts shaped like bots",
			Value: 0.5,
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		gen := fakedata.NewGenerator(cctx.Int64("seed"))
		analyzer := textanalyzer.NewAnalyzer()
		scorer := engine.NewAccountScorer(logger, nil)

		count := cctx.Int("count")
		numBots := int(float64(count) * cctx.Float64("frac-bots"))

		enc := json.NewEncoder(os.Stdout)
		for i := 0; i < count; i++ {
			var acct *detector.AccountSnapshot
			if i < numBots {
				acct = gen.BotSnapshot()
			} else {
				acct = gen.HumanSnapshot()
			}

			activity := detector.ComputeActivityPatterns(acct)
			text := analyzer.AnalyzeComments(acct.CommentBodies(), acct.CommentTimestamps())
			final, _ := scorer.CalculateScore(cctx.Context, acct, &activity, &text)
			botProb := (1 - final) * 100

			if err := enc.Encode(map[string]any{
				"username":        acct.Username,
				"bot_probability": fmt.Sprintf("%.1f", botProb),
				"risk_tier":       riskTier(botProb),
			}); err != nil {
				return err
			}
		}
		return nil
	},
}

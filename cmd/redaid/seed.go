package main

import (
	"fmt"

	"redaid/internal/db"
	"redaid/internal/lifecycle"
	"redaid/internal/reference"
	"redaid/internal/seed"
	"redaid/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with sample users, donation requests and blogs",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "requests",
			Usage: "Number of donation requests to create",
			Value: 20,
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Delete previously seeded donation requests first",
		},
		&cli.BoolFlag{
			Name:  "dump",
			Usage: "Pretty print everything that was seeded",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cfg.DatabaseURL == "" {
			return fmt.Errorf("set DATABASE_URL")
		}

		ctx := c.Context

		pool, err := db.Connect(ctx, cfg, logrus.StandardLogger())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		locations, err := reference.Load()
		if err != nil {
			return err
		}

		userRepo := store.NewUserRepository(pool)
		blogRepo := store.NewBlogRepository(pool)
		engine := lifecycle.New(
			logrus.StandardLogger(),
			store.NewDonationRequestRepository(pool),
			lifecycle.WithEventRecorder(store.NewRequestEventRepository(pool)),
			lifecycle.WithLocations(locations),
		)

		users, err := seed.SeedFakeUsers(ctx, userRepo)
		if err != nil {
			return err
		}

		requests, err := seed.SeedFakeRequests(ctx, pool, engine, locations, users, c.Int("requests"), c.Bool("reset"))
		if err != nil {
			return err
		}

		blogs, err := seed.SeedFakeBlogs(ctx, blogRepo, users)
		if err != nil {
			return err
		}

		if c.Bool("dump") {
			pp.Println(users)
			pp.Println(requests)
			pp.Println(blogs)
		}

		logrus.Info("Seeding complete")
		return nil
	},
}

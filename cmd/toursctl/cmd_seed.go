package main

import (
	"fmt"

	"tours/internal/database"
	"tours/internal/seed"

	"github.com/spf13/cobra"
)

var (
	seedUsers    int
	seedTours    int
	seedComments int
	seedFixtures string
	seedClean    bool
	seedRandSeed int64
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo data",
		Long: `Creates random users and tours with comments, likes and reads.
With --fixtures, a YAML file of hand-written users and tours is loaded as well.
Every seeded user has the password "` + seed.DefaultPassword + `".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			ctx := cmd.Context()
			s := seed.NewSeeder(db, seed.Options{Seed: seedRandSeed, MaxCommentsPerTour: seedComments})
			out := cmd.OutOrStdout()

			if seedClean {
				if err := s.ClearAll(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "Cleared existing data")
			}

			if seedFixtures != "" {
				res, err := s.LoadFixtureFile(ctx, seedFixtures)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Fixtures: %d users, %d tours, %d comments, %d likes\n",
					res.Users, res.Tours, res.Comments, res.Likes)
			}

			res, err := s.Run(ctx, seedUsers, seedTours)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Generated: %d users, %d tours, %d comments, %d likes\n",
				res.Users, res.Tours, res.Comments, res.Likes)
			return nil
		},
	}

	cmd.Flags().IntVar(&seedUsers, "users", 20, "number of random users to create")
	cmd.Flags().IntVar(&seedTours, "posts", 100, "number of random tours to create")
	cmd.Flags().IntVar(&seedComments, "comments", 5, "maximum random comments per tour")
	cmd.Flags().StringVar(&seedFixtures, "fixtures", "", "YAML fixtures file to load")
	cmd.Flags().BoolVar(&seedClean, "clean", false, "delete existing data first")
	cmd.Flags().Int64Var(&seedRandSeed, "seed", 0, "random seed for reproducible data")
	return cmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"crmdash/internal/db"
	"crmdash/internal/source"
)

func newSeedCmd() *cobra.Command {
	var (
		count int
		seed  uint64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo CRM data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			dialect, dsn, err := source.Target(cfg)
			if err != nil {
				return err
			}

			database, err := db.Open(cmd.Context(), dialect, dsn)
			if err != nil {
				return err
			}
			defer database.Close()

			counts, err := db.Seed(cmd.Context(), database, dialect, db.SeedOptions{Customers: count, Seed: seed})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d customers, %d leads, %d escalations, %d campaigns\n",
				counts.Customers, counts.Leads, counts.Escalations, counts.Campaigns)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 50, "Number of customers to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			dialect, dsn, err := source.Target(cfg)
			if err != nil {
				return err
			}

			// Open migrates.
			database, err := db.Open(cmd.Context(), dialect, dsn)
			if err != nil {
				return err
			}
			defer database.Close()

			version, err := db.Version(database, dialect)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database is at version %d\n", version)
			return nil
		},
	}
}

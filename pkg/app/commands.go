package app

// pkg/app/commands.go holds the cobra sub-commands of the storefront binary.

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

// Command builds the root command with every sub-command attached.
func (a *Application) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront catalog service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:     "serve",
			Aliases: []string{"run", "start"},
			Short:   "Start the HTTP server (and gRPC health when GRPC_PORT is set)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.Serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Run all pending database migrations",
			RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
				ran, err := migration.New(db).Run()
				if err != nil {
					return err
				}
				printNames(cmd, "Migrated", ran, "Nothing to migrate.")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "migrate:rollback",
			Short: "Roll back the last batch of migrations",
			RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
				undone, err := migration.New(db).Rollback()
				if err != nil {
					return err
				}
				printNames(cmd, "Rolled back", undone, "Nothing to roll back.")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "migrate:status",
			Short: "Show the status of each migration",
			RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
				rows, err := migration.New(db).Status()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
				for _, st := range rows {
					ran, batch := "No", "-"
					if st.Ran {
						ran, batch = "Yes", fmt.Sprint(st.Batch)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, st.Name)
				}
				return w.Flush()
			}),
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Fill an empty catalog with demo products and accessory categories",
			RunE: withDB(func(cmd *cobra.Command, db *gorm.DB) error {
				ran, err := seeders.RunAll(cmd.Context(), db)
				if err != nil {
					return err
				}
				printNames(cmd, "Seeded", ran, "No seeders registered.")
				return nil
			}),
		},
		&cobra.Command{
			Use:     "route:list",
			Aliases: []string{"routes"},
			Short:   "List every registered route",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.listRoutes(cmd)
			},
		},
		&cobra.Command{
			Use:   "storage:init",
			Short: "Create the image bucket if it does not exist",
			RunE: withImages(func(cmd *cobra.Command, images *services.ImageService) error {
				if err := images.EnsureBucket(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Bucket ready.")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "storage:stats",
			Short: "Report how many images the bucket holds and their size",
			RunE: withImages(func(cmd *cobra.Command, images *services.ImageService) error {
				st, err := images.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s files, %s\n", humanize.Comma(int64(st.TotalFiles)), st.TotalSizeFormatted)
				return nil
			}),
		},
	)

	return root
}

func (a *Application) listRoutes(cmd *cobra.Command) error {
	routes := buildRouter(a, &Services{}).Routes()
	if len(routes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No routes registered.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}

// withDB loads config and opens the database around fn.
func withDB(fn func(cmd *cobra.Command, db *gorm.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := config.Load(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		db, err := database.Open(config.DatabaseDriver(), config.DatabaseDSN())
		if err != nil {
			return err
		}
		defer database.Close(db) //nolint:errcheck
		return fn(cmd, db)
	}
}

// withImages builds an ImageService over the configured disk.
func withImages(fn func(cmd *cobra.Command, images *services.ImageService) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadStorefront()
		if err != nil {
			return err
		}
		opts := storage.OptionsFromConfig()
		opts.Bucket = cfg.Bucket
		disk, err := storage.New(opts)
		if err != nil {
			return err
		}
		pool := workerpool.New(1)
		defer pool.Shutdown()
		return fn(cmd, services.NewImageService(disk, pool, cfg))
	}
}

func printNames(cmd *cobra.Command, verb string, names []string, none string) {
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, none)
		return
	}
	for _, n := range names {
		fmt.Fprintf(out, "%s: %s\n", verb, n)
	}
}

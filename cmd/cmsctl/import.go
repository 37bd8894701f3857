package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nekogravitycat/visa-cms-backend/internal/announcement"
	"github.com/nekogravitycat/visa-cms-backend/internal/app"
	"github.com/nekogravitycat/visa-cms-backend/internal/importer"
	"github.com/nekogravitycat/visa-cms-backend/internal/testimonial"
)

func newImportCmd(rt *session) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import announcements and testimonials from a Firestore JSON export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			export, err := importer.Decode(f)
			if err != nil {
				return err
			}

			// Share the server's cache so the main announcement is invalidated there too.
			mainCache, err := app.NewCache(ctx, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer mainCache.Close()

			annService := announcement.NewService(
				announcement.NewPgxRepository(rt.pool),
				announcement.WithCache(mainCache, rt.cfg.MainCacheTTL),
				announcement.WithLogger(rt.logger.Named("announcement")),
			)
			testimonialService := testimonial.NewService(testimonial.NewPgxRepository(rt.pool), rt.logger.Named("testimonial"))

			var opts []importer.Option
			if dryRun {
				opts = append(opts, importer.DryRun())
			}

			report, err := importer.New(annService, testimonialService, rt.logger.Named("import"), opts...).Run(ctx, export)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "announcements: %d\ntestimonials: %d\nskipped: %d\n",
				report.Announcements, report.Testimonials, report.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the export JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without writing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

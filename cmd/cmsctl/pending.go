package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nekogravitycat/visa-cms-backend/internal/image"
)

func newPendingDeletionsCmd(rt *session) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "pending-deletions",
		Short: "List images marked for deletion, oldest upload first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			images, total, err := image.NewRepository(rt.pool).List(cmd.Context(), image.Filter{
				PendingDeletion: true,
				Page:            1,
				PageSize:        limit,
				SortOrder:       "ASC",
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tREQUESTED\tPUBLIC ID\tSTORAGE PATH\tURL")
			for _, img := range images {
				requested := ""
				if img.DeletionRequestedAt != nil {
					requested = img.DeletionRequestedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", img.ID, requested, deref(img.PublicID), deref(img.StoragePath), img.URL)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if total > len(images) {
				fmt.Fprintf(cmd.OutOrStdout(), "showing %d of %d\n", len(images), total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows to print")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

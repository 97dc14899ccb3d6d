package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"meetup-api/models"

	"github.com/spf13/cobra"
)

type eventFinder interface {
	FindEventBySlug(ctx context.Context, slug string) (*models.Event, error)
}

type rosterWriter interface {
	WriteAttendeesCSV(ctx context.Context, event *models.Event, w io.Writer) error
}

// newExportCommand builds the "export" command writing an event roster as CSV.
func newExportCommand(events eventFinder, roster rosterWriter) *cobra.Command {
	var output string

	command := &cobra.Command{
		Use:   "export [event-slug]",
		Short: "Export the attendees of an event as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			ctx := command.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			event, err := events.FindEventBySlug(ctx, args[0])
			if err != nil {
				return err
			}

			w := command.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			return roster.WriteAttendeesCSV(ctx, event, w)
		},
	}
	command.Flags().StringVarP(&output, "output", "o", "", "write the CSV to a file instead of stdout")

	return command
}

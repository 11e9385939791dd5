package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gcalauth/internal/calendar"
)

func newCalendarController() (*calendar.Controller, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return calendar.NewController(settings, calendar.WithLogger(slog.Default())), nil
}

func loadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid zone %q: %w", name, err)
	}
	return loc, nil
}

func newEventsCmd() *cobra.Command {
	var (
		tokens tokenFlags
		output string
		zone   string
		params string
	)

	cmd := &cobra.Command{
		Use:   "events CALENDAR_ID",
		Short: "List events of a calendar",
		Long: `List one page of events of a calendar.

Calendar API list parameters are passed with --params, e.g.
  --params "timeMin=2024-03-01T00:00:00Z,singleEvents=true,orderBy=startTime"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tokens.resolve(cmd); err != nil {
				return err
			}
			query, err := parseParams(params)
			if err != nil {
				return err
			}
			loc, err := loadZone(zone)
			if err != nil {
				return err
			}
			ctrl, err := newCalendarController()
			if err != nil {
				return err
			}

			events, err := ctrl.GetEvents(cmd.Context(), tokens.accessToken, tokens.refreshToken, args[0], callOptions(query)...)
			if err != nil {
				return err
			}
			if output == outputICS {
				return calendar.WriteICS(cmd.OutOrStdout(), events)
			}
			records, err := calendar.Records(events, loc)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, records)
		},
	}

	tokens.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json, yaml or ics")
	cmd.Flags().StringVar(&zone, "zone", "", "Time zone for event times (default: the event's own zone)")
	cmd.Flags().StringVar(&params, "params", "", "Comma-separated key=value Calendar API list parameters")
	return cmd
}

func newEventCmd() *cobra.Command {
	var (
		tokens tokenFlags
		output string
		zone   string
	)

	cmd := &cobra.Command{
		Use:   "event CALENDAR_ID EVENT_ID",
		Short: "Show one event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tokens.resolve(cmd); err != nil {
				return err
			}
			loc, err := loadZone(zone)
			if err != nil {
				return err
			}
			ctrl, err := newCalendarController()
			if err != nil {
				return err
			}

			ev, err := ctrl.GetEvent(cmd.Context(), tokens.accessToken, tokens.refreshToken, args[0], args[1])
			if err != nil {
				return err
			}
			if output == outputICS {
				return calendar.WriteICS(cmd.OutOrStdout(), []*calendar.Event{ev})
			}
			rec, err := ev.Record(loc)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, rec)
		},
	}

	tokens.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json, yaml or ics")
	cmd.Flags().StringVar(&zone, "zone", "", "Time zone for event times (default: the event's own zone)")
	return cmd
}

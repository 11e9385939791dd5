package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Environment variables consulted when the token flags are not given.
const (
	envAccessToken  = "GCALAUTH_ACCESS_TOKEN"
	envRefreshToken = "GCALAUTH_REFRESH_TOKEN"
)

// tokenFlags holds the credentials of the user whose calendars are read.
type tokenFlags struct {
	accessToken  string
	refreshToken string
}

func (f *tokenFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.accessToken, "token", "", "OAuth access token. Can also use "+envAccessToken+" env var.")
	cmd.Flags().StringVar(&f.refreshToken, "refresh-token", "", "OAuth refresh token. Can also use "+envRefreshToken+" env var.")
}

// resolve fills unset flags from the environment.
func (f *tokenFlags) resolve(cmd *cobra.Command) error {
	if !cmd.Flags().Changed("token") {
		f.accessToken = os.Getenv(envAccessToken)
	}
	if !cmd.Flags().Changed("refresh-token") {
		f.refreshToken = os.Getenv(envRefreshToken)
	}
	if f.accessToken == "" {
		return fmt.Errorf("an access token is required (--token or %s)", envAccessToken)
	}
	return nil
}

func newCalendarsCmd() *cobra.Command {
	var (
		tokens tokenFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "List the calendars of the authorized account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := tokens.resolve(cmd); err != nil {
				return err
			}
			ctrl, err := newCalendarController()
			if err != nil {
				return err
			}

			list, err := ctrl.GetCalendarList(cmd.Context(), tokens.accessToken, tokens.refreshToken)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, list.Items)
		},
	}

	tokens.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json or yaml")
	return cmd
}

func newCalendarCmd() *cobra.Command {
	var (
		tokens tokenFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "calendar CALENDAR_ID",
		Short: "Show one calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tokens.resolve(cmd); err != nil {
				return err
			}
			ctrl, err := newCalendarController()
			if err != nil {
				return err
			}

			cal, err := ctrl.GetCalendar(cmd.Context(), tokens.accessToken, args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, cal)
		},
	}

	tokens.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json or yaml")
	return cmd
}

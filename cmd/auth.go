package cmd

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/teemow/gcalauth/internal/auth"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Run the Google OAuth2 authorization code flow",
		Long: `Generate the authorization URL, exchange the authorization code returned
to GOOGLE_REDIRECT_URI for tokens, or refresh an access token.

The client credentials file is read from GOOGLE_APPLICATION_CREDENTIALS,
relative to the application root.`,
	}
	cmd.AddCommand(newAuthURLCmd())
	cmd.AddCommand(newAuthExchangeCmd())
	cmd.AddCommand(newAuthRefreshCmd())
	return cmd
}

func newAuthURLCmd() *cobra.Command {
	var (
		offline   bool
		state     string
		loginHint string
		prompt    string
	)

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the authorization URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			ctrl := auth.NewController(settings)
			if offline {
				ctrl.AddAuthModification(auth.OfflineAccess())
			}
			if state == "" {
				state = auth.NewState()
			}
			ctrl.AddAuthModification(auth.State(state))
			if loginHint != "" {
				ctrl.AddAuthModification(auth.LoginHint(loginHint))
			}
			if prompt != "" {
				ctrl.AddAuthModification(auth.Prompt(prompt))
			}

			u, err := ctrl.GetAuthURL(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", true, "Request a refresh token (access_type=offline)")
	cmd.Flags().StringVar(&state, "state", "", "State value echoed on the callback (default: random UUID)")
	cmd.Flags().StringVar(&loginHint, "login-hint", "", "Email address to pre-select in the account chooser")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Override the consent prompt (e.g. none, consent, select_account)")
	return cmd
}

func newAuthExchangeCmd() *cobra.Command {
	var (
		state  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "exchange CODE",
		Short: "Exchange an authorization code for tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			q := url.Values{"code": {args[0]}}
			if state != "" {
				q.Set("state", state)
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, "/callback?"+q.Encode(), nil)
			if err != nil {
				return err
			}

			ctrl := auth.NewController(settings)
			if err := ctrl.ParseResponseForTokens(cmd.Context(), req); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, ctrl.GetLastTokenRecord())
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "State value received on the callback")
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json or yaml")
	return cmd
}

func newAuthRefreshCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "refresh REFRESH_TOKEN",
		Short: "Exchange a refresh token for a new access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			rec, err := auth.NewController(settings).RefreshAccessToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, rec)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json or yaml")
	return cmd
}

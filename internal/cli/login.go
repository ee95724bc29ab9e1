package cmd

import (
	"fmt"

	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var (
		handle   string
		key      string
		secret   string
		password string
		save     bool
		web      bool
	)

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Verify the judge credentials",
		Long: `login checks the handle and API key pair with a user.info call.
With --save the credentials are written to the env file, and with --web the
website login form is posted too so later submits reuse the saved session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, auth.Credentials{
				Handle:    handle,
				APIKey:    key,
				APISecret: secret,
				Password:  password,
			})
			if err != nil {
				return err
			}
			defer rt.close()

			out := cmd.OutOrStdout()
			user, authErr := rt.judge.Authenticate(cmd.Context(), rt.creds)
			if authErr != nil {
				failureColor.Fprintln(out, "Authentication failed. Please check your credentials.")
				return authErr
			}
			successColor.Fprintf(out, "Authentication successful! Welcome, %s!\n", user.Handle)
			if user.Rank != "" {
				fmt.Fprintf(out, "Rank: %s (%d)\n", user.Rank, user.Rating)
			}

			if save {
				if err := auth.SaveDotEnv(envFile, rt.creds); err != nil {
					return err
				}
				infoColor.Fprintf(out, "Credentials saved to %s\n", envFile)
			}

			if web {
				if err := rt.judge.WebLogin(cmd.Context()); err != nil {
					return err
				}
				infoColor.Fprintln(out, "Website session saved.")
			}
			return nil
		},
	}

	loginCmd.Flags().StringVar(&handle, "handle", "", "judge handle (default $CF_HANDLE)")
	loginCmd.Flags().StringVar(&key, "key", "", "API key (default $CF_API_KEY)")
	loginCmd.Flags().StringVar(&secret, "secret", "", "API secret (default $CF_API_SECRET)")
	loginCmd.Flags().StringVar(&password, "password", "", "website password (default $CF_PASSWORD)")
	loginCmd.Flags().BoolVar(&save, "save", false, "write the credentials to the env file")
	loginCmd.Flags().BoolVar(&web, "web", false, "also log in to the website and save the session")
	return loginCmd
}

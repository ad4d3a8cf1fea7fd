// Package cli implements haymanhctl, a command-line client for the
// opportunities API.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/haymanh/success/internal/client"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Environment variables consulted when the matching flag is not set.
const (
	EnvAPIURL   = "HAYMANH_API_URL"
	EnvEmail    = "HAYMANH_EMAIL"
	EnvPassword = "HAYMANH_PASSWORD"
)

const defaultAPIURL = "http://localhost:8080"

// options holds the persistent flags shared by every subcommand.
type options struct {
	apiURL       string
	email        string
	password     string
	timeout      time.Duration
	refreshDelay time.Duration
	verbose      bool

	logger *zap.Logger
}

// NewRootCmd builds the haymanhctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "haymanhctl",
		Short: "Browse opportunities and manage your selections",
		Long: `haymanhctl talks to the opportunities API.

It lists opportunities with the same filters the web listing offers and
manages the signed-in user's selected opportunities, keeping a local copy
in step with the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			return opts.complete()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.apiURL, "api", "", "API base URL (default $"+EnvAPIURL+" or "+defaultAPIURL+")")
	pf.StringVar(&opts.email, "email", "", "account email (default $"+EnvEmail+")")
	pf.StringVar(&opts.password, "password", "", "account password (default $"+EnvPassword+")")
	pf.DurationVar(&opts.timeout, "timeout", 15*time.Second, "per-request timeout")
	pf.DurationVar(&opts.refreshDelay, "refresh-delay", time.Second, "pause before re-reading selections after a change")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newOpportunitiesCmd(opts))
	rootCmd.AddCommand(newSelectionsCmd(opts))
	return rootCmd
}

// complete fills unset flags from the environment and builds the logger.
func (o *options) complete() (err error) {
	if o.apiURL == "" {
		o.apiURL = os.Getenv(EnvAPIURL)
	}
	if o.apiURL == "" {
		o.apiURL = defaultAPIURL
	}
	if o.email == "" {
		o.email = os.Getenv(EnvEmail)
	}
	if o.password == "" {
		o.password = os.Getenv(EnvPassword)
	}

	if o.verbose {
		o.logger, err = zap.NewDevelopment()
		if err != nil {
			return errors.Wrap(err, "failed to create logger")
		}
	} else {
		o.logger = zap.NewNop()
	}
	return nil
}

func (o *options) newClient() (c *client.Client, err error) {
	c, err = client.New(o.apiURL, client.WithTimeout(o.timeout))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create API client")
	}
	return c, nil
}

// signedInClient logs in with the configured credentials.
func (o *options) signedInClient(ctx context.Context) (c *client.Client, err error) {
	if o.email == "" || o.password == "" {
		return nil, errors.Errorf("credentials required: set --email/--password or $%s/$%s", EnvEmail, EnvPassword)
	}
	c, err = o.newClient()
	if err != nil {
		return nil, err
	}
	if err = c.Login(ctx, o.email, o.password); err != nil {
		return nil, err
	}
	o.logger.Debug("signed in", zap.String("email", o.email))
	return c, nil
}

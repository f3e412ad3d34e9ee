package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/admin"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

type cliOptions struct {
	apiURL         string
	output         string
	timeoutSeconds int
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		apiURL:         "http://" + domain.DefaultAdminListenAddress,
		output:         outputTable,
		timeoutSeconds: 30,
	}

	root := &cobra.Command{
		Use:   "mcpregctl",
		Short: "CLI client for the mcpreg admin API",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch opts.output {
			case outputTable, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want table, json or yaml)", opts.output)
			}
		},
	}

	// Accept underscore spellings like --include_disabled.
	root.PersistentFlags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	root.PersistentFlags().StringVar(&opts.apiURL, "api", opts.apiURL, "base URL of the admin API")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", opts.output, "output format: table, json or yaml")
	root.PersistentFlags().IntVar(&opts.timeoutSeconds, "timeout", opts.timeoutSeconds, "request timeout in seconds")

	root.AddCommand(
		newServersCmd(&opts),
		newToolsCmd(&opts),
		newRefreshCmd(&opts),
		newStatusCmd(&opts),
		newAnalyticsCmd(&opts),
		newSchemaCmd(&opts),
		newRegistryCmd(&opts),
		newExecutionsCmd(&opts),
		newDispatchCmd(&opts),
	)

	return root
}

func (o *cliOptions) client() *admin.Client {
	return admin.NewClient(o.apiURL, admin.ClientOptions{})
}

func (o *cliOptions) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(o.timeoutSeconds)*time.Second)
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newToolsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and pin server tool subsets",
	}
	cmd.AddCommand(
		newToolsListCmd(opts),
		newToolsSetCmd(opts),
	)
	return cmd
}

func newToolsListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <server>",
		Short: "List a server's tools and the enabled subset",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			listing, err := opts.client().ListTools(ctx, args[0])
			if err != nil {
				return err
			}
			return printValue(opts, listing, func() error {
				for _, tool := range listing.Tools {
					fmt.Printf("%-24s %-9s %s\n", tool.Name, enabledMark(tool.Enabled), tool.Description)
				}
				fmt.Printf("enabled: %s\n", strings.Join(listing.EnabledTools, ", "))
				return nil
			})
		},
	}
}

func newToolsSetCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <server> <tool>...",
		Short: "Pin the enabled tool subset for a server",
		Long: "Pin the enabled tool subset for a server. Passing no tools pins an " +
			"empty subset, which disables every tool on the server.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			tools := args[1:]
			if tools == nil {
				tools = []string{}
			}
			listing, err := opts.client().UpdateEnabledTools(ctx, args[0], tools)
			if err != nil {
				return err
			}
			return printValue(opts, listing, func() error {
				fmt.Printf("%s enabled tools: %s\n", listing.Server, strings.Join(listing.EnabledTools, ", "))
				return nil
			})
		},
	}
}

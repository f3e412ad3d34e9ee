package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mcpreg/internal/infra/admin"
)

func newServersCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage registered MCP servers",
	}
	cmd.AddCommand(
		newServersListCmd(opts),
		newServersAddCmd(opts),
		newServersRemoveCmd(opts),
		newServersEnableCmd(opts),
		newServersDisableCmd(opts),
		newServersShowCmd(opts),
		newServersProbeCmd(opts),
	)
	return cmd
}

func newServersProbeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <name>",
		Short: "Fetch a server's live tool catalog and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			resp, err := opts.client().ProbeServer(ctx, args[0])
			if err != nil {
				return err
			}
			return printValue(opts, resp, func() error {
				fmt.Printf("%s: %d tools discovered\n", resp.Server, len(resp.Tools))
				for _, tool := range resp.Tools {
					fmt.Printf("  %-24s params=%-3d %s\n", tool.Name, tool.ParameterCount, tool.Description)
				}
				return nil
			})
		},
	}
}

func newServersListCmd(opts *cliOptions) *cobra.Command {
	var includeDisabled bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List servers",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			servers, err := opts.client().ListServers(ctx, includeDisabled)
			if err != nil {
				return err
			}
			return printValue(opts, servers, func() error {
				if len(servers) == 0 {
					fmt.Println("no servers registered")
					return nil
				}
				for _, server := range servers {
					fmt.Printf("%-20s %-9s tools=%-3d %s\n",
						server.Name, enabledMark(server.Enabled), len(server.AvailableTools), server.URL)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&includeDisabled, "include-disabled", false, "include disabled servers")
	return cmd
}

func newServersAddCmd(opts *cliOptions) *cobra.Command {
	var (
		serverURL   string
		description string
		tags        []string
		disabled    bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			req := admin.AddServerRequest{
				Name:        args[0],
				URL:         serverURL,
				Description: description,
				Tags:        tags,
			}
			if disabled {
				enabled := false
				req.Enabled = &enabled
			}

			record, err := opts.client().AddServer(ctx, req)
			if err != nil {
				return err
			}
			return printValue(opts, record, func() error {
				fmt.Printf("added %s (%s)\n", record.Name, enabledMark(record.Enabled))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&serverURL, "url", "", "server endpoint URL")
	cmd.Flags().StringVar(&description, "description", "", "server description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "server tag (repeatable)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "register the server disabled")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newServersRemoveCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			if err := opts.client().RemoveServer(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", args[0])
			return nil
		},
	}
}

func newServersEnableCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			record, err := opts.client().EnableServer(ctx, args[0])
			if err != nil {
				return err
			}
			return printValue(opts, record, func() error {
				fmt.Printf("%s is now %s\n", record.Name, enabledMark(record.Enabled))
				return nil
			})
		},
	}
}

func newServersDisableCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			record, err := opts.client().DisableServer(ctx, args[0])
			if err != nil {
				return err
			}
			return printValue(opts, record, func() error {
				fmt.Printf("%s is now %s\n", record.Name, enabledMark(record.Enabled))
				return nil
			})
		},
	}
}

func newServersShowCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show server details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			detail, err := opts.client().ServerDetail(ctx, args[0])
			if err != nil {
				return err
			}
			return printValue(opts, detail, func() error {
				fmt.Printf("%s (%s)\n", detail.Name, detail.Status)
				fmt.Printf("  url:         %s\n", detail.URL)
				if detail.Description != "" {
					fmt.Printf("  description: %s\n", detail.Description)
				}
				if len(detail.Tags) > 0 {
					fmt.Printf("  tags:        %s\n", strings.Join(detail.Tags, ", "))
				}
				fmt.Printf("  tools:       %d\n", detail.ToolsCount)
				for _, tool := range detail.Tools {
					fmt.Printf("    %-24s %-9s params=%d\n", tool.Name, enabledMark(tool.Enabled), tool.ParameterCount)
				}
				return nil
			})
		},
	}
}

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"mcpreg/internal/infra/admin"
)

func newRefreshCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the server catalog from the remote registry",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			resp, err := opts.client().Refresh(ctx)
			if err != nil {
				return err
			}
			return printValue(opts, resp, func() error {
				fmt.Println(resp.Message)
				return nil
			})
		},
	}
}

func newStatusCmd(opts *cliOptions) *cobra.Command {
	var includeDisabled bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show registry status",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			report, err := opts.client().Status(ctx, includeDisabled)
			if err != nil {
				return err
			}
			return printValue(opts, report, func() error {
				fmt.Printf("system:   %s\n", report.SystemStatus)
				fmt.Printf("servers:  %d total, %d enabled, %d disabled\n",
					report.TotalServers, report.EnabledServers, report.DisabledServers)
				fmt.Printf("tools:    %d\n", report.TotalTools)
				names := make([]string, 0, len(report.Servers))
				for name := range report.Servers {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					server := report.Servers[name]
					fmt.Printf("  %-20s %-9s tools=%d\n", server.Name, enabledMark(server.Enabled), server.ToolsCount)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&includeDisabled, "include-disabled", false, "include disabled servers in per-server stats")
	return cmd
}

func newAnalyticsCmd(opts *cliOptions) *cobra.Command {
	var includeDisabled bool

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show tool and tag analytics",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			report, err := opts.client().Analytics(ctx, includeDisabled)
			if err != nil {
				return err
			}
			return printValue(opts, report, func() error {
				fmt.Printf("servers: %d total, %d enabled\n",
					report.Overview.TotalServers, report.Overview.EnabledServers)
				fmt.Printf("tools:   %d total, %d unique\n",
					report.Overview.TotalTools, report.Overview.UniqueTools)
				fmt.Println("top tools:")
				for _, tool := range report.TopTools {
					fmt.Printf("  %-24s servers=%d\n", tool.Name, tool.ServerCount)
				}
				fmt.Println("popular tags:")
				for _, tag := range report.PopularTags {
					fmt.Printf("  %-24s servers=%d\n", tag.Tag, tag.ServerCount)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&includeDisabled, "include-disabled", false, "include disabled servers")
	return cmd
}

func newSchemaCmd(opts *cliOptions) *cobra.Command {
	var (
		serverName      string
		toolName        string
		includeExamples bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export tool schemas for agent consumption",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			report, err := opts.client().Schema(ctx, admin.SchemaQuery{
				ServerName:      serverName,
				ToolName:        toolName,
				IncludeExamples: includeExamples,
			})
			if err != nil {
				return err
			}
			return printValue(opts, report, func() error {
				fmt.Printf("%d tools across %d servers\n", report.TotalTools, len(report.AvailableServers))
				for _, name := range report.AvailableServers {
					for _, tool := range report.Servers[name].Tools {
						fmt.Printf("  %-40s %s\n", tool.FullName, enabledMark(tool.Enabled))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&serverName, "server", "", "limit to one server")
	cmd.Flags().StringVar(&toolName, "tool", "", "limit to one tool")
	cmd.Flags().BoolVar(&includeExamples, "examples", false, "include usage examples")
	return cmd
}

func newRegistryCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect or change the remote registry endpoint",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the registry configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			config, err := opts.client().RegistryConfig(ctx)
			if err != nil {
				return err
			}
			return printValue(opts, config, func() error {
				fmt.Printf("url:              %s\n", config.URL)
				fmt.Printf("auto refresh:     %v\n", config.AutoRefresh)
				fmt.Printf("refresh interval: %ds\n", config.RefreshIntervalSeconds)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-url <url>",
		Short: "Point the daemon at a different registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			config, err := opts.client().SetRegistryURL(ctx, args[0])
			if err != nil {
				return err
			}
			return printValue(opts, config, func() error {
				fmt.Printf("registry url set to %s\n", config.URL)
				return nil
			})
		},
	})

	return cmd
}

func newExecutionsCmd(opts *cliOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "executions",
		Short: "Show recent tool executions",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			records, err := opts.client().Executions(ctx, limit)
			if err != nil {
				return err
			}
			return printValue(opts, records, func() error {
				if len(records) == 0 {
					fmt.Println("no executions recorded")
					return nil
				}
				for _, record := range records {
					status := "ok"
					if !record.Success {
						status = string(record.ErrorCode)
					}
					fmt.Printf("%s  %-20s %-24s %-20s %4dms\n",
						record.StartedAt.Format("2006-01-02 15:04:05"),
						record.Server, record.Tool, status, record.DurationMs)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to return")
	return cmd
}

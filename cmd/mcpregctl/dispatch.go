package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"mcpreg/internal/domain"
)

func newDispatchCmd(opts *cliOptions) *cobra.Command {
	var (
		arguments string
		validate  bool
		callerID  string
	)

	cmd := &cobra.Command{
		Use:   "dispatch <server> <tool>",
		Short: "Execute a tool through the dispatcher",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext()
			defer cancel()

			result, err := opts.client().Dispatch(ctx, domain.DispatchRequest{
				ServerName:   args[0],
				ToolName:     args[1],
				Arguments:    arguments,
				ValidateArgs: validate,
				CallerID:     callerID,
			})
			if err != nil {
				return err
			}
			return printValue(opts, result, func() error {
				if !result.Success {
					fmt.Printf("dispatch failed (%s): %s\n", result.ErrorCode, result.Message)
					return nil
				}
				fmt.Printf("%s.%s completed in %dms\n", result.Server, result.Tool, result.DurationMs)
				payload, err := json.MarshalIndent(result.Result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(payload))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&arguments, "args", "", "tool arguments as a JSON object")
	cmd.Flags().BoolVar(&validate, "validate", true, "validate arguments against the tool schema")
	cmd.Flags().StringVar(&callerID, "caller", "", "caller identifier recorded with the execution")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// printValue renders value per the selected output format. The table
// function handles the human-readable default.
func printValue(opts *cliOptions, value any, table func() error) error {
	switch opts.output {
	case outputJSON:
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case outputYAML:
		data, err := yaml.Marshal(value)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	default:
		return table()
	}
}

func enabledMark(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"objrw/internal/driver"
)

var preambleCmd = &cobra.Command{
	Use:   "preamble",
	Short: "Print the runtime preamble placed at the top of every output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		header, err := cmd.Flags().GetBool("header")
		if err != nil {
			return fmt.Errorf("failed to get header flag: %w", err)
		}
		ms := current.cfg.Rewrite.MSExtensions
		if cmd.Flags().Changed("ms-extensions") {
			if ms, err = cmd.Flags().GetBool("ms-extensions"); err != nil {
				return fmt.Errorf("failed to get ms-extensions flag: %w", err)
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), driver.Preamble(driver.PreambleOptions{Header: header, MSExtensions: ms}))
		return nil
	},
}

func init() {
	preambleCmd.Flags().Bool("header", false, "header variant (#pragma once)")
	preambleCmd.Flags().Bool("ms-extensions", true, "MS-extensions variant")
}

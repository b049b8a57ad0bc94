// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the nodegroup CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodegroup",
		Short: "Provision and tear down tagged groups of EC2 instances",
	}

	cmd.AddCommand(Run())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Nodes())
	cmd.AddCommand(Version())

	return cmd
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/myorg/nodegroup/cmd/nodegroup/handlers"
)

// Run returns the run command.
//
// The run command provisions a tagged group of instances. Shared resources
// (key pair, security group) are created on first use and reused by later
// runs for the same tag.
func Run() *cobra.Command {
	var (
		configPath string
		count      int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision nodes under a group tag",
		Long: `Run provisions a group of EC2 instances under a shared tag.

On first use for a tag, a key pair and a security group named after the
tag are created; later runs for the same tag reuse them. Each node is
launched, awaited until running, and configured over SSH with the
template's bootstrap script. Nodes whose configuration fails are
terminated and replaced with fresh capacity.

Example:
  nodegroup run -c nodegroup.yaml -n 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), configPath, count)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to group configuration file (required)")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of nodes to provision")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

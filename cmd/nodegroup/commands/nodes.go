package commands

import (
	"github.com/spf13/cobra"

	"github.com/myorg/nodegroup/cmd/nodegroup/handlers"
)

// Nodes returns the nodes command.
func Nodes() *cobra.Command {
	var (
		configPath string
		allGroups  bool
	)

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the nodes of a group",
		Long: `Nodes lists the instances of the configured group with their
current state and addresses. With --all, nodes of every group across the
supported regions are listed.

Example:
  nodegroup nodes -c nodegroup.yaml
  nodegroup nodes -c nodegroup.yaml --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Nodes(cmd.Context(), configPath, allGroups)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to group configuration file (required)")
	cmd.Flags().BoolVar(&allGroups, "all", false, "List nodes of all groups")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/myorg/nodegroup/cmd/nodegroup/handlers"
)

// Destroy returns the destroy command.
//
// The destroy command terminates every node of a group and, once the last
// one is confirmed terminated, deletes the group's shared key pair and
// security group.
func Destroy() *cobra.Command {
	var (
		configPath string
		nodeID     string
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy all nodes of a group and their shared resources",
		Long: `Destroy terminates every instance carrying the group tag, or a
single instance when --node is given.

Termination is confirmed against the provider before shared resources are
touched. When the last node of the group reaches terminated state, the
group's security group and key pair are deleted as well.

Example:
  nodegroup destroy -c nodegroup.yaml
  nodegroup destroy -c nodegroup.yaml --node i-0123456789abcdef0

WARNING: This operation is irreversible. All group nodes will be lost.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if nodeID != "" {
				return handlers.DestroyOne(cmd.Context(), configPath, nodeID)
			}
			return handlers.Destroy(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to group configuration file (required)")
	cmd.Flags().StringVar(&nodeID, "node", "", "Destroy only the node with this instance id")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

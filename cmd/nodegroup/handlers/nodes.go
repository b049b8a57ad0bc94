package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/myorg/nodegroup/internal/compute"
)

// Nodes handles the nodes command.
//
// It lists the nodes of the configured group, or of every group when
// allGroups is set, and renders them as a table.
func Nodes(ctx context.Context, configPath string, allGroups bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if !allGroups {
		if err := requireTag(cfg); err != nil {
			return err
		}
	}

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}

	var nodes []compute.NodeMetadata
	if allGroups {
		nodes, err = svc.ListNodes(ctx)
	} else {
		nodes, err = svc.NodesWithTag(ctx, cfg.Tag)
	}
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}

	fmt.Fprint(os.Stdout, renderNodesTable(nodes))
	return nil
}

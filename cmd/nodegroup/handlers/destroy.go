package handlers

import (
	"context"
	"fmt"
	"log"
)

// Destroy handles the destroy command.
//
// It terminates every node of the configured group and waits for the
// provider to confirm. Deleting the group's shared key pair and security
// group happens automatically once the last node is gone.
func Destroy(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := requireTag(cfg); err != nil {
		return err
	}

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}

	log.Printf("Destroying group: %s", cfg.Tag)

	destroyed, err := svc.DestroyNodesWithTag(ctx, cfg.Tag)
	if err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}
	if len(destroyed) == 0 {
		log.Printf("Group %s has no live nodes", cfg.Tag)
		return nil
	}

	log.Printf("Group %s destroyed: %d node(s) terminated", cfg.Tag, len(destroyed))
	return nil
}

// DestroyOne handles destroy with an explicit node id. The group's shared
// resources are still deleted if this was the group's last node.
func DestroyOne(ctx context.Context, configPath, nodeID string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}

	node, err := svc.GetNodeMetadata(ctx, nodeID)
	if err != nil {
		return err
	}

	log.Printf("Destroying node %s (group %s)", node.ID, node.Tag)
	if err := svc.DestroyNode(ctx, node); err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}
	log.Printf("Node %s terminated", node.ID)
	return nil
}

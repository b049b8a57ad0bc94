package handlers

import (
	"context"
	"fmt"
	"log"
)

// Run handles the run command.
//
// It loads the group configuration, provisions count nodes under the
// configured tag and prints the resulting group.
func Run(ctx context.Context, configPath string, count int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := requireTag(cfg); err != nil {
		return err
	}
	if cfg.Template.Image == "" {
		return fmt.Errorf("configuration must set a template image")
	}

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}

	log.Printf("Provisioning %d node(s) under tag %s", count, cfg.Tag)

	nodes, err := svc.RunNodesWithTag(ctx, cfg.Tag, count, templateFromConfig(cfg))
	if err != nil {
		// Report the partial group before surfacing the failure.
		if len(nodes) > 0 {
			log.Printf("%d node(s) reached running and configured before the failure", len(nodes))
		}
		return fmt.Errorf("provisioning failed: %w", err)
	}

	for _, node := range nodes {
		log.Printf("Node %s running at %s", node.ID, node.PublicIP)
	}
	log.Printf("Group %s: %d node(s) provisioned", cfg.Tag, len(nodes))
	return nil
}

package compute

import (
	"context"
	"fmt"

	"github.com/myorg/nodegroup/internal/catalog"
	"github.com/myorg/nodegroup/internal/config"
	"github.com/myorg/nodegroup/internal/ec2"
	"github.com/myorg/nodegroup/internal/util/async"
)

// Service is the portable surface for tagged node groups. It holds the only
// mutable shared state of the orchestrator: the registries mapping a group
// key to its ancillary resources for the lifetime of the process.
type Service struct {
	client       ec2.Client
	catalog      *catalog.Catalog
	timeouts     *config.Timeouts
	configurator Configurator
	observer     Observer
	regions      []string

	credentials    *Registry[RegionTag, Credentials]
	securityGroups *Registry[PortsRegionTag, string]
	waiter         *StateWaiter
}

// New creates a Service. A nil configurator defaults to SSH bootstrap, a
// nil observer to console logging, nil regions to the supported set.
func New(client ec2.Client, cat *catalog.Catalog, timeouts *config.Timeouts, configurator Configurator, observer Observer, regions []string) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	if timeouts == nil {
		timeouts = config.LoadTimeouts()
	}
	if configurator == nil {
		configurator = NewSSHConfigurator()
	}
	if observer == nil {
		observer = NewConsoleObserver()
	}
	if len(regions) == 0 {
		regions = catalog.SupportedRegions
	}
	return &Service{
		client:         client,
		catalog:        cat,
		timeouts:       timeouts,
		configurator:   configurator,
		observer:       observer,
		regions:        regions,
		credentials:    NewRegistry[RegionTag, Credentials](),
		securityGroups: NewRegistry[PortsRegionTag, string](),
		waiter:         NewStateWaiter(client, timeouts.RunningMaxAttempts, timeouts.RunningPollPeriod),
	}
}

// GetNodeMetadata returns the node with the given id. Exactly one instance
// must match across the supported regions.
func (s *Service) GetNodeMetadata(ctx context.Context, id string) (NodeMetadata, error) {
	var matches []NodeMetadata
	for _, region := range s.regions {
		instances, err := s.client.DescribeInstances(ctx, region, id)
		if err != nil {
			return NodeMetadata{}, fmt.Errorf("failed to look up node %s in %s: %w", id, region, err)
		}
		for _, inst := range instances {
			matches = append(matches, nodeFromInstance(inst))
		}
	}

	switch len(matches) {
	case 0:
		return NodeMetadata{}, fmt.Errorf("no instance found for id %s", id)
	case 1:
		return matches[0], nil
	default:
		return NodeMetadata{}, fmt.Errorf("expected exactly one instance for id %s, found %d", id, len(matches))
	}
}

// ListNodes returns all known nodes across the supported regions.
func (s *Service) ListNodes(ctx context.Context) ([]NodeMetadata, error) {
	results := async.Collect(ctx, s.regions, func(ctx context.Context, region string) ([]NodeMetadata, error) {
		instances, err := s.client.DescribeAllInstances(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("failed to list nodes in %s: %w", region, err)
		}
		nodes := make([]NodeMetadata, 0, len(instances))
		for _, inst := range instances {
			nodes = append(nodes, nodeFromInstance(inst))
		}
		return nodes, nil
	})

	var all []NodeMetadata
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		all = append(all, r.Value...)
	}
	return all, nil
}

// NodesWithTag returns all nodes of a group across the supported regions,
// terminated ones included.
func (s *Service) NodesWithTag(ctx context.Context, tag string) ([]NodeMetadata, error) {
	var all []NodeMetadata
	for _, region := range s.regions {
		instances, err := s.client.DescribeInstancesByTag(ctx, region, tag)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate tag %s in %s: %w", tag, region, err)
		}
		for _, inst := range instances {
			all = append(all, nodeFromInstance(inst))
		}
	}
	return all, nil
}

// CredentialsFor returns the registered credential of a group, if the
// process created or loaded one.
func (s *Service) CredentialsFor(region, tag string) (Credentials, bool) {
	return s.credentials.Get(RegionTag{Region: region, Tag: tag})
}

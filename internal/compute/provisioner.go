package compute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/myorg/nodegroup/internal/ec2"
	"github.com/myorg/nodegroup/internal/util/async"
	"github.com/myorg/nodegroup/internal/util/naming"
)

// ErrLaunchCyclesExhausted reports that the shortfall-relaunch budget ran
// out before the requested node count was reached. The nodes provisioned so
// far are still returned alongside it.
var ErrLaunchCyclesExhausted = errors.New("launch cycle budget exhausted")

// RunNodesWithTag provisions count nodes under the given group tag and
// returns them keyed by instance id, every one running and configured.
//
// Shared ancillary resources are resolved first: the group's key pair for
// (region, tag) and its security group for (region, tag, inbound ports),
// each created at most once per key for the process lifetime. Launching
// then loops: request the outstanding count, wait for running state,
// configure each running node concurrently, tear down configuration
// failures and relaunch the shortfall with fresh capacity. A node that
// fails to configure is never retried in place.
func (s *Service) RunNodesWithTag(ctx context.Context, tag string, count int, tpl Template) (map[string]NodeMetadata, error) {
	if err := naming.ValidateTag(tag); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	placement, err := s.catalog.ResolvePlacement(tpl.Location)
	if err != nil {
		return nil, err
	}
	instanceType, err := s.catalog.ResolveInstanceType(tpl.Size)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	defer func() {
		provisionDuration.WithLabelValues(tag).Observe(time.Since(started).Seconds())
	}()

	creds, err := s.ensureCredentials(ctx, placement.Region, tag)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSecurityGroup(ctx, placement.Region, tag, tpl.Options.InboundPorts); err != nil {
		return nil, err
	}

	nodes := make(map[string]NodeMetadata, count)
	outstanding := count

	for cycle := 1; outstanding > 0; cycle++ {
		if cycle > s.timeouts.MaxLaunchCycles {
			return nodes, fmt.Errorf("%w: %d of %d node(s) after %d cycles",
				ErrLaunchCyclesExhausted, len(nodes), count, s.timeouts.MaxLaunchCycles)
		}
		launchCyclesTotal.WithLabelValues(tag).Inc()
		s.observer.Event(Event{
			Type: EventCycleStarted, Tag: tag,
			Message: fmt.Sprintf("launching %d instance(s)", outstanding),
			Fields:  map[string]string{"cycle": fmt.Sprint(cycle), "region": placement.Region},
		})

		configured, err := s.launchCycle(ctx, tag, outstanding, placement.Region, placement.Zone, instanceType, tpl, creds)
		if err != nil {
			return nodes, err
		}
		for id, node := range configured {
			nodes[id] = node
		}
		outstanding = count - len(nodes)

		s.observer.Event(Event{
			Type: EventCycleCompleted, Tag: tag,
			Message: fmt.Sprintf("%d of %d node(s) ready", len(nodes), count),
		})
	}

	return nodes, nil
}

// launchCycle runs one launch-wait-configure round and returns the nodes
// that made it all the way to configured.
func (s *Service) launchCycle(ctx context.Context, tag string, want int, region, zone, instanceType string, tpl Template, creds Credentials) (map[string]NodeMetadata, error) {
	launched, err := s.client.RunInstances(ctx, ec2.LaunchSpec{
		Region:        region,
		Zone:          zone,
		ImageID:       tpl.Image,
		InstanceType:  instanceType,
		KeyName:       creds.KeyName,
		SecurityGroup: naming.SecurityGroup(tag),
		GroupTag:      tag,
		MinCount:      1,
		MaxCount:      want,
	})
	if err != nil {
		return nil, fmt.Errorf("launch failed for tag %s: %w", tag, err)
	}

	ids := make([]string, len(launched))
	for i, inst := range launched {
		ids[i] = inst.ID
	}

	// A wait that merely exhausts its budget is recoverable: instances that
	// did reach running are still configured, the rest become shortfall.
	if _, err := s.waiter.Await(ctx, region, NodeRunning, ids...); err != nil && !errors.Is(err, ErrWaitExhausted) {
		return nil, err
	}

	// One consistent snapshot for the whole fan-out.
	described, err := s.client.DescribeInstances(ctx, region, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to describe launched instances: %w", err)
	}

	var running []ec2.Instance
	for _, inst := range described {
		if nodeStateFrom(inst.State) == NodeRunning {
			running = append(running, inst)
		}
	}

	results := async.Collect(ctx, running, func(ctx context.Context, inst ec2.Instance) (NodeMetadata, error) {
		node := nodeFromInstance(inst)
		s.observer.Event(Event{Type: EventNodeRunning, Tag: tag, Resource: node.ID, Message: "running"})

		if err := s.configurator.Configure(ctx, node, creds, tpl.Options); err != nil {
			configureFailuresTotal.WithLabelValues(tag).Inc()
			s.observer.Event(Event{
				Type: EventNodeConfigureFailed, Tag: tag, Resource: node.ID,
				Message: err.Error(),
			})
			if destroyErr := s.DestroyNode(ctx, node); destroyErr != nil {
				s.observer.Event(Event{
					Type: EventNodeConfigureFailed, Tag: tag, Resource: node.ID,
					Message: fmt.Sprintf("teardown after failed configure: %v", destroyErr),
				})
			}
			return NodeMetadata{}, err
		}

		s.observer.Event(Event{Type: EventNodeConfigured, Tag: tag, Resource: node.ID, Message: "configured"})
		return node, nil
	})

	configured := make(map[string]NodeMetadata, len(results))
	for _, r := range results {
		if r.Err == nil {
			nodesProvisionedTotal.WithLabelValues(tag).Inc()
			configured[r.Value.ID] = r.Value
		}
	}
	return configured, nil
}

// ensureCredentials resolves or creates the group's shared key pair.
func (s *Service) ensureCredentials(ctx context.Context, region, tag string) (Credentials, error) {
	key := RegionTag{Region: region, Tag: tag}
	return s.credentials.GetOrCreate(ctx, key, func(ctx context.Context) (Credentials, error) {
		name := naming.KeyPair(tag)

		existing, err := s.client.DescribeKeyPair(ctx, region, name)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to check key pair %s: %w", name, err)
		}
		if existing != nil {
			// Reuse the provider-side key pair. Its private material is not
			// recoverable, so bootstrap over SSH only works for groups this
			// process created.
			s.observer.Event(Event{Type: EventResourceReused, Tag: tag, Resource: name, Message: "key pair"})
			return Credentials{KeyName: existing.Name}, nil
		}

		created, err := s.client.CreateKeyPair(ctx, region, name)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to create key pair %s: %w", name, err)
		}
		s.observer.Event(Event{Type: EventResourceCreated, Tag: tag, Resource: name, Message: "key pair"})
		return Credentials{KeyName: created.Name, Material: created.Material}, nil
	})
}

// ensureSecurityGroup resolves or creates the group's shared security group
// for the requested inbound port set.
func (s *Service) ensureSecurityGroup(ctx context.Context, region, tag string, ports []int) error {
	key := NewPortsRegionTag(region, tag, ports)
	_, err := s.securityGroups.GetOrCreate(ctx, key, func(ctx context.Context) (string, error) {
		name := naming.SecurityGroup(tag)

		existing, err := s.client.DescribeSecurityGroup(ctx, region, name)
		if err != nil {
			return "", fmt.Errorf("failed to check security group %s: %w", name, err)
		}
		if existing != nil {
			s.observer.Event(Event{Type: EventResourceReused, Tag: tag, Resource: name, Message: "security group"})
			return existing.ID, nil
		}

		id, err := s.client.CreateSecurityGroup(ctx, region, name,
			fmt.Sprintf("node group %s", tag), ports)
		if err != nil {
			return "", fmt.Errorf("failed to create security group %s: %w", name, err)
		}
		s.observer.Event(Event{Type: EventResourceCreated, Tag: tag, Resource: name, Message: "security group"})
		return id, nil
	})
	return err
}

package compute

import (
	"context"
	"errors"
	"fmt"

	"github.com/myorg/nodegroup/internal/ec2"
	"github.com/myorg/nodegroup/internal/util/async"
	"github.com/myorg/nodegroup/internal/util/naming"
	"github.com/myorg/nodegroup/internal/util/retry"
)

// DestroyNode terminates the node, waits for the provider to confirm
// termination, and when it was the last node of its group deletes the
// group's security group and key pair. Destroying an already-terminated or
// unknown node is not an error; the cascade check still runs so a crashed
// earlier teardown can be completed by re-running it.
func (s *Service) DestroyNode(ctx context.Context, node NodeMetadata) error {
	if err := s.terminateAndConfirm(ctx, node); err != nil {
		return err
	}
	return s.cascadeIfLast(ctx, node.Region, node.Tag)
}

// DestroyNodesWithTag destroys every node of the group across all
// configured regions. Per-node failures are collected; the cascade runs in
// each node's own DestroyNode, so concurrent callers race benignly on it.
func (s *Service) DestroyNodesWithTag(ctx context.Context, tag string) ([]NodeMetadata, error) {
	if err := naming.ValidateTag(tag); err != nil {
		return nil, err
	}

	nodes, err := s.NodesWithTag(ctx, tag)
	if err != nil {
		return nil, err
	}

	tasks := make([]async.Task, 0, len(nodes))
	destroyed := make([]NodeMetadata, 0, len(nodes))
	for _, node := range nodes {
		if node.State == NodeTerminated {
			continue
		}
		node := node
		destroyed = append(destroyed, node)
		tasks = append(tasks, async.Task{
			Name: node.ID,
			Func: func(ctx context.Context) error { return s.DestroyNode(ctx, node) },
		})
	}
	if err := async.RunParallel(ctx, tasks); err != nil {
		return destroyed, err
	}
	return destroyed, nil
}

// terminateAndConfirm issues the terminate call and polls until the
// provider reports the instance terminated (or gone). Terminate is
// re-issued when a poll still shows the instance outside the shutdown
// path, which covers requests the provider silently dropped.
func (s *Service) terminateAndConfirm(ctx context.Context, node NodeMetadata) error {
	described, err := s.client.DescribeInstances(ctx, node.Region, node.ID)
	if err != nil {
		return fmt.Errorf("failed to describe node %s: %w", node.ID, err)
	}
	if len(described) == 0 || nodeStateFrom(described[0].State) == NodeTerminated {
		return nil
	}

	if err := s.client.TerminateInstances(ctx, node.Region, node.ID); err != nil {
		return fmt.Errorf("failed to terminate node %s: %w", node.ID, err)
	}

	err = retry.Do(ctx, func() error {
		described, err := s.client.DescribeInstances(ctx, node.Region, node.ID)
		if err != nil {
			return retry.Fatal(err)
		}
		if len(described) == 0 {
			return nil
		}
		inst := described[0]
		if inst.State == ec2.StateTerminated {
			return nil
		}
		if inst.State != ec2.StateShuttingDown {
			if err := s.client.TerminateInstances(ctx, node.Region, node.ID); err != nil {
				return retry.Fatal(err)
			}
		}
		return fmt.Errorf("node %s still %s", node.ID, inst.State)
	},
		retry.WithMaxAttempts(s.timeouts.TerminateMaxAttempts),
		retry.WithFixedInterval(s.timeouts.TerminatePollPeriod),
	)
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			return fmt.Errorf("node %s did not reach terminated: %w", node.ID, err)
		}
		return err
	}

	nodesTerminatedTotal.WithLabelValues(node.Tag).Inc()
	s.observer.Event(Event{Type: EventNodeTerminated, Tag: node.Tag, Resource: node.ID, Message: "terminated"})
	return nil
}

// cascadeIfLast deletes the group's security group and key pair when no
// live node carries the tag anymore. The delete calls tolerate absent
// resources, so concurrent cascades for the same group converge instead of
// failing each other.
func (s *Service) cascadeIfLast(ctx context.Context, region, tag string) error {
	if tag == "" {
		return nil
	}

	instances, err := s.client.DescribeInstancesByTag(ctx, region, tag)
	if err != nil {
		return fmt.Errorf("failed to list group %s: %w", tag, err)
	}
	for _, inst := range instances {
		if nodeStateFrom(inst.State) != NodeTerminated {
			return nil
		}
	}

	if err := s.deleteSecurityGroup(ctx, region, tag); err != nil {
		return err
	}
	return s.deleteKeyPair(ctx, region, tag)
}

func (s *Service) deleteSecurityGroup(ctx context.Context, region, tag string) error {
	name := naming.SecurityGroup(tag)
	existing, err := s.client.DescribeSecurityGroup(ctx, region, name)
	if err != nil {
		return fmt.Errorf("failed to check security group %s: %w", name, err)
	}
	if existing != nil {
		if err := s.client.DeleteSecurityGroup(ctx, region, name); err != nil {
			return fmt.Errorf("failed to delete security group %s: %w", name, err)
		}
		cascadeDeletionsTotal.WithLabelValues("security_group").Inc()
		s.observer.Event(Event{Type: EventResourceDeleted, Tag: tag, Resource: name, Message: "security group"})
	}
	s.securityGroups.RemoveMatching(func(k PortsRegionTag) bool { return k.SameGroup(region, tag) })
	return nil
}

func (s *Service) deleteKeyPair(ctx context.Context, region, tag string) error {
	name := naming.KeyPair(tag)
	existing, err := s.client.DescribeKeyPair(ctx, region, name)
	if err != nil {
		return fmt.Errorf("failed to check key pair %s: %w", name, err)
	}
	if existing != nil {
		if err := s.client.DeleteKeyPair(ctx, region, name); err != nil {
			return fmt.Errorf("failed to delete key pair %s: %w", name, err)
		}
		cascadeDeletionsTotal.WithLabelValues("key_pair").Inc()
		s.observer.Event(Event{Type: EventResourceDeleted, Tag: tag, Resource: name, Message: "key pair"})
	}
	s.credentials.Remove(RegionTag{Region: region, Tag: tag})
	return nil
}

// Package compute orchestrates tagged node groups: provisioning, post-boot
// configuration, teardown, and the lifecycle of the ancillary resources
// (key pair, security group) every group shares.
package compute

import (
	"sort"
	"strconv"
	"strings"

	"github.com/myorg/nodegroup/internal/ec2"
	"github.com/myorg/nodegroup/internal/util/naming"
)

// NodeState is the portable lifecycle state of a node.
type NodeState string

const (
	NodePending    NodeState = "pending"
	NodeRunning    NodeState = "running"
	NodeTerminated NodeState = "terminated"
	NodeUnknown    NodeState = "unknown"
)

// nodeStateFrom maps a raw EC2 state name onto the portable state, once, at
// the boundary.
func nodeStateFrom(raw string) NodeState {
	switch raw {
	case ec2.StatePending:
		return NodePending
	case ec2.StateRunning:
		return NodeRunning
	case ec2.StateShuttingDown:
		// termination requested but not yet confirmed
		return NodePending
	case ec2.StateTerminated:
		return NodeTerminated
	default:
		return NodeUnknown
	}
}

// NodeMetadata describes one provisioned node.
type NodeMetadata struct {
	ID           string
	Tag          string
	Region       string
	Zone         string
	State        NodeState
	PublicIP     string
	PrivateIP    string
	InstanceType string
	ImageID      string
	// KeyName references the group's shared credential; the credential is
	// owned by the registry, never by the node.
	KeyName string
}

// nodeFromInstance builds NodeMetadata from a provider descriptor. The
// owning tag comes from the group tag, falling back to the key pair name
// for instances launched before tagging settled.
func nodeFromInstance(inst ec2.Instance) NodeMetadata {
	tag := inst.GroupTag
	if tag == "" {
		tag = inst.KeyName
	}
	return NodeMetadata{
		ID:           inst.ID,
		Tag:          tag,
		Region:       inst.Region,
		Zone:         inst.Zone,
		State:        nodeStateFrom(inst.State),
		PublicIP:     inst.PublicIP,
		PrivateIP:    inst.PrivateIP,
		InstanceType: inst.InstanceType,
		ImageID:      inst.ImageID,
		KeyName:      inst.KeyName,
	}
}

// Name returns the node's display name following the group naming
// convention.
func (n NodeMetadata) Name() string {
	return naming.Node(n.Tag, n.ID)
}

// Template describes the nodes a provisioning call launches.
type Template struct {
	Location string
	Size     string
	Image    string
	Options  TemplateOptions
}

// TemplateOptions carries per-group launch options.
type TemplateOptions struct {
	InboundPorts    []int
	BootstrapScript string
	SSHUser         string
}

// Credentials is the shared access credential of one (region, tag) group.
type Credentials struct {
	KeyName  string
	Material string
}

// RegionTag keys the shared credential of a group.
type RegionTag struct {
	Region string
	Tag    string
}

// PortsRegionTag keys the shared security group of a group. Ports is the
// canonical encoding of the inbound port set, so equal sets compare equal
// regardless of the order they were requested in.
type PortsRegionTag struct {
	Region string
	Tag    string
	Ports  string
}

// NewPortsRegionTag canonicalizes the port set: sorted, deduplicated.
func NewPortsRegionTag(region, tag string, ports []int) PortsRegionTag {
	sorted := make([]int, 0, len(ports))
	seen := make(map[int]bool, len(ports))
	for _, p := range ports {
		if !seen[p] {
			seen[p] = true
			sorted = append(sorted, p)
		}
	}
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = strconv.Itoa(p)
	}
	return PortsRegionTag{Region: region, Tag: tag, Ports: strings.Join(parts, ",")}
}

// SameGroup reports whether the key belongs to (region, tag) regardless of
// its port set. Cascade deletion removes every port variant of a group.
func (k PortsRegionTag) SameGroup(region, tag string) bool {
	return k.Region == region && k.Tag == tag
}

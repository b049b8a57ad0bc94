// Package ec2 provides a wrapper around the AWS EC2 API.
package ec2

import (
	"context"
	"time"
)

// Instance state names as EC2 reports them.
const (
	StatePending      = "pending"
	StateRunning      = "running"
	StateShuttingDown = "shutting-down"
	StateTerminated   = "terminated"
)

// Instance is one EC2 instance as described by the provider.
type Instance struct {
	ID           string
	Region       string
	Zone         string
	State        string // raw EC2 state name: pending, running, shutting-down, terminated, ...
	KeyName      string
	GroupTag     string // value of the node-group tag, empty when untagged
	PublicIP     string
	PrivateIP    string
	InstanceType string
	ImageID      string
	LaunchedAt   time.Time
}

// LaunchSpec describes one RunInstances request.
type LaunchSpec struct {
	Region        string
	Zone          string // optional availability zone pin
	ImageID       string
	InstanceType  string
	KeyName       string
	SecurityGroup string
	GroupTag      string
	MinCount      int
	MaxCount      int
	UserData      string
}

// KeyPair is a provider key pair. Material is only populated on creation.
type KeyPair struct {
	Name        string
	Fingerprint string
	Material    string
}

// SecurityGroup is a provider security group.
type SecurityGroup struct {
	ID   string
	Name string
}

// InstanceAPI launches, describes and terminates instances.
// It abstracts the underlying cloud provider API.
type InstanceAPI interface {
	// RunInstances launches between MinCount and MaxCount instances and
	// returns the descriptors of the new reservation.
	RunInstances(ctx context.Context, spec LaunchSpec) ([]Instance, error)

	// DescribeInstances returns the current descriptor of each id. Unknown
	// ids are simply absent from the result.
	DescribeInstances(ctx context.Context, region string, ids ...string) ([]Instance, error)

	// DescribeInstancesByTag returns all instances carrying the node-group
	// tag in the region, regardless of state.
	DescribeInstancesByTag(ctx context.Context, region, tag string) ([]Instance, error)

	// DescribeAllInstances returns every instance in the region.
	DescribeAllInstances(ctx context.Context, region string) ([]Instance, error)

	// TerminateInstances requests termination of the given ids.
	TerminateInstances(ctx context.Context, region string, ids ...string) error
}

// KeyPairAPI manages key pairs.
type KeyPairAPI interface {
	// CreateKeyPair creates a key pair and returns it including the private
	// key material.
	CreateKeyPair(ctx context.Context, region, name string) (KeyPair, error)

	// DescribeKeyPair returns the named key pair, or nil when absent.
	DescribeKeyPair(ctx context.Context, region, name string) (*KeyPair, error)

	// DeleteKeyPair deletes the named key pair. Deleting an absent key pair
	// is not an error.
	DeleteKeyPair(ctx context.Context, region, name string) error
}

// SecurityGroupAPI manages security groups.
type SecurityGroupAPI interface {
	// CreateSecurityGroup creates a group and authorizes TCP ingress on the
	// given ports from anywhere. Returns the provider-assigned group id.
	CreateSecurityGroup(ctx context.Context, region, name, description string, ports []int) (string, error)

	// DescribeSecurityGroup returns the named group, or nil when absent.
	DescribeSecurityGroup(ctx context.Context, region, name string) (*SecurityGroup, error)

	// DeleteSecurityGroup deletes the named group. Deleting an absent group
	// is not an error.
	DeleteSecurityGroup(ctx context.Context, region, name string) error
}

// Client is the full provider boundary consumed by the orchestrator.
type Client interface {
	InstanceAPI
	KeyPairAPI
	SecurityGroupAPI
}

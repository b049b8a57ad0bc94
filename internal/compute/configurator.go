package compute

import (
	"context"
	"fmt"

	"github.com/myorg/nodegroup/internal/ssh"
)

// Configurator applies post-boot configuration to a single running node.
// Implementations must isolate failures: an error affects only the node it
// was reported for.
type Configurator interface {
	Configure(ctx context.Context, node NodeMetadata, creds Credentials, opts TemplateOptions) error
}

// ConfiguratorFunc adapts a function to the Configurator interface.
type ConfiguratorFunc func(ctx context.Context, node NodeMetadata, creds Credentials, opts TemplateOptions) error

func (f ConfiguratorFunc) Configure(ctx context.Context, node NodeMetadata, creds Credentials, opts TemplateOptions) error {
	return f(ctx, node, creds, opts)
}

// SSHConfigurator runs the template's bootstrap script on the node over SSH,
// authenticating with the group's shared key pair.
type SSHConfigurator struct {
	// newCommunicator can be replaced in tests.
	newCommunicator func(host, user string, privateKey []byte) ssh.Communicator
}

// NewSSHConfigurator creates the default configurator.
func NewSSHConfigurator() *SSHConfigurator {
	return &SSHConfigurator{
		newCommunicator: func(host, user string, privateKey []byte) ssh.Communicator {
			return ssh.NewSSHCommunicator(host, user, privateKey)
		},
	}
}

// Configure executes the bootstrap script. A template without a script
// configures trivially.
func (c *SSHConfigurator) Configure(ctx context.Context, node NodeMetadata, creds Credentials, opts TemplateOptions) error {
	if opts.BootstrapScript == "" {
		return nil
	}
	if node.PublicIP == "" {
		return fmt.Errorf("node %s has no public IP to configure over", node.ID)
	}
	if creds.Material == "" {
		return fmt.Errorf("no key material available for node %s", node.ID)
	}

	user := opts.SSHUser
	if user == "" {
		user = "root"
	}

	comm := c.newCommunicator(node.PublicIP, user, []byte(creds.Material))
	if _, err := comm.Execute(ctx, opts.BootstrapScript); err != nil {
		return fmt.Errorf("bootstrap failed on node %s: %w", node.ID, err)
	}
	return nil
}

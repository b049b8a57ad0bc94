// Package config loads and validates nodegroup configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/myorg/nodegroup/internal/catalog"
	"github.com/myorg/nodegroup/internal/util/naming"
)

// Config is the top-level configuration for the nodegroup CLI.
type Config struct {
	// Tag identifies the node group all commands operate on.
	Tag string `yaml:"tag"`

	// AWS holds provider credentials. When empty the default credential
	// chain is used.
	AWS AWSConfig `yaml:"aws"`

	// Template describes the nodes to launch.
	Template TemplateConfig `yaml:"template"`
}

// AWSConfig holds static provider credentials.
type AWSConfig struct {
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	Region          string `yaml:"region"`
}

// TemplateConfig describes the launch template for a group.
type TemplateConfig struct {
	// Location is a region or availability zone id.
	Location string `yaml:"location"`
	// Size is a portable size id resolved through the catalog.
	Size string `yaml:"size"`
	// Image is the AMI to launch.
	Image string `yaml:"image"`
	// InboundPorts are opened on the group's shared security group.
	InboundPorts []int `yaml:"inboundPorts"`
	// BootstrapScript runs on each node after it reaches running state.
	BootstrapScript string `yaml:"bootstrapScript"`
	// SSHUser is the login user for post-boot configuration.
	SSHUser string `yaml:"sshUser"`
}

// Default values applied by Validate when fields are unset.
const (
	DefaultRegion  = "us-east-1"
	DefaultSSHUser = "root"
)

// DefaultInboundPorts are opened when the template names none.
var DefaultInboundPorts = []int{22}

// LoadFromFile reads and validates a YAML configuration file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies defaults and rejects configurations that could not
// provision a group.
func (c *Config) Validate() error {
	if c.Tag != "" {
		if err := naming.ValidateTag(c.Tag); err != nil {
			return err
		}
	}

	if c.AWS.Region == "" {
		c.AWS.Region = DefaultRegion
	}
	if c.Template.Location == "" {
		c.Template.Location = c.AWS.Region
	}
	if c.Template.Size == "" {
		c.Template.Size = "small"
	}
	if len(c.Template.InboundPorts) == 0 {
		c.Template.InboundPorts = append([]int(nil), DefaultInboundPorts...)
	}
	if c.Template.SSHUser == "" {
		c.Template.SSHUser = DefaultSSHUser
	}

	for _, port := range c.Template.InboundPorts {
		if port < 1 || port > 65535 {
			return fmt.Errorf("inbound port %d out of range", port)
		}
	}

	supported := false
	for _, region := range catalog.SupportedRegions {
		if c.AWS.Region == region {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("region %s is not supported (supported: %v)", c.AWS.Region, catalog.SupportedRegions)
	}

	return nil
}

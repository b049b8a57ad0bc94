// Package handlers implements the CLI command handlers.
//
// Handlers load configuration, build the provider client and delegate to
// the compute service. Construction goes through factory variables so
// tests can swap in fakes.
package handlers

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/myorg/nodegroup/internal/catalog"
	"github.com/myorg/nodegroup/internal/compute"
	"github.com/myorg/nodegroup/internal/config"
	"github.com/myorg/nodegroup/internal/ec2"
)

// Factory function variables - can be replaced in tests.
var (
	// loadConfig reads and validates the group configuration file.
	loadConfig = config.LoadFromFile

	// newService builds the compute service backed by the real provider.
	newService = func(ctx context.Context, cfg *config.Config) (*compute.Service, error) {
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.AWS.Region),
		}
		if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
			))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}

		timeouts := config.LoadTimeouts()
		client := ec2.NewRealClient(awsCfg, catalog.SupportedRegions, timeouts)
		return compute.New(client, nil, timeouts, nil, nil, nil), nil
	}
)

// templateFromConfig maps the configured launch template to the service's
// template type.
func templateFromConfig(cfg *config.Config) compute.Template {
	return compute.Template{
		Location: cfg.Template.Location,
		Size:     cfg.Template.Size,
		Image:    cfg.Template.Image,
		Options: compute.TemplateOptions{
			InboundPorts:    cfg.Template.InboundPorts,
			BootstrapScript: cfg.Template.BootstrapScript,
			SSHUser:         cfg.Template.SSHUser,
		},
	}
}

// requireTag rejects configurations without a group tag.
func requireTag(cfg *config.Config) error {
	if cfg.Tag == "" {
		return fmt.Errorf("configuration must set a group tag")
	}
	return nil
}

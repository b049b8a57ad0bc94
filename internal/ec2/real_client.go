package ec2

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/myorg/nodegroup/internal/config"
)

// GroupTagKey is the instance tag carrying the owning group's tag.
const GroupTagKey = "nodegroup"

// RealClient implements Client using the AWS EC2 API, one sub-client per
// supported region.
type RealClient struct {
	clients  map[string]*awsec2.Client
	timeouts *config.Timeouts
}

// NewRealClient creates a RealClient for the given regions.
func NewRealClient(cfg aws.Config, regions []string, timeouts *config.Timeouts) *RealClient {
	clients := make(map[string]*awsec2.Client, len(regions))
	for _, region := range regions {
		clients[region] = awsec2.NewFromConfig(cfg, func(o *awsec2.Options) { o.Region = region })
	}
	if timeouts == nil {
		timeouts = config.LoadTimeouts()
	}
	return &RealClient{clients: clients, timeouts: timeouts}
}

// regional returns the sub-client for a region.
func (c *RealClient) regional(region string) (*awsec2.Client, error) {
	client, ok := c.clients[region]
	if !ok {
		return nil, fmt.Errorf("region not configured: %s", region)
	}
	return client, nil
}

var _ Client = (*RealClient)(nil)

package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/myorg/nodegroup/internal/util/retry"
)

// CreateSecurityGroup creates a group and authorizes TCP ingress on the
// given ports from anywhere.
func (c *RealClient) CreateSecurityGroup(ctx context.Context, region, name, description string, ports []int) (string, error) {
	client, err := c.regional(region)
	if err != nil {
		return "", err
	}

	out, err := client.CreateSecurityGroup(ctx, &awsec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(description),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create security group: %w", err)
	}
	groupID := aws.ToString(out.GroupId)

	if len(ports) > 0 {
		permissions := make([]ec2types.IpPermission, 0, len(ports))
		for _, port := range ports {
			permissions = append(permissions, ec2types.IpPermission{
				IpProtocol: aws.String("tcp"),
				FromPort:   aws.Int32(int32(port)),
				ToPort:     aws.Int32(int32(port)),
				IpRanges:   []ec2types.IpRange{{CidrIp: aws.String("0.0.0.0/0")}},
			})
		}
		_, err = client.AuthorizeSecurityGroupIngress(ctx, &awsec2.AuthorizeSecurityGroupIngressInput{
			GroupId:       aws.String(groupID),
			IpPermissions: permissions,
		})
		if err != nil {
			return "", fmt.Errorf("failed to authorize ingress for %s: %w", name, err)
		}
	}

	return groupID, nil
}

// DescribeSecurityGroup returns the named group, or nil when absent.
func (c *RealClient) DescribeSecurityGroup(ctx context.Context, region, name string) (*SecurityGroup, error) {
	client, err := c.regional(region)
	if err != nil {
		return nil, err
	}

	out, err := client.DescribeSecurityGroups(ctx, &awsec2.DescribeSecurityGroupsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("group-name"), Values: []string{name}},
		},
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe security group: %w", err)
	}
	if len(out.SecurityGroups) == 0 {
		return nil, nil
	}

	sg := out.SecurityGroups[0]
	return &SecurityGroup{
		ID:   aws.ToString(sg.GroupId),
		Name: aws.ToString(sg.GroupName),
	}, nil
}

// DeleteSecurityGroup deletes the named group. A group still referenced by
// a terminating instance reports DependencyViolation, which is retried.
func (c *RealClient) DeleteSecurityGroup(ctx context.Context, region, name string) error {
	client, err := c.regional(region)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Delete)
	defer cancel()

	return retry.Do(ctx, func() error {
		_, delErr := client.DeleteSecurityGroup(ctx, &awsec2.DeleteSecurityGroupInput{GroupName: aws.String(name)})
		if delErr != nil {
			if isNotFound(delErr) {
				return nil // already deleted
			}
			if isRetryable(delErr) {
				return delErr
			}
			return retry.Fatal(delErr)
		}
		return nil
	}, retry.WithMaxAttempts(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
}

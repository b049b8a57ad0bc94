package ec2

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/myorg/nodegroup/internal/util/retry"
)

// RunInstances launches between MinCount and MaxCount instances.
func (c *RealClient) RunInstances(ctx context.Context, spec LaunchSpec) ([]Instance, error) {
	client, err := c.regional(spec.Region)
	if err != nil {
		return nil, err
	}

	input := &awsec2.RunInstancesInput{
		ImageId:      aws.String(spec.ImageID),
		InstanceType: ec2types.InstanceType(spec.InstanceType),
		MinCount:     aws.Int32(int32(spec.MinCount)),
		MaxCount:     aws.Int32(int32(spec.MaxCount)),
		TagSpecifications: []ec2types.TagSpecification{
			{
				ResourceType: ec2types.ResourceTypeInstance,
				Tags: []ec2types.Tag{
					{Key: aws.String(GroupTagKey), Value: aws.String(spec.GroupTag)},
				},
			},
		},
	}
	if spec.KeyName != "" {
		input.KeyName = aws.String(spec.KeyName)
	}
	if spec.SecurityGroup != "" {
		input.SecurityGroups = []string{spec.SecurityGroup}
	}
	if spec.Zone != "" {
		input.Placement = &ec2types.Placement{AvailabilityZone: aws.String(spec.Zone)}
	}
	if spec.UserData != "" {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(spec.UserData)))
	}

	var out *awsec2.RunInstancesOutput
	err = retry.Do(ctx, func() error {
		var runErr error
		out, runErr = client.RunInstances(ctx, input)
		if runErr != nil {
			if isRetryable(runErr) {
				return runErr
			}
			return retry.Fatal(runErr)
		}
		return nil
	}, retry.WithMaxAttempts(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return nil, fmt.Errorf("failed to run instances: %w", err)
	}

	instances := make([]Instance, 0, len(out.Instances))
	for _, inst := range out.Instances {
		instances = append(instances, fromAPIInstance(spec.Region, inst))
	}
	return instances, nil
}

// DescribeInstances returns the current descriptor of each id.
func (c *RealClient) DescribeInstances(ctx context.Context, region string, ids ...string) ([]Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return c.describe(ctx, region, &awsec2.DescribeInstancesInput{InstanceIds: ids})
}

// DescribeInstancesByTag returns all instances carrying the group tag.
func (c *RealClient) DescribeInstancesByTag(ctx context.Context, region, tag string) ([]Instance, error) {
	return c.describe(ctx, region, &awsec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("tag:" + GroupTagKey), Values: []string{tag}},
		},
	})
}

// DescribeAllInstances returns every instance in the region.
func (c *RealClient) DescribeAllInstances(ctx context.Context, region string) ([]Instance, error) {
	return c.describe(ctx, region, &awsec2.DescribeInstancesInput{})
}

func (c *RealClient) describe(ctx context.Context, region string, input *awsec2.DescribeInstancesInput) ([]Instance, error) {
	client, err := c.regional(region)
	if err != nil {
		return nil, err
	}

	var instances []Instance
	paginator := awsec2.NewDescribeInstancesPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isNotFound(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				instances = append(instances, fromAPIInstance(region, inst))
			}
		}
	}
	return instances, nil
}

// TerminateInstances requests termination of the given ids.
func (c *RealClient) TerminateInstances(ctx context.Context, region string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	client, err := c.regional(region)
	if err != nil {
		return err
	}

	return retry.Do(ctx, func() error {
		_, termErr := client.TerminateInstances(ctx, &awsec2.TerminateInstancesInput{InstanceIds: ids})
		if termErr != nil {
			if isNotFound(termErr) {
				return nil // already gone
			}
			if isRetryable(termErr) {
				return termErr
			}
			return retry.Fatal(termErr)
		}
		return nil
	}, retry.WithMaxAttempts(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
}

// fromAPIInstance flattens an EC2 instance descriptor once, at the boundary.
func fromAPIInstance(region string, inst ec2types.Instance) Instance {
	out := Instance{
		ID:           aws.ToString(inst.InstanceId),
		Region:       region,
		KeyName:      aws.ToString(inst.KeyName),
		PublicIP:     aws.ToString(inst.PublicIpAddress),
		PrivateIP:    aws.ToString(inst.PrivateIpAddress),
		InstanceType: string(inst.InstanceType),
		ImageID:      aws.ToString(inst.ImageId),
	}
	if inst.State != nil {
		out.State = string(inst.State.Name)
	}
	if inst.Placement != nil {
		out.Zone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	if inst.LaunchTime != nil {
		out.LaunchedAt = *inst.LaunchTime
	}
	for _, tag := range inst.Tags {
		if aws.ToString(tag.Key) == GroupTagKey {
			out.GroupTag = aws.ToString(tag.Value)
			break
		}
	}
	return out
}

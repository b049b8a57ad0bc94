package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/myorg/nodegroup/internal/util/retry"
)

// CreateKeyPair creates a key pair and returns the private key material.
func (c *RealClient) CreateKeyPair(ctx context.Context, region, name string) (KeyPair, error) {
	client, err := c.regional(region)
	if err != nil {
		return KeyPair{}, err
	}

	out, err := client.CreateKeyPair(ctx, &awsec2.CreateKeyPairInput{
		KeyName: aws.String(name),
	})
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to create key pair: %w", err)
	}

	return KeyPair{
		Name:        aws.ToString(out.KeyName),
		Fingerprint: aws.ToString(out.KeyFingerprint),
		Material:    aws.ToString(out.KeyMaterial),
	}, nil
}

// DescribeKeyPair returns the named key pair, or nil when absent.
func (c *RealClient) DescribeKeyPair(ctx context.Context, region, name string) (*KeyPair, error) {
	client, err := c.regional(region)
	if err != nil {
		return nil, err
	}

	out, err := client.DescribeKeyPairs(ctx, &awsec2.DescribeKeyPairsInput{
		KeyNames: []string{name},
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe key pair: %w", err)
	}
	if len(out.KeyPairs) == 0 {
		return nil, nil
	}

	kp := out.KeyPairs[0]
	return &KeyPair{
		Name:        aws.ToString(kp.KeyName),
		Fingerprint: aws.ToString(kp.KeyFingerprint),
	}, nil
}

// DeleteKeyPair deletes the named key pair.
func (c *RealClient) DeleteKeyPair(ctx context.Context, region, name string) error {
	client, err := c.regional(region)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Delete)
	defer cancel()

	return retry.Do(ctx, func() error {
		_, delErr := client.DeleteKeyPair(ctx, &awsec2.DeleteKeyPairInput{KeyName: aws.String(name)})
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

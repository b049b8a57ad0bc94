package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestroy(t *testing.T) {
	fake := swapFactories(t, testConfig())
	ctx := context.Background()

	require.NoError(t, Run(ctx, "nodegroup.yaml", 2))
	require.NoError(t, Destroy(ctx, "nodegroup.yaml"))

	assert.Equal(t, 1, fake.CallCount("DeleteSecurityGroup"))
	assert.Equal(t, 1, fake.CallCount("DeleteKeyPair"))
}

func TestDestroyEmptyGroup(t *testing.T) {
	fake := swapFactories(t, testConfig())

	require.NoError(t, Destroy(context.Background(), "nodegroup.yaml"))
	assert.Equal(t, 0, fake.CallCount("TerminateInstances"))
}

func TestDestroyOne(t *testing.T) {
	fake := swapFactories(t, testConfig())
	ctx := context.Background()

	require.NoError(t, Run(ctx, "nodegroup.yaml", 2))

	instances, err := fake.DescribeInstancesByTag(ctx, "us-east-1", "web")
	require.NoError(t, err)
	require.Len(t, instances, 2)

	require.NoError(t, DestroyOne(ctx, "nodegroup.yaml", instances[0].ID))

	// The group still has a live node, so shared resources survive.
	assert.Equal(t, 0, fake.CallCount("DeleteSecurityGroup"))
	assert.Equal(t, 0, fake.CallCount("DeleteKeyPair"))
}

func TestDestroyOneUnknownNode(t *testing.T) {
	swapFactories(t, testConfig())
	require.Error(t, DestroyOne(context.Background(), "nodegroup.yaml", "i-missing"))
}

func TestDestroyRequiresTag(t *testing.T) {
	cfg := testConfig()
	cfg.Tag = ""
	fake := swapFactories(t, cfg)

	require.Error(t, Destroy(context.Background(), "nodegroup.yaml"))
	assert.Empty(t, fake.Calls)
}

package compute

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myorg/nodegroup/internal/config"
	"github.com/myorg/nodegroup/internal/ec2"
)

func testTimeouts() *config.Timeouts {
	return &config.Timeouts{
		RunningPollPeriod:    time.Millisecond,
		RunningMaxAttempts:   20,
		TerminatePollPeriod:  time.Millisecond,
		TerminateMaxAttempts: 20,
		MaxLaunchCycles:      5,
		Delete:               time.Second,
		RetryMaxAttempts:     3,
		RetryInitialDelay:    time.Millisecond,
	}
}

// recordingConfigurator counts configure calls per node and fails the ids
// listed in failIDs exactly once.
type recordingConfigurator struct {
	mu      sync.Mutex
	calls   map[string]int
	failIDs map[string]bool
}

func newRecordingConfigurator(failIDs ...string) *recordingConfigurator {
	fail := make(map[string]bool, len(failIDs))
	for _, id := range failIDs {
		fail[id] = true
	}
	return &recordingConfigurator{calls: make(map[string]int), failIDs: fail}
}

func (c *recordingConfigurator) Configure(_ context.Context, node NodeMetadata, _ Credentials, _ TemplateOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[node.ID]++
	if c.failIDs[node.ID] {
		delete(c.failIDs, node.ID)
		return errors.New("bootstrap script exited 1")
	}
	return nil
}

func (c *recordingConfigurator) configured(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[id]
}

func newTestService(fake *ec2.Fake, cfg Configurator) *Service {
	if cfg == nil {
		cfg = newRecordingConfigurator()
	}
	return New(fake, nil, testTimeouts(), cfg, NopObserver{}, []string{"us-east-1"})
}

func webTemplate() Template {
	return Template{
		Location: "us-east-1",
		Size:     "small",
		Image:    "ami-1",
		Options:  TemplateOptions{InboundPorts: []int{22, 80}},
	}
}

func TestRunNodesWithTagProvisionsExactCount(t *testing.T) {
	fake := ec2.NewFake()
	cfg := newRecordingConfigurator()
	svc := newTestService(fake, cfg)

	nodes, err := svc.RunNodesWithTag(context.Background(), "web", 3, webTemplate())
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	for id, node := range nodes {
		assert.Equal(t, id, node.ID)
		assert.Equal(t, "web", node.Tag)
		assert.Equal(t, NodeRunning, node.State)
		assert.NotEmpty(t, node.PublicIP)
		assert.Equal(t, 1, cfg.configured(id))
	}

	assert.Equal(t, 1, fake.CallCount("CreateKeyPair"))
	assert.Equal(t, 1, fake.CallCount("CreateSecurityGroup"))
	assert.Equal(t, 1, fake.CallCount("RunInstances"))

	creds, ok := svc.CredentialsFor("us-east-1", "web")
	require.True(t, ok)
	assert.Equal(t, "web", creds.KeyName)
	assert.NotEmpty(t, creds.Material)
}

func TestRunNodesWithTagRejectsSeparatorTag(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)

	_, err := svc.RunNodesWithTag(context.Background(), "web-frontend", 1, webTemplate())
	require.Error(t, err)
	assert.Empty(t, fake.Calls, "validation must fail before any provider call")
}

func TestRunNodesWithTagRejectsNonPositiveCount(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)

	_, err := svc.RunNodesWithTag(context.Background(), "web", 0, webTemplate())
	require.Error(t, err)
	assert.Empty(t, fake.Calls)
}

func TestRunNodesWithTagRejectsUnknownLocation(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)

	tpl := webTemplate()
	tpl.Location = "mars-central-1"
	_, err := svc.RunNodesWithTag(context.Background(), "web", 1, tpl)
	require.Error(t, err)
	assert.Empty(t, fake.Calls)
}

func TestRunNodesWithTagReusesAncillaryResources(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)
	ctx := context.Background()

	_, err := svc.RunNodesWithTag(ctx, "web", 2, webTemplate())
	require.NoError(t, err)
	_, err = svc.RunNodesWithTag(ctx, "web", 1, webTemplate())
	require.NoError(t, err)

	assert.Equal(t, 1, fake.CallCount("CreateKeyPair"), "second run must reuse the key pair")
	assert.Equal(t, 1, fake.CallCount("CreateSecurityGroup"), "second run must reuse the security group")
}

func TestRunNodesWithTagReusesProviderSideKeyPair(t *testing.T) {
	fake := ec2.NewFake()
	ctx := context.Background()
	_, err := fake.CreateKeyPair(ctx, "us-east-1", "web")
	require.NoError(t, err)

	svc := newTestService(fake, nil)
	nodes, err := svc.RunNodesWithTag(ctx, "web", 1, webTemplate())
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	// The pre-existing key pair was adopted, not recreated; its private
	// material is unrecoverable.
	assert.Equal(t, 1, fake.CallCount("CreateKeyPair"))
	creds, ok := svc.CredentialsFor("us-east-1", "web")
	require.True(t, ok)
	assert.Empty(t, creds.Material)
}

func TestRunNodesWithTagConcurrentCallsShareOneCreation(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RunNodesWithTag(context.Background(), "web", 1, webTemplate())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fake.CallCount("CreateKeyPair"))
	assert.Equal(t, 1, fake.CallCount("CreateSecurityGroup"))
}

func TestRunNodesWithTagRelaunchesConfigureFailures(t *testing.T) {
	fake := ec2.NewFake()
	// The security group takes the fake's first id, so the first two
	// instances are i-00000002 and i-00000003; the former fails its
	// bootstrap once.
	cfg := newRecordingConfigurator("i-00000002")
	svc := newTestService(fake, cfg)

	nodes, err := svc.RunNodesWithTag(context.Background(), "web", 2, webTemplate())
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	// The failed node was torn down and replaced by fresh capacity.
	assert.NotContains(t, nodes, "i-00000002")
	assert.Equal(t, 2, fake.CallCount("RunInstances"), "shortfall triggers a second launch cycle")
	assert.Equal(t, 1, cfg.configured("i-00000002"), "a failed node is never reconfigured in place")

	described, err := fake.DescribeInstances(context.Background(), "us-east-1", "i-00000002")
	require.NoError(t, err)
	require.Len(t, described, 1)
	assert.Equal(t, ec2.StateTerminated, described[0].State)
}

func TestRunNodesWithTagExhaustsLaunchCycles(t *testing.T) {
	fake := ec2.NewFake()
	// Every bootstrap fails, so every cycle ends with a full shortfall.
	svc := New(fake, nil, testTimeouts(),
		ConfiguratorFunc(func(context.Context, NodeMetadata, Credentials, TemplateOptions) error {
			return errors.New("bootstrap never succeeds")
		}),
		NopObserver{}, []string{"us-east-1"})

	nodes, err := svc.RunNodesWithTag(context.Background(), "web", 1, webTemplate())
	assert.ErrorIs(t, err, ErrLaunchCyclesExhausted)
	assert.Empty(t, nodes)
	assert.Equal(t, testTimeouts().MaxLaunchCycles, fake.CallCount("RunInstances"))
}

func TestRunNodesWithTagLaunchFailureAborts(t *testing.T) {
	fake := ec2.NewFake()
	fake.RunInstancesErr = func(ec2.LaunchSpec) error {
		return errors.New("InsufficientInstanceCapacity")
	}
	svc := newTestService(fake, nil)

	_, err := svc.RunNodesWithTag(context.Background(), "web", 1, webTemplate())
	require.Error(t, err)

	// Ancillary resources outlive the failed launch for the next attempt.
	_, ok := svc.CredentialsFor("us-east-1", "web")
	assert.True(t, ok)
}

func TestDestroyNodeKeepsResourcesWhileGroupLives(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)
	ctx := context.Background()

	nodes, err := svc.RunNodesWithTag(ctx, "web", 2, webTemplate())
	require.NoError(t, err)

	var first NodeMetadata
	for _, n := range nodes {
		first = n
		break
	}
	require.NoError(t, svc.DestroyNode(ctx, first))

	assert.Equal(t, 0, fake.CallCount("DeleteKeyPair"))
	assert.Equal(t, 0, fake.CallCount("DeleteSecurityGroup"))
	_, ok := svc.CredentialsFor("us-east-1", "web")
	assert.True(t, ok, "credential stays registered while the group has live nodes")
}

func TestDestroyLastNodeCascades(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)
	ctx := context.Background()

	nodes, err := svc.RunNodesWithTag(ctx, "web", 1, webTemplate())
	require.NoError(t, err)
	for _, n := range nodes {
		require.NoError(t, svc.DestroyNode(ctx, n))
	}

	assert.Equal(t, 1, fake.CallCount("DeleteSecurityGroup"))
	assert.Equal(t, 1, fake.CallCount("DeleteKeyPair"))
	_, ok := svc.CredentialsFor("us-east-1", "web")
	assert.False(t, ok, "cascade must drop the credential mapping")
	assert.Equal(t, 0, svc.securityGroups.Len())
}

func TestDestroyNodeAlreadyTerminatedIsIdempotent(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)
	ctx := context.Background()

	nodes, err := svc.RunNodesWithTag(ctx, "web", 1, webTemplate())
	require.NoError(t, err)
	for _, n := range nodes {
		require.NoError(t, svc.DestroyNode(ctx, n))
		require.NoError(t, svc.DestroyNode(ctx, n), "destroying a terminated node is not an error")
	}
}

func TestDestroyNodesWithTagRemovesWholeGroup(t *testing.T) {
	fake := ec2.NewFake()
	fake.PollsUntilTerminated = 2
	svc := newTestService(fake, nil)
	ctx := context.Background()

	_, err := svc.RunNodesWithTag(ctx, "web", 3, webTemplate())
	require.NoError(t, err)
	_, err = svc.RunNodesWithTag(ctx, "db", 1, Template{
		Location: "us-east-1", Size: "small", Image: "ami-1",
		Options: TemplateOptions{InboundPorts: []int{22, 5432}},
	})
	require.NoError(t, err)

	destroyed, err := svc.DestroyNodesWithTag(ctx, "web")
	require.NoError(t, err)
	assert.Len(t, destroyed, 3)

	assert.Equal(t, 1, fake.CallCount("DeleteSecurityGroup"))
	assert.Equal(t, 1, fake.CallCount("DeleteKeyPair"))

	// The other group is untouched.
	_, ok := svc.CredentialsFor("us-east-1", "db")
	assert.True(t, ok)
	dbNodes, err := svc.NodesWithTag(ctx, "db")
	require.NoError(t, err)
	require.Len(t, dbNodes, 1)
	assert.NotEqual(t, NodeTerminated, dbNodes[0].State)
}

func TestDestroyNodesWithTagConcurrentCallsConverge(t *testing.T) {
	fake := ec2.NewFake()
	fake.PollsUntilTerminated = 1
	svc := newTestService(fake, nil)
	ctx := context.Background()

	_, err := svc.RunNodesWithTag(ctx, "web", 3, webTemplate())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.DestroyNodesWithTag(ctx, "web")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Racing cascades may each issue deletes; the provider-side result is
	// the same either way and nothing is left behind.
	sg, err := fake.DescribeSecurityGroup(ctx, "us-east-1", "web")
	require.NoError(t, err)
	assert.Nil(t, sg)
	kp, err := fake.DescribeKeyPair(ctx, "us-east-1", "web")
	require.NoError(t, err)
	assert.Nil(t, kp)

	nodes, err := svc.NodesWithTag(ctx, "web")
	require.NoError(t, err)
	for _, node := range nodes {
		assert.Equal(t, NodeTerminated, node.State)
	}
}

func TestDestroyNodesWithTagEmptyGroup(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)

	destroyed, err := svc.DestroyNodesWithTag(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, destroyed)
	assert.Equal(t, 0, fake.CallCount("TerminateInstances"))
}

func TestProvisionDestroyRoundTripLeavesNoState(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)
	ctx := context.Background()

	_, err := svc.RunNodesWithTag(ctx, "web", 2, webTemplate())
	require.NoError(t, err)
	_, err = svc.DestroyNodesWithTag(ctx, "web")
	require.NoError(t, err)

	assert.Equal(t, 0, svc.credentials.Len())
	assert.Equal(t, 0, svc.securityGroups.Len())

	sg, err := fake.DescribeSecurityGroup(ctx, "us-east-1", "web")
	require.NoError(t, err)
	assert.Nil(t, sg)
	kp, err := fake.DescribeKeyPair(ctx, "us-east-1", "web")
	require.NoError(t, err)
	assert.Nil(t, kp)
}

func TestGetNodeMetadata(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)
	ctx := context.Background()

	nodes, err := svc.RunNodesWithTag(ctx, "web", 1, webTemplate())
	require.NoError(t, err)

	for id := range nodes {
		node, err := svc.GetNodeMetadata(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, node.ID)
		assert.Equal(t, "web", node.Tag)
	}

	_, err = svc.GetNodeMetadata(ctx, "i-missing")
	assert.Error(t, err)
}

func TestListNodesSpansGroups(t *testing.T) {
	fake := ec2.NewFake()
	svc := newTestService(fake, nil)
	ctx := context.Background()

	_, err := svc.RunNodesWithTag(ctx, "web", 2, webTemplate())
	require.NoError(t, err)
	_, err = svc.RunNodesWithTag(ctx, "db", 1, webTemplate())
	require.NoError(t, err)

	all, err := svc.ListNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

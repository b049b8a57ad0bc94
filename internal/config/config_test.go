package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodegroup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
tag: web
aws:
  region: us-east-1
template:
  location: us-east-1a
  size: large
  image: ami-1234abcd
  inboundPorts: [22, 80, 443]
  sshUser: ec2-user
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "web", cfg.Tag)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "us-east-1a", cfg.Template.Location)
	assert.Equal(t, "large", cfg.Template.Size)
	assert.Equal(t, []int{22, 80, 443}, cfg.Template.InboundPorts)
	assert.Equal(t, "ec2-user", cfg.Template.SSHUser)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	path := writeConfig(t, "tag: [not a string")
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidate_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultRegion, cfg.AWS.Region)
	assert.Equal(t, DefaultRegion, cfg.Template.Location)
	assert.Equal(t, "small", cfg.Template.Size)
	assert.Equal(t, DefaultInboundPorts, cfg.Template.InboundPorts)
	assert.Equal(t, DefaultSSHUser, cfg.Template.SSHUser)
}

func TestValidate_TagWithSeparator(t *testing.T) {
	cfg := &Config{Tag: "web-frontend"}
	assert.Error(t, cfg.Validate())
}

func TestValidate_UnsupportedRegion(t *testing.T) {
	cfg := &Config{AWS: AWSConfig{Region: "ap-southeast-9"}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_PortOutOfRange(t *testing.T) {
	cfg := &Config{Template: TemplateConfig{InboundPorts: []int{0}}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Template: TemplateConfig{InboundPorts: []int{70000}}}
	assert.Error(t, cfg.Validate())
}

func TestLoadTimeouts_Defaults(t *testing.T) {
	timeouts := LoadTimeouts()

	assert.Equal(t, 5*time.Second, timeouts.RunningPollPeriod)
	assert.Equal(t, 60, timeouts.RunningMaxAttempts)
	assert.Equal(t, 120, timeouts.TerminateMaxAttempts)
	assert.Equal(t, 10, timeouts.MaxLaunchCycles)
	assert.Equal(t, 5, timeouts.RetryMaxAttempts)
}

func TestLoadTimeouts_EnvOverride(t *testing.T) {
	t.Setenv("NODEGROUP_RUNNING_POLL_PERIOD", "250ms")
	t.Setenv("NODEGROUP_MAX_LAUNCH_CYCLES", "3")
	t.Setenv("NODEGROUP_RETRY_MAX_ATTEMPTS", "bogus")

	timeouts := LoadTimeouts()

	assert.Equal(t, 250*time.Millisecond, timeouts.RunningPollPeriod)
	assert.Equal(t, 3, timeouts.MaxLaunchCycles)
	assert.Equal(t, 5, timeouts.RetryMaxAttempts, "invalid value falls back to default")
}

package env

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonic-net/sonic-testenv/internal/config"
	"github.com/sonic-net/sonic-testenv/internal/controlplane"
	"github.com/sonic-net/sonic-testenv/internal/device"
	"github.com/sonic-net/sonic-testenv/internal/imagebuild"
)

type fakeBuilder struct {
	ensureErr error
	ensured   [][]imagebuild.ImageSpec
	removed   []string
}

func (f *fakeBuilder) EnsureAll(_ context.Context, specs ...imagebuild.ImageSpec) error {
	f.ensured = append(f.ensured, specs)
	return f.ensureErr
}

func (f *fakeBuilder) Remove(_ context.Context, name string) error {
	f.removed = append(f.removed, name)
	return nil
}

type fakeDeployer struct {
	redisErr    error
	agentErr    error
	redisCalls  int
	agentCalls  int
	agentDryRun bool
	undeploys   int
}

func (f *fakeDeployer) DeployRedis(context.Context) error {
	f.redisCalls++
	return f.redisErr
}

func (f *fakeDeployer) DeployAgent(_ context.Context, _, _ string, dryRun bool) error {
	f.agentCalls++
	f.agentDryRun = dryRun
	return f.agentErr
}

func (f *fakeDeployer) Undeploy(context.Context) []error {
	f.undeploys++
	return nil
}

type fakeRegistry struct {
	created  []string
	cleanups int
	warnings []error
}

func (f *fakeRegistry) Create(_ context.Context, name string, _ map[string]string) (device.Handle, error) {
	f.created = append(f.created, name)
	return device.Handle{Kind: "networkdevice", Namespace: "default", Name: name}, nil
}

func (f *fakeRegistry) Delete(_ context.Context, name string) error {
	return nil
}

func (f *fakeRegistry) CleanupAll(context.Context) []error {
	f.cleanups++
	return f.warnings
}

func (f *fakeRegistry) Handles() []device.Handle { return nil }

type fakeCollector struct {
	dir string
}

func (f *fakeCollector) Collect(_ context.Context, testName string) (string, error) {
	return f.dir + "/" + testName, nil
}

type harness struct {
	controller *Controller
	cp         *controlplane.Fake
	builder    *fakeBuilder
	deployer   *fakeDeployer
	registry   *fakeRegistry
}

func newHarness(cfg *config.Config) *harness {
	if cfg == nil {
		cfg = config.Default()
	}
	h := &harness{
		cp:       &controlplane.Fake{},
		builder:  &fakeBuilder{},
		deployer: &fakeDeployer{},
		registry: &fakeRegistry{},
	}
	h.controller = NewController(cfg, h.cp, h.builder, h.deployer, h.registry, &fakeCollector{dir: "logs"})
	return h
}

func (h *harness) toSteady(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.controller.Setup(ctx, false))
	_, err := h.controller.CreateDevice(ctx, "sonic-test", nil)
	require.NoError(t, err)
}

func TestLifecycle_ForwardChain(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()

	assert.Equal(t, Uninitialized, h.controller.Env().Phase)

	require.NoError(t, h.controller.SetupCluster(ctx))
	assert.Equal(t, ClusterReady, h.controller.Env().Phase)

	require.NoError(t, h.controller.BuildImages(ctx, true))
	assert.Equal(t, ImagesReady, h.controller.Env().Phase)

	require.NoError(t, h.controller.DeployDependency(ctx))
	assert.Equal(t, DependencyReady, h.controller.Env().Phase)

	require.NoError(t, h.controller.DeployController(ctx))
	assert.Equal(t, ControllerReady, h.controller.Env().Phase)

	_, err := h.controller.CreateDevice(ctx, "sonic-test", nil)
	require.NoError(t, err)
	assert.Equal(t, Steady, h.controller.Env().Phase)
}

func TestLifecycle_OutOfOrderOperationsRejected(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()

	var phaseErr *PhaseError

	err := h.controller.BuildImages(ctx, false)
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, Uninitialized, phaseErr.Phase)

	err = h.controller.DeployDependency(ctx)
	assert.ErrorAs(t, err, &phaseErr)

	_, err = h.controller.CreateDevice(ctx, "dev", nil)
	assert.ErrorAs(t, err, &phaseErr)

	assert.Zero(t, h.deployer.redisCalls)
	assert.Empty(t, h.registry.created)
}

func TestLifecycle_SteadyIsReentrant(t *testing.T) {
	h := newHarness(nil)
	h.toSteady(t)
	ctx := context.Background()

	for _, name := range []string{"dev-a", "dev-b"} {
		_, err := h.controller.CreateDevice(ctx, name, nil)
		require.NoError(t, err)
		require.NoError(t, h.controller.DeleteDevice(ctx, name))
	}
	assert.Equal(t, Steady, h.controller.Env().Phase)
}

func TestSetupCluster_FailureHaltsForwardProgress(t *testing.T) {
	h := newHarness(nil)
	h.cp.CreateClusterFn = func(context.Context) error {
		return errors.New("DRV_DOCKER_NOT_RUNNING")
	}
	ctx := context.Background()

	err := h.controller.SetupCluster(ctx)
	require.Error(t, err)

	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, "cluster", setupErr.Stage)
	assert.Equal(t, Uninitialized, h.controller.Env().Phase, "failed phase must not advance")

	var phaseErr *PhaseError
	assert.ErrorAs(t, h.controller.BuildImages(ctx, false), &phaseErr)
}

func TestBuildImages_FailureWrapsStage(t *testing.T) {
	h := newHarness(nil)
	h.builder.ensureErr = &imagebuild.BuildError{Image: "sonic-change-agent:test", Err: errors.New("exit status 1")}
	ctx := context.Background()

	require.NoError(t, h.controller.SetupCluster(ctx))
	err := h.controller.BuildImages(ctx, false)

	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, "images", setupErr.Stage)

	var buildErr *imagebuild.BuildError
	assert.ErrorAs(t, err, &buildErr)
}

func TestSetup_PassesDryRunModeToDeployer(t *testing.T) {
	cfg := config.Default()
	cfg.DryRun = false
	h := newHarness(cfg)

	require.NoError(t, h.controller.Setup(context.Background(), false))
	assert.False(t, h.deployer.agentDryRun)
	assert.Equal(t, 1, h.deployer.redisCalls)
	assert.Equal(t, 1, h.deployer.agentCalls)
}

func TestSetupCluster_ReusesRunningCluster(t *testing.T) {
	cfg := config.Default()
	cfg.ReuseEnv = true
	h := newHarness(cfg)
	h.cp.ClusterUp = true

	require.NoError(t, h.controller.SetupCluster(context.Background()))
	assert.Equal(t, ClusterReady, h.controller.Env().Phase)
	assert.Equal(t, 0, h.cp.CallCount("create-cluster"))
}

func TestAttachRunning(t *testing.T) {
	h := newHarness(nil)
	h.cp.ClusterUp = true

	require.NoError(t, h.controller.AttachRunning(context.Background()))
	assert.Equal(t, Steady, h.controller.Env().Phase)

	_, err := h.controller.CreateDevice(context.Background(), "sonic-test", nil)
	assert.NoError(t, err)
}

func TestAttachRunning_NoCluster(t *testing.T) {
	h := newHarness(nil)

	err := h.controller.AttachRunning(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run setup first")
	assert.Equal(t, Uninitialized, h.controller.Env().Phase)
}

func TestTeardown_ReverseOrderAndTerminal(t *testing.T) {
	h := newHarness(nil)
	h.toSteady(t)

	warnings, err := h.controller.Teardown(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, 1, h.registry.cleanups)
	assert.Equal(t, 1, h.deployer.undeploys)
	assert.Equal(t, 1, h.cp.CallCount("delete-cluster"))
	assert.Equal(t, []string{"sonic-change-agent:test"}, h.builder.removed)
	assert.Equal(t, Destroyed, h.controller.Env().Phase)

	_, err = h.controller.Teardown(context.Background())
	var phaseErr *PhaseError
	assert.ErrorAs(t, err, &phaseErr)
}

func TestTeardown_CollectsWarningsAndContinues(t *testing.T) {
	h := newHarness(nil)
	h.toSteady(t)
	h.registry.warnings = []error{errors.New("cleanup networkdevice dev-a: conn refused")}
	h.cp.DeleteClusterFn = func(context.Context) error {
		return errors.New("delete cluster sonic-test: exit status 1")
	}

	warnings, err := h.controller.Teardown(context.Background())
	require.NoError(t, err, "teardown itself never fails")
	assert.Len(t, warnings, 2)
	assert.Equal(t, Destroyed, h.controller.Env().Phase)
}

func TestTeardown_ReuseKeepsCluster(t *testing.T) {
	cfg := config.Default()
	cfg.ReuseEnv = true
	h := newHarness(cfg)
	h.cp.ClusterUp = true
	h.toSteady(t)

	warnings, err := h.controller.Teardown(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 0, h.cp.CallCount("delete-cluster"))
	assert.Empty(t, h.builder.removed)
}

func TestStatus_NotRunning(t *testing.T) {
	h := newHarness(nil)

	out, err := h.controller.Status(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "Cluster: not running")
}

func TestStatus_RunningWithNoDevices(t *testing.T) {
	h := newHarness(nil)
	h.cp.ClusterUp = true
	h.cp.KubectlFn = func(_ context.Context, args ...string) (string, error) {
		if args[1] == "networkdevices" {
			return "", errors.New("No resources found")
		}
		return "redis-abc   Running", nil
	}

	out, err := h.controller.Status(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "Cluster: running")
	assert.Contains(t, out, "NetworkDevices: none")
}

func TestCollectLogs_RequiresLiveEnvironment(t *testing.T) {
	h := newHarness(nil)

	_, err := h.controller.CollectLogs(context.Background(), "debug")
	var phaseErr *PhaseError
	require.ErrorAs(t, err, &phaseErr)

	require.NoError(t, h.controller.SetupCluster(context.Background()))
	dir, err := h.controller.CollectLogs(context.Background(), "debug")
	require.NoError(t, err)
	assert.Equal(t, "logs/debug", dir)
}

func TestRedeploy_RollsAgentWithoutPhaseChange(t *testing.T) {
	h := newHarness(nil)
	h.toSteady(t)
	agentCallsBefore := h.deployer.agentCalls

	require.NoError(t, h.controller.Redeploy(context.Background(), false))
	assert.Equal(t, agentCallsBefore+1, h.deployer.agentCalls)
	assert.Equal(t, Steady, h.controller.Env().Phase)

	// The last ensure pass skips images that already exist.
	last := h.builder.ensured[len(h.builder.ensured)-1]
	require.Len(t, last, 2)
	assert.True(t, last[0].SkipIfExists)
	assert.True(t, last[1].SkipIfExists)
}

func TestRedeploy_RebuildForcesImageBuild(t *testing.T) {
	h := newHarness(nil)
	h.toSteady(t)

	require.NoError(t, h.controller.Redeploy(context.Background(), true))
	last := h.builder.ensured[len(h.builder.ensured)-1]
	assert.False(t, last[0].SkipIfExists)
	assert.False(t, last[1].SkipIfExists)
}

func TestRedeploy_RejectedBeforeControllerReady(t *testing.T) {
	h := newHarness(nil)

	var phaseErr *PhaseError
	require.ErrorAs(t, h.controller.Redeploy(context.Background(), false), &phaseErr)
	assert.Equal(t, Uninitialized, phaseErr.Phase)
	assert.Zero(t, h.deployer.agentCalls)
}

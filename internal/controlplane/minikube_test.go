package controlplane

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonic-net/sonic-testenv/internal/poll"
)

func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// scriptedMinikube returns a Minikube whose command layer is replaced by fn.
func scriptedMinikube(fn func(name string, args []string) (string, error)) *Minikube {
	m := NewMinikube("sonic-test", "v1.29.0")
	m.pollOpts = []poll.Option{poll.WithAfter(immediate)}
	m.run = func(_ context.Context, name string, args ...string) (string, error) {
		return fn(name, args)
	}
	return m
}

func TestCreateCluster_DeletesStaleProfileFirst(t *testing.T) {
	var invocations []string
	m := scriptedMinikube(func(name string, args []string) (string, error) {
		invocations = append(invocations, name+" "+strings.Join(args, " "))
		if strings.Contains(strings.Join(args, " "), "get nodes") {
			return "minikube   Ready   control-plane   1m   v1.29.0", nil
		}
		return "", nil
	})

	require.NoError(t, m.CreateCluster(context.Background()))

	require.GreaterOrEqual(t, len(invocations), 3)
	assert.Contains(t, invocations[0], "delete")
	assert.Contains(t, invocations[1], "start")
	assert.Contains(t, invocations[1], "--driver=docker")
	assert.Contains(t, invocations[1], "--kubernetes-version=v1.29.0")
	assert.Contains(t, invocations[1], "--profile sonic-test")
}

func TestCreateCluster_StartFailureCarriesOutput(t *testing.T) {
	m := scriptedMinikube(func(name string, args []string) (string, error) {
		if strings.Contains(strings.Join(args, " "), "start") {
			return "", &CommandError{
				Args:   append([]string{name}, args...),
				Output: "Exiting due to DRV_DOCKER_NOT_RUNNING",
				Err:    errors.New("exit status 69"),
			}
		}
		return "", nil
	})

	err := m.CreateCluster(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create cluster sonic-test")
	assert.Contains(t, err.Error(), "DRV_DOCKER_NOT_RUNNING")
}

func TestCreateCluster_NodeNeverReady(t *testing.T) {
	m := scriptedMinikube(func(_ string, args []string) (string, error) {
		if strings.Contains(strings.Join(args, " "), "get nodes") {
			return "minikube   NotReady   control-plane   1m   v1.29.0", nil
		}
		return "", nil
	})

	err := m.CreateCluster(context.Background())
	require.Error(t, err)

	var timeout *poll.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 30, timeout.Attempts)
	assert.Contains(t, timeout.LastObserved, "NotReady")
}

func TestKubectl_RoutesThroughMinikube(t *testing.T) {
	var gotName string
	var gotArgs []string
	m := scriptedMinikube(func(name string, args []string) (string, error) {
		gotName = name
		gotArgs = args
		return "ok", nil
	})

	out, err := m.Kubectl(context.Background(), "get", "pods", "-l", "app=redis")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "minikube", gotName)
	assert.Equal(t, []string{"kubectl", "--profile", "sonic-test", "--", "get", "pods", "-l", "app=redis"}, gotArgs)
}

func TestPodList_ParsesKubectlJSON(t *testing.T) {
	m := scriptedMinikube(func(_ string, _ []string) (string, error) {
		return `{
			"apiVersion": "v1",
			"kind": "PodList",
			"items": [
				{"metadata": {"name": "redis-abc", "namespace": "default"}},
				{"metadata": {"name": "sonic-change-agent-xyz", "namespace": "default"}}
			]
		}`, nil
	})

	pods, err := m.PodList(context.Background())
	require.NoError(t, err)
	require.Len(t, pods.Items, 2)
	assert.Equal(t, "redis-abc", pods.Items[0].Name)
	assert.Equal(t, "default", pods.Items[1].Namespace)
}

func TestPodList_MalformedJSON(t *testing.T) {
	m := scriptedMinikube(func(_ string, _ []string) (string, error) {
		return "not json", nil
	})

	_, err := m.PodList(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse pod list")
}

func TestNodeIP(t *testing.T) {
	m := scriptedMinikube(func(_ string, _ []string) (string, error) {
		return "192.168.49.2\n", nil
	})

	ip, err := m.NodeIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "192.168.49.2", ip)
}

func TestNodeIP_EmptyAddress(t *testing.T) {
	m := scriptedMinikube(func(_ string, _ []string) (string, error) {
		return "  \n", nil
	})

	_, err := m.NodeIP(context.Background())
	require.Error(t, err)
}

func TestCommandError_IncludesCapturedOutput(t *testing.T) {
	err := &CommandError{
		Args:   []string{"minikube", "start"},
		Output: "something broke\n",
		Err:    errors.New("exit status 1"),
	}
	assert.Equal(t, "minikube start: exit status 1: something broke", err.Error())

	bare := &CommandError{Args: []string{"docker", "inspect"}, Err: errors.New("exit status 1")}
	assert.Equal(t, "docker inspect: exit status 1", bare.Error())
}

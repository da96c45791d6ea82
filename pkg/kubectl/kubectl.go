package kubectl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cuemby/storefront/pkg/log"
	"github.com/cuemby/storefront/pkg/types"
	"github.com/rs/zerolog"
)

// Runner executes an external command and returns stdout, stderr, and the
// execution error. Tests substitute it to avoid shelling out.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

// Client wraps the kubectl binary as the cluster inspector
type Client struct {
	binary     string
	kubeconfig string
	timeout    time.Duration
	run        Runner
	logger     zerolog.Logger
}

// Config holds cluster inspector settings
type Config struct {
	Binary     string        // defaults to "kubectl"
	Kubeconfig string        // empty means in-cluster
	Timeout    time.Duration // per-command timeout, defaults to 30s
}

// NewClient creates a cluster inspector client
func NewClient(cfg Config) *Client {
	c := &Client{
		binary:     cfg.Binary,
		kubeconfig: cfg.Kubeconfig,
		timeout:    cfg.Timeout,
		run:        execRunner,
		logger:     log.WithComponent("kubectl"),
	}
	if c.binary == "" {
		c.binary = "kubectl"
	}
	if c.timeout == 0 {
		c.timeout = 30 * time.Second
	}
	return c
}

// NamespaceExists reports whether a namespace exists
func (c *Client) NamespaceExists(ctx context.Context, namespace string) (bool, error) {
	_, stderr, err := c.exec(ctx, "get", "namespace", namespace, "-o", "name")
	if err != nil {
		if isNotFound(stderr) {
			return false, nil
		}
		return false, fmt.Errorf("kubectl command failed: %s", stderrOrError(stderr, err))
	}
	return true, nil
}

// DeleteNamespace deletes a namespace and everything in it. Missing
// namespaces are a no-op. With wait the call blocks until finalizers have
// run, so the caller knows the cascade completed.
func (c *Client) DeleteNamespace(ctx context.Context, namespace string, wait bool) error {
	exists, err := c.NamespaceExists(ctx, namespace)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	args := []string{"delete", "namespace", namespace, fmt.Sprintf("--wait=%t", wait)}
	_, stderr, err := c.exec(ctx, args...)
	if err != nil {
		if isNotFound(stderr) {
			return nil
		}
		return fmt.Errorf("kubectl command failed: %s", stderrOrError(stderr, err))
	}
	return nil
}

// PodStatuses returns a snapshot of every pod in a namespace
func (c *Client) PodStatuses(ctx context.Context, namespace string) ([]types.PodStatus, error) {
	stdout, stderr, err := c.exec(ctx, "get", "pods", "--namespace", namespace, "-o", "json")
	if err != nil {
		return nil, fmt.Errorf("kubectl command failed: %s", stderrOrError(stderr, err))
	}

	var list podList
	if err := json.Unmarshal([]byte(stdout), &list); err != nil {
		return nil, fmt.Errorf("failed to parse pod list: %w", err)
	}

	statuses := make([]types.PodStatus, 0, len(list.Items))
	for _, pod := range list.Items {
		statuses = append(statuses, types.PodStatus{
			Name:     pod.Metadata.Name,
			Phase:    pod.Status.Phase,
			Ready:    podReady(pod),
			Restarts: podRestarts(pod),
		})
	}
	return statuses, nil
}

// AllPodsReady reports whether a namespace's workloads are up per the
// readiness rule in AllReady
func (c *Client) AllPodsReady(ctx context.Context, namespace string) (bool, error) {
	statuses, err := c.PodStatuses(ctx, namespace)
	if err != nil {
		return false, err
	}
	return AllReady(statuses), nil
}

// AllReady applies the readiness rule to a pod snapshot: pods in phase
// Succeeded are one-shot init work and excluded; at least one other pod
// must exist; every non-Succeeded pod must have condition Ready=True.
func AllReady(pods []types.PodStatus) bool {
	running := 0
	for _, pod := range pods {
		if pod.Phase == "Succeeded" {
			continue
		}
		if !pod.Ready {
			return false
		}
		running++
	}
	return running > 0
}

// JobCompleted reports whether a job has a Complete=True condition
func (c *Client) JobCompleted(ctx context.Context, namespace, job string) (bool, error) {
	return c.jobCondition(ctx, namespace, job, "Complete")
}

// JobFailed reports whether a job has a Failed=True condition
func (c *Client) JobFailed(ctx context.Context, namespace, job string) (bool, error) {
	return c.jobCondition(ctx, namespace, job, "Failed")
}

func (c *Client) jobCondition(ctx context.Context, namespace, job, condition string) (bool, error) {
	stdout, stderr, err := c.exec(ctx, "get", "job", job, "--namespace", namespace, "-o", "json")
	if err != nil {
		if isNotFound(stderr) {
			return false, nil
		}
		return false, fmt.Errorf("kubectl command failed: %s", stderrOrError(stderr, err))
	}

	var j jobObject
	if err := json.Unmarshal([]byte(stdout), &j); err != nil {
		return false, fmt.Errorf("failed to parse job: %w", err)
	}

	for _, cond := range j.Status.Conditions {
		if cond.Type == condition && cond.Status == "True" {
			return true, nil
		}
	}
	return false, nil
}

// Events returns up to limit recent namespace events, newest last
func (c *Client) Events(ctx context.Context, namespace string, limit int) ([]types.Event, error) {
	stdout, stderr, err := c.exec(ctx, "get", "events", "--namespace", namespace,
		"--sort-by=.lastTimestamp", "-o", "json")
	if err != nil {
		return nil, fmt.Errorf("kubectl command failed: %s", stderrOrError(stderr, err))
	}

	var list eventList
	if err := json.Unmarshal([]byte(stdout), &list); err != nil {
		return nil, fmt.Errorf("failed to parse event list: %w", err)
	}

	items := list.Items
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}

	events := make([]types.Event, 0, len(items))
	for _, item := range items {
		events = append(events, types.Event{
			Type:      item.Type,
			Reason:    item.Reason,
			Message:   item.Message,
			Object:    fmt.Sprintf("%s/%s", item.InvolvedObject.Kind, item.InvolvedObject.Name),
			Timestamp: item.LastTimestamp,
		})
	}
	return events, nil
}

func (c *Client) exec(ctx context.Context, args ...string) (string, string, error) {
	if c.kubeconfig != "" {
		args = append(args, "--kubeconfig", c.kubeconfig)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug().Strs("args", args).Msg("executing kubectl")
	return c.run(ctx, c.binary, args...)
}

// kubectl JSON shapes, trimmed to the fields the inspector reads

type podList struct {
	Items []podObject `json:"items"`
}

type podObject struct {
	Metadata struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Status struct {
		Phase      string `json:"phase"`
		Conditions []struct {
			Type   string `json:"type"`
			Status string `json:"status"`
		} `json:"conditions"`
		ContainerStatuses []struct {
			RestartCount int `json:"restartCount"`
		} `json:"containerStatuses"`
	} `json:"status"`
}

type jobObject struct {
	Status struct {
		Conditions []struct {
			Type   string `json:"type"`
			Status string `json:"status"`
		} `json:"conditions"`
	} `json:"status"`
}

type eventList struct {
	Items []struct {
		Type           string    `json:"type"`
		Reason         string    `json:"reason"`
		Message        string    `json:"message"`
		LastTimestamp  time.Time `json:"lastTimestamp"`
		InvolvedObject struct {
			Kind string `json:"kind"`
			Name string `json:"name"`
		} `json:"involvedObject"`
	} `json:"items"`
}

func podReady(pod podObject) bool {
	for _, cond := range pod.Status.Conditions {
		if cond.Type == "Ready" && cond.Status == "True" {
			return true
		}
	}
	return false
}

func podRestarts(pod podObject) int {
	max := 0
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.RestartCount > max {
			max = cs.RestartCount
		}
	}
	return max
}

func isNotFound(stderr string) bool {
	return strings.Contains(stderr, "NotFound") || strings.Contains(stderr, "not found")
}

func stderrOrError(stderr string, err error) string {
	if s := strings.TrimSpace(stderr); s != "" {
		return s
	}
	return err.Error()
}

func execRunner(ctx context.Context, name string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

package helm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cuemby/storefront/pkg/log"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Runner executes an external command and returns stdout, stderr, and the
// execution error. Tests substitute it to avoid shelling out.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

// Client wraps the helm binary as the chart deployer
type Client struct {
	binary     string
	kubeconfig string
	timeout    time.Duration
	run        Runner
	logger     zerolog.Logger
}

// Config holds chart deployer settings
type Config struct {
	Binary     string        // defaults to "helm"
	Kubeconfig string        // empty means in-cluster
	Timeout    time.Duration // per-command timeout, defaults to 600s
}

// NewClient creates a chart deployer client
func NewClient(cfg Config) *Client {
	c := &Client{
		binary:     cfg.Binary,
		kubeconfig: cfg.Kubeconfig,
		timeout:    cfg.Timeout,
		run:        execRunner,
		logger:     log.WithComponent("helm"),
	}
	if c.binary == "" {
		c.binary = "helm"
	}
	if c.timeout == 0 {
		c.timeout = 600 * time.Second
	}
	return c
}

// InstallRequest describes one chart installation
type InstallRequest struct {
	Release         string
	ChartPath       string
	Namespace       string
	CreateNamespace bool
	Values          map[string]string
}

// InstallResult reports the outcome of an install
type InstallResult struct {
	AlreadyExists bool
	Installed     bool
	Output        string
}

// UninstallResult reports the outcome of an uninstall
type UninstallResult struct {
	AlreadyRemoved bool
	Uninstalled    bool
}

// Install installs a release. It is idempotent on the release name: if the
// release already exists the install is skipped and AlreadyExists is set,
// which makes retried provisions safe.
//
// No --wait or --atomic: chart init jobs can take minutes, and readiness
// is observed independently by the provisioner's poll loop.
func (c *Client) Install(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	exists, err := c.ReleaseExists(ctx, req.Release, req.Namespace)
	if err != nil {
		return nil, err
	}
	if exists {
		c.logger.Info().Str("release", req.Release).Msg("release already exists, skipping install")
		return &InstallResult{AlreadyExists: true}, nil
	}

	valuesFile, err := writeValuesFile(req.Values)
	if err != nil {
		return nil, err
	}
	defer os.Remove(valuesFile)

	args := []string{"install", req.Release, req.ChartPath, "--namespace", req.Namespace}
	if req.CreateNamespace {
		args = append(args, "--create-namespace")
	}
	args = append(args, "--values", valuesFile)

	stdout, stderr, err := c.exec(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("Helm command failed: %s", stderrOrError(stderr, err))
	}

	return &InstallResult{Installed: true, Output: stdout}, nil
}

// Uninstall removes a release. A release that is already gone is not an
// error.
func (c *Client) Uninstall(ctx context.Context, release, namespace string, wait bool) (*UninstallResult, error) {
	exists, err := c.ReleaseExists(ctx, release, namespace)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &UninstallResult{AlreadyRemoved: true}, nil
	}

	args := []string{"uninstall", release, "--namespace", namespace}
	if wait {
		args = append(args, "--wait")
	}

	_, stderr, err := c.exec(ctx, args...)
	if err != nil {
		if strings.Contains(stderr, "not found") {
			return &UninstallResult{AlreadyRemoved: true}, nil
		}
		return nil, fmt.Errorf("Helm command failed: %s", stderrOrError(stderr, err))
	}

	return &UninstallResult{Uninstalled: true}, nil
}

// ReleaseExists reports whether a release exists in a namespace
func (c *Client) ReleaseExists(ctx context.Context, release, namespace string) (bool, error) {
	_, stderr, err := c.exec(ctx, "status", release, "--namespace", namespace)
	if err != nil {
		if strings.Contains(stderr, "not found") {
			return false, nil
		}
		return false, fmt.Errorf("Helm command failed: %s", stderrOrError(stderr, err))
	}
	return true, nil
}

func (c *Client) exec(ctx context.Context, args ...string) (string, string, error) {
	if c.kubeconfig != "" {
		args = append(args, "--kubeconfig", c.kubeconfig)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug().Strs("args", args).Msg("executing helm")
	return c.run(ctx, c.binary, args...)
}

// writeValuesFile renders the flat dotted-key values map into a nested
// YAML file. Passing values by file keeps generated passwords out of the
// process table.
func writeValuesFile(values map[string]string) (string, error) {
	nested := make(map[string]any)
	for key, value := range values {
		node := nested
		parts := strings.Split(key, ".")
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}

	data, err := yaml.Marshal(nested)
	if err != nil {
		return "", fmt.Errorf("failed to render values: %w", err)
	}

	f, err := os.CreateTemp("", "storefront-values-*.yaml")
	if err != nil {
		return "", fmt.Errorf("failed to create values file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write values file: %w", err)
	}
	return f.Name(), nil
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

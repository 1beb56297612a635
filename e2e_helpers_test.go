//go:build !ci

package tinkerpad_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

const headlessShellImage = "chromedp/headless-shell:stable"

// chromeContainer is a headless Chrome running in Docker, reachable on a
// local debugging port.
type chromeContainer struct {
	t    *testing.T
	name string
	port int
}

// DockerChromeContext is a chromedp context bound to a chromeContainer.
type DockerChromeContext struct {
	Context    context.Context
	Cancel     context.CancelFunc
	ChromePort int
}

// SetupDockerChrome starts Chrome and returns a chromedp context that expires
// after timeout. cleanup cancels the context and removes the container.
// The test is skipped when Docker is missing.
func SetupDockerChrome(t *testing.T, timeout time.Duration) (*DockerChromeContext, func()) {
	t.Helper()

	if err := exec.Command("docker", "version").Run(); err != nil {
		t.Skip("Docker not available, skipping E2E test")
	}

	c, err := newChromeContainer(t)
	if err != nil {
		t.Fatalf("Failed to allocate Chrome port: %v", err)
	}
	if err := c.start(); err != nil {
		t.Fatalf("Failed to start Docker Chrome: %v", err)
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), c.debugURL())
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(t.Logf))
	ctx, cancel := context.WithTimeout(tabCtx, timeout)

	cleanup := func() {
		cancel()
		tabCancel()
		allocCancel()
		c.stop()
	}
	return &DockerChromeContext{Context: ctx, Cancel: cancel, ChromePort: c.port}, cleanup
}

func newChromeContainer(t *testing.T) (*chromeContainer, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return nil, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	return &chromeContainer{
		t:    t,
		name: fmt.Sprintf("chrome-e2e-tinkerpad-%d", port),
		port: port,
	}, nil
}

func (c *chromeContainer) debugURL() string {
	return fmt.Sprintf("http://localhost:%d", c.port)
}

// runArgs builds the docker run command line. Linux shares the host network
// so Chrome listens on the chosen port itself. Docker Desktop runs in a VM
// where host networking exposes nothing, so the port is mapped onto the
// image's default 9222 instead.
func (c *chromeContainer) runArgs() []string {
	args := []string{"run", "-d", "--rm", "--memory", "512m", "--cpus", "0.5", "--name", c.name}
	if runtime.GOOS == "linux" {
		return append(args, "--network", "host", headlessShellImage,
			fmt.Sprintf("--remote-debugging-port=%d", c.port))
	}
	return append(args, "-p", fmt.Sprintf("%d:9222", c.port), headlessShellImage)
}

func (c *chromeContainer) start() error {
	c.t.Helper()

	c.remove()
	if err := c.ensureImage(); err != nil {
		return err
	}

	c.t.Log("Starting Chrome headless Docker container...")
	if out, err := exec.Command("docker", c.runArgs()...).CombinedOutput(); err != nil {
		return fmt.Errorf("docker run: %w: %s", err, out)
	}

	if err := c.waitReady(60 * time.Second); err != nil {
		if logs, lerr := exec.Command("docker", "logs", "--tail", "50", c.name).CombinedOutput(); lerr == nil && len(logs) > 0 {
			c.t.Logf("Chrome container logs:\n%s", logs)
		}
		c.remove()
		return err
	}
	return nil
}

// ensureImage pulls the headless-shell image unless it is already present.
func (c *chromeContainer) ensureImage() error {
	if exec.Command("docker", "image", "inspect", headlessShellImage).Run() == nil {
		return nil
	}

	c.t.Logf("Pulling %s...", headlessShellImage)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "docker", "pull", headlessShellImage).CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.New("docker pull timed out after 60s")
	}
	if err != nil {
		return fmt.Errorf("docker pull: %w: %s", err, out)
	}
	return nil
}

// waitReady polls the DevTools version endpoint until Chrome answers.
func (c *chromeContainer) waitReady(timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)
	start := time.Now()

	var lastErr error
	for time.Now().Before(deadline) {
		resp, err := client.Get(c.debugURL() + "/json/version")
		if err == nil {
			resp.Body.Close()
			c.t.Logf("Chrome ready after %s", time.Since(start).Round(100*time.Millisecond))
			return nil
		}
		lastErr = err
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("chrome not ready after %s: %w", timeout, lastErr)
}

func (c *chromeContainer) stop() {
	c.t.Log("Stopping Chrome Docker container...")
	if out, err := exec.Command("docker", "rm", "-f", c.name).CombinedOutput(); err != nil && !strings.Contains(string(out), "No such container") {
		c.t.Logf("Warning: failed to remove %s: %v (%s)", c.name, err, out)
	}
}

// remove clears a leftover container of the same name.
func (c *chromeContainer) remove() {
	_ = exec.Command("docker", "rm", "-f", c.name).Run()
}

// WaitForServer polls url until it answers or timeout passes.
func WaitForServer(t *testing.T, url string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if resp, err := http.Get(url); err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("Server at %s not ready within %v", url, timeout)
}

// ConvertURLForDockerChrome rewrites a local httptest URL so Chrome in Docker
// can reach it: localhost under host networking, host.docker.internal when
// the container is isolated.
func ConvertURLForDockerChrome(serverURL string) string {
	host := "localhost"
	if runtime.GOOS != "linux" {
		host = "host.docker.internal"
	}
	return strings.NewReplacer(
		"127.0.0.1", host,
		"[::1]", host,
		"localhost", host,
	).Replace(serverURL)
}

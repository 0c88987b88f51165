package image

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/status"
)

// Launch starts this image as a running container and blocks until the
// process exits or ctx is cancelled, reporting its lifecycle through
// statusCh. It is meant to be run in its own goroutine by the Reactor, one
// per component, the same way the original spawns one tokio task per
// DockerImage::launch call.
func (img *Image) Launch(ctx context.Context, out writer, maxLabelLen int, statusCh chan<- status.Status) {
	statusCh <- status.AwaitingStatus()

	docker, err := img.Toolchain.Resolve("docker")
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", img.ComponentName, err)
		return
	}
	if img.NetworkName == "" {
		fmt.Fprintf(out, "%s: network name not set\n", img.ComponentName)
		return
	}

	var command, entrypoint *string
	if pdi, ok := img.Spec.BuildType.(spec.PureDockerImage); ok {
		command, entrypoint = pdi.Command, pdi.Entrypoint
	}

	args := []string{"run", "--name", img.ComponentName, "--network", img.NetworkName}
	if entrypoint != nil {
		args = append(args, "--entrypoint", *entrypoint)
	}
	if img.Port != nil && img.TargetPort != nil {
		args = append(args, "-p", fmt.Sprintf("%d:%d", *img.Port, *img.TargetPort))
	}
	for _, key := range sortedKeys(img.Spec.Dotenv) {
		args = append(args, "-e", fmt.Sprintf("%s=%s", key, img.Spec.Dotenv[key]))
	}
	for _, key := range sortedKeys(img.Spec.DotenvSecrets) {
		args = append(args, "-e", fmt.Sprintf("%s=%s", key, img.Spec.DotenvSecrets[key]))
	}
	for _, hostPath := range sortedKeys(img.Spec.Volumes) {
		args = append(args, "-v", fmt.Sprintf("%s:%s", hostPath, img.Spec.Volumes[hostPath]))
	}
	args = append(args, img.Spec.ExtraArgs...)

	tagged, err := img.TaggedImageName()
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", img.ComponentName, err)
		return
	}
	args = append(args, tagged)
	if command != nil {
		args = append(args, *command)
	}

	cmd := exec.CommandContext(context.Background(), docker, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		fmt.Fprintf(out, "%s: failed to open stdout pipe: %v\n", img.ComponentName, err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		fmt.Fprintf(out, "%s: failed to open stderr pipe: %v\n", img.ComponentName, err)
		return
	}

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(out, "%s: failed to launch %s: %v\n", img.ComponentName, tagged, err)
		return
	}
	statusCh <- status.InProgressStatus()

	label := fmt.Sprintf("%-*s", maxLabelLen, img.ComponentName)
	style := colorStyle(img.Color)

	var firstLine sync.Once
	lineCh := make(chan string)
	var pumps sync.WaitGroup
	pumps.Add(2)
	go func() { defer pumps.Done(); pumpLines(stdout, lineCh) }()
	go func() { defer pumps.Done(); pumpLines(stderr, lineCh) }()
	go func() { pumps.Wait(); close(lineCh) }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for line := range lineCh {
			firstLine.Do(func() { statusCh <- status.StartupCompletedStatus() })
			fmt.Fprintf(out, "%s |   %s\n", style.Sprint(label), line)
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		statusCh <- status.TerminateStatus()
		_ = cmd.Process.Kill()
		<-done
	}

	fmt.Fprintf(out, "%s |   %s\n", style.Sprint(label), "waiting for process to finish")
	if err := cmd.Wait(); err != nil {
		if exitErr, ok := asExitError(err); ok {
			statusCh <- status.FinishedStatus(exitErr.ExitCode())
			return
		}
		statusCh <- status.TerminateStatus()
		return
	}
	statusCh <- status.FinishedStatus(0)
}

func asExitError(err error) (*exec.ExitError, bool) {
	exitErr, ok := err.(*exec.ExitError)
	return exitErr, ok
}

func pumpLines(r io.Reader, out chan<- string) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line != "" {
			out <- line
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Kill sends `docker kill` to this component's running container, if any.
func (img *Image) Kill(ctx context.Context, out writer) error {
	docker, err := img.Toolchain.Resolve("docker")
	if err != nil {
		return fmt.Errorf("image %s: %w", img.ComponentName, err)
	}

	running, err := outputCommand(ctx, docker, []string{"ps", "-q", "-f", "name=" + img.ComponentName})
	if err != nil {
		return fmt.Errorf("image %s: failed to check running container: %w", img.ComponentName, err)
	}
	if running == "" {
		return nil
	}
	return runCommand(ctx, img.ComponentName, docker, []string{"kill", running}, out)
}

// Clean removes this component's container (running or stopped), if any.
func (img *Image) Clean(ctx context.Context, out writer) error {
	docker, err := img.Toolchain.Resolve("docker")
	if err != nil {
		return fmt.Errorf("image %s: %w", img.ComponentName, err)
	}

	existing, err := outputCommand(ctx, docker, []string{"ps", "-a", "-q", "-f", "name=" + img.ComponentName})
	if err != nil {
		return fmt.Errorf("image %s: failed to check existing container: %w", img.ComponentName, err)
	}
	if existing == "" {
		return nil
	}
	return runCommand(ctx, img.ComponentName, docker, []string{"rm", "-f", img.ComponentName}, out)
}

// KillAndClean kills then removes this component's container.
func (img *Image) KillAndClean(ctx context.Context, out writer) error {
	if err := img.Kill(ctx, out); err != nil {
		return err
	}
	return img.Clean(ctx, out)
}

// Package kubectx reads the active kubeconfig context and checks it
// against a safety whitelist before any command that can mutate a
// cluster runs, so an operator can't accidentally point `rush deploy` at
// a production context.
//
// Grounded on the teacher's pkg/kubeconfig/context.go and validator.go.
package kubectx

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/wonop-io/rush/internal/rusherr"
)

// Context is the subset of a kubeconfig context rush cares about.
type Context struct {
	Name          string
	ClusterName   string
	ClusterServer string
}

// LoadCurrentContext reads $KUBECONFIG (or ~/.kube/config) and returns its
// current context.
func LoadCurrentContext() (*Context, error) {
	path, err := kubeconfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("kubectx: failed to load kubeconfig from %s: %w", path, err)
	}

	name := cfg.CurrentContext
	if name == "" {
		return nil, fmt.Errorf("kubectx: no current context set in %s (run `kubectl config use-context <name>`)", path)
	}

	ctx, ok := cfg.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("kubectx: current context %q not found in %s", name, path)
	}

	server := ""
	if cluster, ok := cfg.Clusters[ctx.Cluster]; ok {
		server = cluster.Server
	}

	return &Context{Name: name, ClusterName: ctx.Cluster, ClusterServer: server}, nil
}

// ListAvailableContexts returns every context name declared in the active
// kubeconfig.
func ListAvailableContexts() ([]string, error) {
	path, err := kubeconfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("kubectx: failed to load kubeconfig from %s: %w", path, err)
	}
	return contextNames(cfg), nil
}

func contextNames(cfg *clientcmdapi.Config) []string {
	names := make([]string, 0, len(cfg.Contexts))
	for name := range cfg.Contexts {
		names = append(names, name)
	}
	return names
}

func kubeconfigPath() (string, error) {
	if v := os.Getenv("KUBECONFIG"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("kubectx: failed to get user home directory: %w", err)
	}
	path := filepath.Join(home, ".kube", "config")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("kubectx: no kubeconfig found ($KUBECONFIG unset, %s missing)", path)
}

// defaultAllowList is the set of context name patterns treated as safe for
// destructive operations without --force-context, matching the teacher's
// local-cluster defaults (docker-desktop, minikube, kind-*, k3d-*, any
// *-local* context, or a bare product context explicitly configured).
var defaultAllowList = []string{
	"docker-desktop", "docker-for-desktop", "minikube",
	"kind-*", "k3d-*", "*-local*", "localhost", "127.0.0.1",
}

// Validator checks the active kube-context against an allow-list, plus
// whatever context name a product's Config.KubeContext declares for the
// current environment.
type Validator struct {
	AllowList []string
	Force     bool
}

// NewValidator builds a Validator whose allow-list is the built-in local-
// cluster defaults plus configuredContext (the product's declared
// Config.KubeContext for the active environment, if set).
func NewValidator(configuredContext string, force bool) *Validator {
	allow := append([]string(nil), defaultAllowList...)
	if configuredContext != "" {
		allow = append(allow, configuredContext)
	}
	return &Validator{AllowList: allow, Force: force}
}

// Validate loads the active context and rejects it with a
// rusherr.KubeAuthError unless it matches the allow-list or Force is set.
func (v *Validator) Validate() error {
	current, err := LoadCurrentContext()
	if err != nil {
		return rusherr.KubeAuthError("failed to read active kube-context", "check KUBECONFIG / ~/.kube/config", err)
	}
	return v.validateName(current.Name)
}

func (v *Validator) validateName(name string) error {
	if v.Force || v.allowed(name) {
		return nil
	}

	available, _ := ListAvailableContexts()
	msg := fmt.Sprintf("current kube-context %q is not in the safety whitelist", name)
	suggestion := fmt.Sprintf(
		"allowed: %s; available: %s; pass --force-context to override, or `kubectl config use-context <name>`",
		strings.Join(v.AllowList, ", "), strings.Join(available, ", "),
	)
	return rusherr.KubeAuthError(msg, suggestion, nil)
}

func (v *Validator) allowed(name string) bool {
	for _, pattern := range v.AllowList {
		if matchesPattern(name, pattern) {
			return true
		}
	}
	return false
}

// BuildClientset loads the active kubeconfig (respecting $KUBECONFIG and
// falling back to ~/.kube/config) and builds a Kubernetes REST client
// against it, for the operational commands (status, logs, port-forward)
// that talk to a live cluster rather than shelling out to kubectl.
func BuildClientset() (kubernetes.Interface, *rest.Config, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	overrides := &clientcmd.ConfigOverrides{}
	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)

	restConfig, err := kubeConfig.ClientConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("kubectx: failed to load kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("kubectx: failed to create kubernetes client: %w", err)
	}

	return clientset, restConfig, nil
}

func matchesPattern(name, pattern string) bool {
	if name == pattern {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}
	re := "^" + regexp.QuoteMeta(pattern) + "$"
	re = strings.ReplaceAll(re, `\*`, ".*")
	matched, err := regexp.MatchString(re, name)
	return err == nil && matched
}

package config

import (
	"strings"
	"time"
)

// Option describes a single configuration entry: its viper key, the
// corresponding CLI flag name, the compiled default, and a
// human-readable description shown in --help output.
type Option struct {
	Key         string
	Flag        string
	Default     any
	Description string
}

// GlobalOptions are shared by every command.
var GlobalOptions = []Option{
	{Key: keyDebug, Flag: toFlag(keyDebug), Default: false, Description: "Enable debug logging"},
}

// KubeOptions configure access to the target cluster.
var KubeOptions = []Option{
	{Key: keyKubeKubeconfig, Flag: toFlag(keyKubeKubeconfig), Default: "", Description: "Path to a kubeconfig file (defaults to the standard loading rules)"},
	{Key: keyKubeContext, Flag: toFlag(keyKubeContext), Default: "", Description: "Kubeconfig context used as the default cluster"},
	{Key: keyKubeServer, Flag: toFlag(keyKubeServer), Default: "", Description: "API server URL, overrides the kubeconfig"},
	{Key: keyKubeToken, Flag: toFlag(keyKubeToken), Default: "", Description: "Bearer token"},
	{Key: keyKubeTokenFile, Flag: toFlag(keyKubeTokenFile), Default: "", Description: "File containing a bearer token"},
	{Key: keyKubeCAFile, Flag: toFlag(keyKubeCAFile), Default: "", Description: "CA bundle used to verify the API server"},
	{Key: keyKubeInsecure, Flag: toFlag(keyKubeInsecure), Default: false, Description: "Skip API server certificate verification"},
}

// GenerateOptions configure the generate command.
var GenerateOptions = []Option{
	{Key: keyGenerateSpecFile, Flag: toFlag(keyGenerateSpecFile), Default: "", Description: "YAML resource spec file; discovery is used when empty"},
	{Key: keyGenerateOutputDir, Flag: toFlag(keyGenerateOutputDir), Default: "generated", Description: "Root directory of generated clients"},
	{Key: keyGenerateConcurrency, Flag: toFlag(keyGenerateConcurrency), Default: 4, Description: "Resources generated in parallel"},
	{Key: keyGenerateRuntimePackage, Flag: toFlag(keyGenerateRuntimePackage), Default: "github.com/otterscale/kubegen/pkg/kubeclient", Description: "Import path of the client runtime"},
	{Key: keyGenerateModelPackagePrefix, Flag: toFlag(keyGenerateModelPackagePrefix), Default: "k8s.io/api", Description: "Import path prefix of discovered model packages"},
	{Key: keyGenerateGroups, Flag: toFlag(keyGenerateGroups), Default: []string{}, Description: "API groups to generate from discovery (all when empty, \"core\" for the legacy group)"},
}

// ResourceOptions select the collection served by list and watch.
var ResourceOptions = []Option{
	{Key: keyResourceGroup, Flag: toFlag(keyResourceGroup), Default: "", Description: "API group"},
	{Key: keyResourceVersion, Flag: toFlag(keyResourceVersion), Default: "v1", Description: "API version"},
	{Key: keyResourceResource, Flag: toFlag(keyResourceResource), Default: "", Description: "Resource name, optionally with a subresource (e.g. deployments/scale)"},
	{Key: keyResourceNamespace, Flag: toFlag(keyResourceNamespace), Default: "", Description: "Namespace (all namespaces when empty)"},
	{Key: keyResourceLabelSelector, Flag: toFlag(keyResourceLabelSelector), Default: "", Description: "Label selector"},
	{Key: keyResourceFieldSelector, Flag: toFlag(keyResourceFieldSelector), Default: "", Description: "Field selector"},
	{Key: keyResourceChunkSize, Flag: toFlag(keyResourceChunkSize), Default: int64(10), Description: "Items fetched per list request"},
}

// WatchOptions configure the watch command.
var WatchOptions = []Option{
	{Key: keyWatchMetricsAddress, Flag: toFlag(keyWatchMetricsAddress), Default: ":8299", Description: "Metrics and health listen address (disabled when empty)"},
	{Key: keyWatchBackoffBase, Flag: toFlag(keyWatchBackoffBase), Default: 500 * time.Millisecond, Description: "Initial reconnect backoff"},
	{Key: keyWatchBackoffMax, Flag: toFlag(keyWatchBackoffMax), Default: 30 * time.Second, Description: "Maximum reconnect backoff"},
	{Key: keyWatchForever, Flag: toFlag(keyWatchForever), Default: true, Description: "Watch indefinitely, resyncing on every invalidation"},
	{Key: keyWatchResourceVersion, Flag: toFlag(keyWatchResourceVersion), Default: "", Description: "Resource version to resume from (ignored with --forever)"},
	{Key: keyWatchMaxRetries, Flag: toFlag(keyWatchMaxRetries), Default: 5, Description: "Reconnects without progress before giving up (ignored with --forever)"},
}

// toFlag converts a viper key like "generate.output_dir" into a CLI
// flag like "output-dir" by lower-casing, replacing dots and
// underscores with hyphens, and stripping the section prefix.
func toFlag(key string) string {
	flag := strings.ToLower(key)
	flag = strings.ReplaceAll(flag, ".", "-")
	flag = strings.ReplaceAll(flag, "_", "-")
	for _, prefix := range []string{"kube-", "generate-", "resource-", "watch-"} {
		flag = strings.TrimPrefix(flag, prefix)
	}
	return flag
}

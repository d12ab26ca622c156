// Package config provides unified configuration loading from files,
// environment variables, and CLI flags using viper and pflag.
//
// Resolution order (highest wins):
//  1. CLI flags
//  2. Environment variables (prefix KUBEGEN_)
//  3. Config file (config.yaml in . or /etc/kubegen/)
//  4. Compiled defaults
package config

// Viper keys for cluster access. They are opaque inputs to transport
// construction.
const (
	keyKubeKubeconfig = "kube.kubeconfig"
	keyKubeContext    = "kube.context"
	keyKubeServer     = "kube.server"
	keyKubeToken      = "kube.token"
	keyKubeTokenFile  = "kube.token_file"
	keyKubeCAFile     = "kube.ca_file"
	keyKubeInsecure   = "kube.insecure"
)

// Viper keys for client generation.
const (
	keyGenerateSpecFile           = "generate.spec_file"
	keyGenerateOutputDir          = "generate.output_dir"
	keyGenerateConcurrency        = "generate.concurrency"
	keyGenerateRuntimePackage     = "generate.runtime_package"
	keyGenerateModelPackagePrefix = "generate.model_package_prefix"
	keyGenerateGroups             = "generate.groups"
)

// Viper keys selecting the collection served by list and watch.
const (
	keyResourceGroup         = "resource.group"
	keyResourceVersion       = "resource.version"
	keyResourceResource      = "resource.resource"
	keyResourceNamespace     = "resource.namespace"
	keyResourceLabelSelector = "resource.label_selector"
	keyResourceFieldSelector = "resource.field_selector"
	keyResourceChunkSize     = "resource.chunk_size"
)

// Viper keys for watch mode.
const (
	keyWatchMetricsAddress  = "watch.metrics_address"
	keyWatchBackoffBase     = "watch.backoff_base"
	keyWatchBackoffMax      = "watch.backoff_max"
	keyWatchForever         = "watch.forever"
	keyWatchResourceVersion = "watch.resource_version"
	keyWatchMaxRetries      = "watch.max_retries"
)

const keyDebug = "debug"

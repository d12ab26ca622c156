package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	v *viper.Viper
}

func New() (*Config, error) {
	v := viper.New()

	// default values
	for _, options := range [][]Option{GlobalOptions, KubeOptions, GenerateOptions, ResourceOptions, WatchOptions} {
		for _, o := range options {
			v.SetDefault(o.Key, o.Default)
		}
	}

	// load config from file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/kubegen/")

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// load config from environment variables
	v.SetEnvPrefix("KUBEGEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return &Config{v: v}, nil
}

// RegisterFlags defines one flag per option on fs. Flags are bound to
// viper separately by BindFlags, once the command that owns fs runs.
func RegisterFlags(fs *pflag.FlagSet, options []Option) error {
	for _, o := range options {
		switch v := o.Default.(type) {
		case string:
			fs.String(o.Flag, v, o.Description)
		case int:
			fs.Int(o.Flag, v, o.Description)
		case int64:
			fs.Int64(o.Flag, v, o.Description)
		case bool:
			fs.Bool(o.Flag, v, o.Description)
		case []string:
			fs.StringSlice(o.Flag, v, o.Description)
		case time.Duration:
			fs.Duration(o.Flag, v, o.Description)
		default:
			return fmt.Errorf("unsupported flag type for key: %s", o.Key)
		}
	}
	return nil
}

// BindFlags binds the flags previously registered on fs to their viper
// keys.
func (c *Config) BindFlags(fs *pflag.FlagSet, options []Option) error {
	for _, o := range options {
		flag := fs.Lookup(o.Flag)
		if flag == nil {
			return fmt.Errorf("flag %s not registered", o.Flag)
		}
		if err := c.v.BindPFlag(o.Key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.Flag, err)
		}
	}
	return nil
}

func (c *Config) Debug() bool {
	return c.v.GetBool(keyDebug) // KUBEGEN_DEBUG
}

func (c *Config) KubeKubeconfig() string {
	return c.v.GetString(keyKubeKubeconfig) // KUBEGEN_KUBE_KUBECONFIG
}

func (c *Config) KubeContext() string {
	return c.v.GetString(keyKubeContext) // KUBEGEN_KUBE_CONTEXT
}

func (c *Config) KubeServer() string {
	return c.v.GetString(keyKubeServer) // KUBEGEN_KUBE_SERVER
}

func (c *Config) KubeToken() string {
	return c.v.GetString(keyKubeToken) // KUBEGEN_KUBE_TOKEN
}

func (c *Config) KubeTokenFile() string {
	return c.v.GetString(keyKubeTokenFile) // KUBEGEN_KUBE_TOKEN_FILE
}

func (c *Config) KubeCAFile() string {
	return c.v.GetString(keyKubeCAFile) // KUBEGEN_KUBE_CA_FILE
}

func (c *Config) KubeInsecure() bool {
	return c.v.GetBool(keyKubeInsecure) // KUBEGEN_KUBE_INSECURE
}

func (c *Config) GenerateSpecFile() string {
	return c.v.GetString(keyGenerateSpecFile) // KUBEGEN_GENERATE_SPEC_FILE
}

func (c *Config) GenerateOutputDir() string {
	return c.v.GetString(keyGenerateOutputDir) // KUBEGEN_GENERATE_OUTPUT_DIR
}

func (c *Config) GenerateConcurrency() int {
	return c.v.GetInt(keyGenerateConcurrency) // KUBEGEN_GENERATE_CONCURRENCY
}

func (c *Config) GenerateRuntimePackage() string {
	return c.v.GetString(keyGenerateRuntimePackage) // KUBEGEN_GENERATE_RUNTIME_PACKAGE
}

func (c *Config) GenerateModelPackagePrefix() string {
	return c.v.GetString(keyGenerateModelPackagePrefix) // KUBEGEN_GENERATE_MODEL_PACKAGE_PREFIX
}

func (c *Config) GenerateGroups() []string {
	return c.v.GetStringSlice(keyGenerateGroups) // KUBEGEN_GENERATE_GROUPS
}

func (c *Config) ResourceGroup() string {
	return c.v.GetString(keyResourceGroup) // KUBEGEN_RESOURCE_GROUP
}

func (c *Config) ResourceVersion() string {
	return c.v.GetString(keyResourceVersion) // KUBEGEN_RESOURCE_VERSION
}

func (c *Config) ResourceName() string {
	return c.v.GetString(keyResourceResource) // KUBEGEN_RESOURCE_RESOURCE
}

func (c *Config) ResourceNamespace() string {
	return c.v.GetString(keyResourceNamespace) // KUBEGEN_RESOURCE_NAMESPACE
}

func (c *Config) ResourceLabelSelector() string {
	return c.v.GetString(keyResourceLabelSelector) // KUBEGEN_RESOURCE_LABEL_SELECTOR
}

func (c *Config) ResourceFieldSelector() string {
	return c.v.GetString(keyResourceFieldSelector) // KUBEGEN_RESOURCE_FIELD_SELECTOR
}

func (c *Config) ResourceChunkSize() int64 {
	return c.v.GetInt64(keyResourceChunkSize) // KUBEGEN_RESOURCE_CHUNK_SIZE
}

func (c *Config) WatchMetricsAddress() string {
	return c.v.GetString(keyWatchMetricsAddress) // KUBEGEN_WATCH_METRICS_ADDRESS
}

func (c *Config) WatchBackoffBase() time.Duration {
	return c.v.GetDuration(keyWatchBackoffBase) // KUBEGEN_WATCH_BACKOFF_BASE
}

func (c *Config) WatchBackoffMax() time.Duration {
	return c.v.GetDuration(keyWatchBackoffMax) // KUBEGEN_WATCH_BACKOFF_MAX
}

func (c *Config) WatchForever() bool {
	return c.v.GetBool(keyWatchForever) // KUBEGEN_WATCH_FOREVER
}

func (c *Config) WatchResourceVersion() string {
	return c.v.GetString(keyWatchResourceVersion) // KUBEGEN_WATCH_RESOURCE_VERSION
}

func (c *Config) WatchMaxRetries() int {
	return c.v.GetInt(keyWatchMaxRetries) // KUBEGEN_WATCH_MAX_RETRIES
}

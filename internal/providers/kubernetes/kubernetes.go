package kubernetes

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/otterscale/kubegen/internal/config"
)

// userAgent is sent with every request to the API server.
const userAgent = "kubegen"

// Options are the cluster access inputs. Cluster names passed to
// ConfigFor are kubeconfig context names; the empty name selects
// Context, or the kubeconfig's current context when Context is empty.
type Options struct {
	Kubeconfig string
	Context    string
	Server     string
	Token      string
	TokenFile  string
	CAFile     string
	Insecure   bool
}

// Kubernetes resolves and caches one *rest.Config per cluster.
type Kubernetes struct {
	opts    Options
	configs sync.Map // map[string]*rest.Config, keyed by cluster name
	log     *slog.Logger
}

func New(conf *config.Config) *Kubernetes {
	return NewWithOptions(Options{
		Kubeconfig: conf.KubeKubeconfig(),
		Context:    conf.KubeContext(),
		Server:     conf.KubeServer(),
		Token:      conf.KubeToken(),
		TokenFile:  conf.KubeTokenFile(),
		CAFile:     conf.KubeCAFile(),
		Insecure:   conf.KubeInsecure(),
	})
}

func NewWithOptions(opts Options) *Kubernetes {
	return &Kubernetes{
		opts: opts,
		log:  slog.Default().With("component", "kubernetes"),
	}
}

// ConfigFor returns the REST config of cluster. The returned config is
// shared; callers must copy it before modifying it.
func (k *Kubernetes) ConfigFor(cluster string) (*rest.Config, error) {
	if cfg, ok := k.configs.Load(cluster); ok {
		return cfg.(*rest.Config), nil
	}

	cfg, err := k.buildConfig(cluster)
	if err != nil {
		return nil, err
	}
	cfg.UserAgent = userAgent

	actual, _ := k.configs.LoadOrStore(cluster, cfg)
	return actual.(*rest.Config), nil
}

func (k *Kubernetes) buildConfig(cluster string) (*rest.Config, error) {
	kubeContext := cluster
	if kubeContext == "" {
		kubeContext = k.opts.Context
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if k.opts.Kubeconfig != "" {
		rules.ExplicitPath = k.opts.Kubeconfig
	}

	overrides := &clientcmd.ConfigOverrides{
		CurrentContext: kubeContext,
		ClusterInfo: clientcmdapi.Cluster{
			Server:                k.opts.Server,
			CertificateAuthority:  k.opts.CAFile,
			InsecureSkipTLSVerify: k.opts.Insecure,
		},
		AuthInfo: clientcmdapi.AuthInfo{
			Token:     k.opts.Token,
			TokenFile: k.opts.TokenFile,
		},
	}

	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err == nil {
		return cfg, nil
	}
	if !clientcmd.IsEmptyConfig(err) || kubeContext != "" {
		return nil, fmt.Errorf("load kubeconfig for cluster %q: %w", cluster, err)
	}

	// No kubeconfig at all: use explicit flags, or the in-cluster
	// service account.
	if k.opts.Server != "" {
		return k.directConfig(), nil
	}

	k.log.Debug("no kubeconfig found, using in-cluster config")
	cfg, inClusterErr := rest.InClusterConfig()
	if inClusterErr != nil {
		return nil, errors.Join(err, inClusterErr)
	}
	return cfg, nil
}

func (k *Kubernetes) directConfig() *rest.Config {
	return &rest.Config{
		Host:            k.opts.Server,
		BearerToken:     k.opts.Token,
		BearerTokenFile: k.opts.TokenFile,
		TLSClientConfig: rest.TLSClientConfig{
			CAFile:   k.opts.CAFile,
			Insecure: k.opts.Insecure,
		},
	}
}

package kubernetes

import (
	"os"
	"path/filepath"
	"testing"
)

const testKubeconfig = `apiVersion: v1
kind: Config
current-context: dev
clusters:
- name: dev
  cluster:
    server: https://dev.example.com:6443
- name: prod
  cluster:
    server: https://prod.example.com:6443
users:
- name: admin
  user:
    token: dev-token
contexts:
- name: dev
  context:
    cluster: dev
    user: admin
- name: prod
  context:
    cluster: prod
    user: admin
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(testKubeconfig), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigForContexts(t *testing.T) {
	kubeconfig := writeKubeconfig(t)

	tests := []struct {
		name    string
		opts    Options
		cluster string
		host    string
	}{
		{name: "current context", opts: Options{Kubeconfig: kubeconfig}, cluster: "", host: "https://dev.example.com:6443"},
		{name: "named cluster", opts: Options{Kubeconfig: kubeconfig}, cluster: "prod", host: "https://prod.example.com:6443"},
		{name: "default context option", opts: Options{Kubeconfig: kubeconfig, Context: "prod"}, cluster: "", host: "https://prod.example.com:6443"},
		{name: "cluster wins over context option", opts: Options{Kubeconfig: kubeconfig, Context: "prod"}, cluster: "dev", host: "https://dev.example.com:6443"},
		{name: "server override", opts: Options{Kubeconfig: kubeconfig, Server: "https://other:6443"}, cluster: "dev", host: "https://other:6443"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewWithOptions(tt.opts).ConfigFor(tt.cluster)
			if err != nil {
				t.Fatalf("ConfigFor(%q): %v", tt.cluster, err)
			}
			if cfg.Host != tt.host {
				t.Errorf("Host = %q, want %q", cfg.Host, tt.host)
			}
			if cfg.UserAgent != userAgent {
				t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, userAgent)
			}
		})
	}
}

func TestConfigForTokenOverride(t *testing.T) {
	k := NewWithOptions(Options{Kubeconfig: writeKubeconfig(t), Token: "override"})

	cfg, err := k.ConfigFor("dev")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BearerToken != "override" {
		t.Errorf("BearerToken = %q, want override", cfg.BearerToken)
	}
}

func TestConfigForCachesPerCluster(t *testing.T) {
	k := NewWithOptions(Options{Kubeconfig: writeKubeconfig(t)})

	first, err := k.ConfigFor("prod")
	if err != nil {
		t.Fatal(err)
	}
	second, err := k.ConfigFor("prod")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("ConfigFor built a second config for the same cluster")
	}

	dev, err := k.ConfigFor("dev")
	if err != nil {
		t.Fatal(err)
	}
	if dev == first {
		t.Error("ConfigFor shared a config across clusters")
	}
}

func TestConfigForUnknownContext(t *testing.T) {
	k := NewWithOptions(Options{Kubeconfig: writeKubeconfig(t)})

	if _, err := k.ConfigFor("staging"); err == nil {
		t.Fatal("expected an error for an unknown context")
	}
}

func TestDirectConfig(t *testing.T) {
	k := NewWithOptions(Options{
		Server:    "https://10.0.0.1:6443",
		Token:     "secret",
		TokenFile: "/var/run/token",
		CAFile:    "/etc/ca.crt",
		Insecure:  true,
	})

	cfg := k.directConfig()
	if cfg.Host != "https://10.0.0.1:6443" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.BearerToken != "secret" || cfg.BearerTokenFile != "/var/run/token" {
		t.Errorf("token = %q, token file = %q", cfg.BearerToken, cfg.BearerTokenFile)
	}
	if cfg.CAFile != "/etc/ca.crt" || !cfg.Insecure {
		t.Errorf("TLS = %+v", cfg.TLSClientConfig)
	}
}

package kubeclient

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestWatchProtocol(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "kubeclient watch protocol")
}

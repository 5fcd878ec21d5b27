package anat_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAnat(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Anat Suite")
}

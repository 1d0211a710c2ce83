package sftpstore_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSFTPStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SFTP Store Suite")
}

package cmd

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"
)

var _ = Describe("Environment defaults", func() {
	It("should name the variable after the flag", func() {
		Expect(EnvName("net-latency")).To(Equal("PROTOENGINE_NET_LATENCY"))
		Expect(EnvName("nodes")).To(Equal("PROTOENGINE_NODES"))
	})

	Context("when applying the environment", func() {
		var (
			flags      *pflag.FlagSet
			nodes      int
			netLatency int
		)

		BeforeEach(func() {
			flags = pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.IntVar(&nodes, "nodes", 4, "")
			flags.IntVar(&netLatency, "net-latency", 20, "")
		})

		It("should fill the flags not given on the command line", func() {
			GinkgoT().Setenv("PROTOENGINE_NODES", "9")
			GinkgoT().Setenv("PROTOENGINE_NET_LATENCY", "7")

			Expect(flags.Parse([]string{"--nodes=3"})).To(Succeed())
			Expect(applyEnv(flags)).To(Succeed())

			Expect(nodes).To(Equal(3))
			Expect(netLatency).To(Equal(7))
		})

		It("should keep the defaults without variables", func() {
			Expect(flags.Parse(nil)).To(Succeed())
			Expect(applyEnv(flags)).To(Succeed())

			Expect(nodes).To(Equal(4))
			Expect(netLatency).To(Equal(20))
		})

		It("should report a bad value", func() {
			GinkgoT().Setenv("PROTOENGINE_NET_LATENCY", "fast")

			Expect(flags.Parse(nil)).To(Succeed())

			err := applyEnv(flags)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("PROTOENGINE_NET_LATENCY"))
		})
	})

	Context("when loading an env file", func() {
		It("should ignore a missing file", func() {
			path := filepath.Join(GinkgoT().TempDir(), ".env")
			Expect(loadEnvFile(path)).To(Succeed())
			Expect(loadEnvFile("")).To(Succeed())
		})

		It("should export the variables of the file", func() {
			path := filepath.Join(GinkgoT().TempDir(), ".env")
			Expect(os.WriteFile(path,
				[]byte("PROTOENGINE_TEST_SEED=42\n"), 0o644)).To(Succeed())
			DeferCleanup(os.Unsetenv, "PROTOENGINE_TEST_SEED")

			Expect(loadEnvFile(path)).To(Succeed())
			Expect(os.Getenv("PROTOENGINE_TEST_SEED")).To(Equal("42"))
		})
	})
})

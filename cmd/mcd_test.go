package cmd

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/protoengine/protocol/home"
	"github.com/sarchlab/protoengine/protocol/microcode"
	"github.com/sarchlab/protoengine/protocol/msi"
	"github.com/sarchlab/protoengine/protocol/remote"
)

func execute(args ...string) (string, error) {
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(append(args, "--env-file", ""))

	err := rootCmd.Execute()

	return out.String(), err
}

var _ = Describe("Microcode check", func() {
	It("should accept the MSI home program", func() {
		entries, problems := checkProgram(msi.HomeProgram(), home.EntryPointName)

		Expect(problems).To(BeEmpty())
		Expect(entries).To(Equal(17))
	})

	It("should accept the MSI remote program", func() {
		entries, problems := checkProgram(msi.RemoteProgram(), remote.EntryPointName)

		Expect(problems).To(BeEmpty())
		Expect(entries).To(BeNumerically(">", 0))
	})

	It("should report a jump to an empty address", func() {
		p := microcode.NewProgram(home.Magic, "broken")
		Expect(p.Set(home.EPLocalRead, microcode.Instruction{
			Op:   home.OpNop,
			Next: 40,
			Memo: "read",
		})).To(Succeed())
		Expect(p.Set(home.EPError, microcode.Instruction{
			Op:   home.OpNop,
			Next: microcode.HaltAddress,
		})).To(Succeed())

		entries, problems := checkProgram(p, home.EntryPointName)

		Expect(entries).To(Equal(2))
		Expect(problems).To(ConsistOf(
			"address 40 reached from read holds no instruction"))
	})
})

var _ = Describe("Mcd command", func() {
	It("should dump a built-in program", func() {
		out, err := execute("mcd", "dump", "remote")
		Expect(err).NotTo(HaveOccurred())

		p, err := microcode.Load(bytes.NewBufferString(out), remote.Magic)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Code).To(Equal(msi.RemoteProgram().Code))
	})

	It("should check a microcode file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "remote.mcd")
		buf := new(bytes.Buffer)
		Expect(msi.RemoteProgram().Write(buf)).To(Succeed())
		Expect(os.WriteFile(path, buf.Bytes(), 0o644)).To(Succeed())

		out, err := execute("mcd", "check", "--kind", "remote", path)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("6477 msi-remote"))
	})

	It("should refuse a file of the other engine", func() {
		path := filepath.Join(GinkgoT().TempDir(), "remote.mcd")
		buf := new(bytes.Buffer)
		Expect(msi.RemoteProgram().Write(buf)).To(Succeed())
		Expect(os.WriteFile(path, buf.Bytes(), 0o644)).To(Succeed())

		_, err := execute("mcd", "check", "--kind", "home", path)

		Expect(err).To(MatchError(microcode.ErrBadMagic))
	})

	It("should refuse an unknown kind", func() {
		_, err := loadMCD("some.mcd", "directory")

		Expect(err).To(HaveOccurred())
	})
})

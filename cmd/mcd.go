package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/protoengine/protocol/home"
	"github.com/sarchlab/protoengine/protocol/microcode"
	"github.com/sarchlab/protoengine/protocol/msi"
	"github.com/sarchlab/protoengine/protocol/remote"
)

var mcdKind string

var mcdCmd = &cobra.Command{
	Use:   "mcd",
	Short: "Inspect microcode files.",
}

var mcdDumpCmd = &cobra.Command{
	Use:   "dump [home|remote|FILE]",
	Short: "Print a microcode program in the file format.",
	Long: "`mcd dump home` and `mcd dump remote` print the built-in MSI " +
		"programs. Given a file, dump loads it as a --kind program and " +
		"prints it back.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadMCD(args[0], mcdKind)
		if err != nil {
			return err
		}

		return p.Write(cmd.OutOrStdout())
	},
}

var mcdCheckCmd = &cobra.Command{
	Use:   "check [home|remote|FILE]",
	Short: "Check that every path of a microcode program is loaded.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadMCD(args[0], mcdKind)
		if err != nil {
			return err
		}

		entryName := home.EntryPointName
		if p.Magic == remote.Magic {
			entryName = remote.EntryPointName
		}

		entries, problems := checkProgram(p, entryName)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d instructions, %d entry points\n",
			p.ID, p.Len, entries)

		for _, problem := range problems {
			fmt.Fprintln(out, problem)
		}

		if len(problems) > 0 {
			return fmt.Errorf("%d problems found", len(problems))
		}

		return nil
	},
}

func init() {
	mcdCmd.PersistentFlags().StringVar(&mcdKind, "kind", "home",
		"Engine a microcode file is written for, home or remote.")

	mcdCmd.AddCommand(mcdDumpCmd)
	mcdCmd.AddCommand(mcdCheckCmd)
	rootCmd.AddCommand(mcdCmd)
}

func loadMCD(arg, kind string) (*microcode.Program, error) {
	switch arg {
	case "home":
		return msi.HomeProgram(), nil
	case "remote":
		return msi.RemoteProgram(), nil
	}

	switch kind {
	case "home":
		return microcode.LoadFile(arg, home.Magic)
	case "remote":
		return microcode.LoadFile(arg, remote.Magic)
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

// checkProgram follows the next addresses from every loaded entry point and
// reports the addresses reached that hold no instruction. Jumping to the
// halt address is always allowed.
func checkProgram(
	p *microcode.Program,
	entryName func(pc int) string,
) (entries int, problems []string) {
	seen := make(map[int]bool)

	for ep := 1; ep < 32; ep++ {
		name := entryName(ep)
		if name == "" || !p.Code[ep].Loaded {
			continue
		}

		entries++

		pc := ep
		from := name
		for !seen[pc] {
			seen[pc] = true

			inst := p.Code[pc]
			if !inst.Loaded {
				problems = append(problems, fmt.Sprintf(
					"address %d reached from %s holds no instruction", pc, from))
				break
			}

			if inst.Next == microcode.HaltAddress {
				break
			}

			if inst.Memo != "" {
				from = inst.Memo
			}

			pc = inst.Next
		}
	}

	return entries, problems
}

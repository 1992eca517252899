package microcode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Load reads a microcode file. The first line starts with the magic number
// and identifies the program. Every following line holds
// "addr op a1 a2 a3 next", optionally followed by a ";memo".
func Load(r io.Reader, magic uint32) (*Program, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return nil, fmt.Errorf("%w: empty file", ErrBadMagic)
	}

	header := strings.TrimSpace(scanner.Text())
	fields := strings.Fields(header)

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty header", ErrBadMagic)
	}

	got, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil || uint32(got) != magic {
		return nil, fmt.Errorf("%w: got %q, expected %d",
			ErrBadMagic, fields[0], magic)
	}

	p := &Program{Magic: magic, ID: header}

	lineNo := 1
	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if p.Len >= Size {
			return nil, fmt.Errorf("%w: more than %d instructions",
				ErrIllegalInstruction, Size)
		}

		addr, inst, err := parseInstruction(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if err := p.Set(addr, inst); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

func parseInstruction(line string) (int, Instruction, error) {
	code, memo, _ := strings.Cut(line, ";")
	fields := strings.Fields(code)

	if len(fields) != 6 {
		return 0, Instruction{}, fmt.Errorf("%w: %q", ErrIllegalInstruction, line)
	}

	var v [6]uint64
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return 0, Instruction{},
				fmt.Errorf("%w: %q", ErrIllegalInstruction, line)
		}

		v[i] = n
	}

	inst := Instruction{
		Op:   int(v[1]),
		Args: EncodeArgs(uint32(v[2]), uint32(v[3]), uint32(v[4])),
		Next: int(v[5]),
		Memo: strings.TrimSpace(memo),
	}

	return int(v[0]), inst, nil
}

// LoadFile reads a microcode file from disk.
func LoadFile(path string, magic uint32) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Load(f, magic)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// Write stores the program in the format Load reads.
func (p *Program) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, p.ID)

	for addr, inst := range p.Code {
		if !inst.Loaded {
			continue
		}

		a1, a2, a3 := inst.Fields()
		fmt.Fprintf(bw, "%d %d %d %d %d %d", addr, inst.Op, a1, a2, a3, inst.Next)

		if inst.Memo != "" {
			fmt.Fprintf(bw, " ;%s", inst.Memo)
		}

		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

// WriteCounters stores the program ID followed by one execution count per
// address.
func (p *Program) WriteCounters(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, p.ID)

	for _, c := range p.Counts {
		fmt.Fprintln(bw, c)
	}

	return bw.Flush()
}

// ReadCounters restores execution counters saved by WriteCounters. Counters
// saved for another program are ignored and reported with ok set to false.
func (p *Program) ReadCounters(r io.Reader) (ok bool, err error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != p.ID {
		return false, scanner.Err()
	}

	var counts [Size]uint64

	i := 0
	for ; i < Size && scanner.Scan(); i++ {
		n, err := strconv.ParseUint(strings.TrimSpace(scanner.Text()), 10, 64)
		if err != nil {
			break
		}

		counts[i] = n
	}

	if i < Size {
		return false, fmt.Errorf("%w: %d of %d counters",
			ErrTruncatedCounters, i, Size)
	}

	p.Counts = counts

	return true, nil
}

// SaveCounters writes the counters to a file.
func (p *Program) SaveCounters(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := p.WriteCounters(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// RestoreCounters reads the counters from a file if it exists.
func (p *Program) RestoreCounters(path string) (bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, err
	}
	defer f.Close()

	return p.ReadCounters(f)
}

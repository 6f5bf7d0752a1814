package interp

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a readable listing of u to w.
func Dump(w io.Writer, u *Unit) error {
	var b strings.Builder
	fmt.Fprintf(&b, "fn %s(%s)\n", u.Name, strings.Join(u.Params, ", "))
	if len(u.Locals) > 0 {
		fmt.Fprintf(&b, "  locals: %s\n", strings.Join(u.Locals, " "))
	}
	for pc, in := range u.Code {
		fmt.Fprintf(&b, "  %04d  %-12s", pc, in.Op)
		switch in.Op {
		case OpConst:
			fmt.Fprintf(&b, "%d ; %s", in.A, u.Consts[in.A])
		case OpLoad, OpStore, OpAddr, OpStoreIndex, OpIter:
			fmt.Fprintf(&b, "%d ; %s", in.A, u.Locals[in.A])
		case OpNext:
			fmt.Fprintf(&b, "%d -> %04d", in.A, in.B)
		case OpJump, OpJumpFalse:
			fmt.Fprintf(&b, "%04d", in.A)
		case OpCall:
			fmt.Fprintf(&b, "%s/%d", in.Name, in.A)
		case OpArray, OpTuple, OpDebug:
			fmt.Fprintf(&b, "%d", in.A)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, trimLines(b.String()))
	return err
}

// DumpProgram writes every unit of p, sorted by name.
func DumpProgram(w io.Writer, p *Program) error {
	for i, u := range p.Units() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := Dump(w, u); err != nil {
			return err
		}
	}
	return nil
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// Statement kinds.
const (
	opAlloc   = "alloc"
	opCalloc  = "calloc"
	opRealloc = "realloc"
	opFree    = "free"
	opFill    = "fill"
	opCheck   = "check"
	opDump    = "dump"
	opStats   = "stats"
	opVerify  = "verify"
)

// nilName is the reserved operand for the null reference.
const nilName = "nil"

var errSyntax = errors.New("syntax error")

// statement is one parsed script line.
//
//	<name> = alloc <size>
//	<name> = calloc <count> <size>
//	<name> = realloc <name|nil> <size>
//	free <name|nil>
//	fill <name> <byte>
//	check <name> <byte> <n>
//	dump | stats | verify
type statement struct {
	Line   int
	Text   string
	Op     string
	Target string // assigned variable, empty for non-assigning ops
	Ref    string // variable operand
	Nums   []int
}

func (s statement) String() string {
	return fmt.Sprintf("line %d: %s", s.Line, s.Text)
}

// parseScript reads statements from r. Blank lines and # comments are skipped.
func parseScript(r io.Reader) ([]statement, error) {
	var stmts []statement
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		s, err := parseStatement(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		s.Line, s.Text = line, text
		stmts = append(stmts, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return stmts, nil
}

func parseStatement(text string) (statement, error) {
	fields := strings.Fields(text)
	var s statement

	if len(fields) >= 2 && fields[1] == "=" {
		s.Target = fields[0]
		if err := checkName(s.Target); err != nil {
			return s, err
		}
		fields = fields[2:]
		if len(fields) == 0 {
			return s, fmt.Errorf("%w: missing operation after =", errSyntax)
		}
	}

	s.Op = fields[0]
	args := fields[1:]

	switch s.Op {
	case opAlloc:
		return s, s.parse(args, false, 1, true)
	case opCalloc:
		return s, s.parse(args, false, 2, true)
	case opRealloc:
		return s, s.parse(args, true, 1, true)
	case opFree:
		return s, s.parse(args, true, 0, false)
	case opFill:
		if err := s.parse(args, true, 1, false); err != nil {
			return s, err
		}
		return s, checkByte(s.Nums[0])
	case opCheck:
		if err := s.parse(args, true, 2, false); err != nil {
			return s, err
		}
		return s, checkByte(s.Nums[0])
	case opDump, opStats, opVerify:
		return s, s.parse(args, false, 0, false)
	default:
		return s, fmt.Errorf("%w: unknown operation %q", errSyntax, s.Op)
	}
}

// parse fills Ref and Nums from args and checks whether the statement
// assigns a result.
func (s *statement) parse(args []string, ref bool, nums int, assigns bool) error {
	if assigns && s.Target == "" {
		return fmt.Errorf("%w: %s needs a target: <name> = %s ...", errSyntax, s.Op, s.Op)
	}
	if !assigns && s.Target != "" {
		return fmt.Errorf("%w: %s does not return a value", errSyntax, s.Op)
	}

	want := nums
	if ref {
		want++
	}
	if len(args) != want {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", errSyntax, s.Op, want, len(args))
	}

	if ref {
		s.Ref = args[0]
		if s.Ref != nilName {
			if err := checkName(s.Ref); err != nil {
				return err
			}
		}
		args = args[1:]
	}
	for _, a := range args {
		n, err := strconv.ParseInt(a, 0, 64)
		if err != nil {
			return fmt.Errorf("%w: bad number %q", errSyntax, a)
		}
		if n < 0 || n > int64(maxInt) {
			return fmt.Errorf("%w: number %q out of range", errSyntax, a)
		}
		s.Nums = append(s.Nums, int(n))
	}
	return nil
}

const maxInt = int(^uint(0) >> 1)

func checkName(name string) error {
	if name == nilName {
		return fmt.Errorf("%w: %q is reserved", errSyntax, name)
	}
	for i, r := range name {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !letter && (i == 0 || r < '0' || r > '9') {
			return fmt.Errorf("%w: bad name %q", errSyntax, name)
		}
	}
	return nil
}

func checkByte(n int) error {
	if n > 0xff {
		return fmt.Errorf("%w: byte value %d out of range", errSyntax, n)
	}
	return nil
}

// session runs statements against one allocator and keeps the variable table.
type session struct {
	a    *alloc.Allocator
	vars map[string]alloc.Ref

	// hooks for dump/stats statements
	dump   func() error
	report func() error
}

func newSession(a *alloc.Allocator) *session {
	return &session{a: a, vars: make(map[string]alloc.Ref)}
}

// exec runs one statement. The returned string describes the result for
// verbose output.
func (s *session) exec(st statement) (string, error) {
	switch st.Op {
	case opAlloc:
		ref, err := s.a.Allocate(st.Nums[0])
		if err != nil {
			return "", err
		}
		return s.assign(st.Target, ref), nil

	case opCalloc:
		ref, err := s.a.ZeroAllocate(st.Nums[0], st.Nums[1])
		if err != nil {
			return "", err
		}
		return s.assign(st.Target, ref), nil

	case opRealloc:
		old, err := s.lookup(st.Ref)
		if err != nil {
			return "", err
		}
		ref, err := s.a.Reallocate(old, st.Nums[0])
		if err != nil {
			return "", err
		}
		if st.Ref != nilName && st.Ref != st.Target {
			s.vars[st.Ref] = alloc.Nil
		}
		return s.assign(st.Target, ref), nil

	case opFree:
		ref, err := s.lookup(st.Ref)
		if err != nil {
			return "", err
		}
		if err := s.a.Deallocate(ref); err != nil {
			return "", err
		}
		return fmt.Sprintf("freed %s", st.Ref), nil

	case opFill:
		p, err := s.payload(st.Ref)
		if err != nil {
			return "", err
		}
		for i := range p {
			p[i] = byte(st.Nums[0])
		}
		return fmt.Sprintf("filled %d bytes of %s with 0x%02x", len(p), st.Ref, st.Nums[0]), nil

	case opCheck:
		p, err := s.payload(st.Ref)
		if err != nil {
			return "", err
		}
		want, n := byte(st.Nums[0]), st.Nums[1]
		if n > len(p) {
			return "", fmt.Errorf("check %s: %d bytes requested, block holds %d", st.Ref, n, len(p))
		}
		for i := range n {
			if p[i] != want {
				return "", fmt.Errorf("check %s: byte %d is 0x%02x, want 0x%02x", st.Ref, i, p[i], want)
			}
		}
		return fmt.Sprintf("%s holds %d bytes of 0x%02x", st.Ref, n, want), nil

	case opDump:
		return "", s.dump()

	case opStats:
		return "", s.report()

	case opVerify:
		if err := s.a.Verify(); err != nil {
			return "", err
		}
		return "heap ok", nil
	}
	return "", fmt.Errorf("%w: unknown operation %q", errSyntax, st.Op)
}

func (s *session) assign(name string, ref alloc.Ref) string {
	s.vars[name] = ref
	if ref == alloc.Nil {
		return fmt.Sprintf("%s = nil", name)
	}
	size, _ := s.a.UsableSize(ref)
	return fmt.Sprintf("%s = %s (%d bytes)", name, alloc.FormatOffset(int(ref)), size)
}

func (s *session) lookup(name string) (alloc.Ref, error) {
	if name == nilName {
		return alloc.Nil, nil
	}
	ref, ok := s.vars[name]
	if !ok {
		return alloc.Nil, fmt.Errorf("undefined name %q", name)
	}
	return ref, nil
}

func (s *session) payload(name string) ([]byte, error) {
	ref, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if ref == alloc.Nil {
		return nil, fmt.Errorf("%s is nil", name)
	}
	return s.a.Bytes(ref)
}

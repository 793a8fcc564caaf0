package field

import (
	"fmt"
	"strings"
)

// Built-in rule names.
const (
	NamePC  = "pc"
	NameA   = "a"
	NameX   = "x"
	NameY   = "y"
	NameP   = "p"
	NameSP  = "sp"
	NameCyc = "cyc"
	NamePPU = "ppu"
)

var builtins = []Rule{
	MustRule(NamePC, "PC", `^(?P<value>\w{4}  [0-9A-F]{2})`), // PC + opcode byte
	MustRule(NameA, "A", `A:(?P<value>[0-9A-F]{2})`),
	MustRule(NameX, "X", `X:(?P<value>[0-9A-F]{2})`),
	MustRule(NameY, "Y", `Y:(?P<value>[0-9A-F]{2})`),
	// leading space keeps P: from matching inside SP:
	MustRule(NameP, "P", ` P:(?P<value>[0-9A-F]{2})`),
	MustRule(NameSP, "SP", `SP:(?P<value>[0-9A-F]{2})`),
	MustRule(NameCyc, "CYC", `CYC:(?P<value>\d+)`),
	MustRule(NamePPU, "PPU", `PPU:(?P<value>\s*\d+,\s*\d+)`),
}

// DefaultNames lists the rules enabled when nothing else is configured.
var DefaultNames = []string{NamePC, NameA, NameX, NameY, NameP, NameSP}

// Builtin returns the built-in rule with the given name.
func Builtin(name string) (Rule, bool) {
	for _, r := range builtins {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// Set is an ordered list of rules with unique names.
type Set struct {
	rules []Rule
}

// NewSet builds a Set preserving the order of rules.
func NewSet(rules ...Rule) (*Set, error) {
	seen := make(map[string]struct{}, len(rules))
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Pattern == nil {
			return nil, fmt.Errorf("field rule %q has no pattern", r.Name)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("duplicate field rule %q", r.Name)
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}
	return &Set{rules: out}, nil
}

// Default returns the six-field set: pc, a, x, y, p, sp.
func Default() *Set {
	s, err := Select(DefaultNames, nil)
	if err != nil {
		panic(err)
	}
	return s
}

// Select resolves names in order. Custom rules shadow built-ins of the same
// name.
func Select(names []string, custom []Rule) (*Set, error) {
	rules := make([]Rule, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		r, ok := lookup(custom, name)
		if !ok {
			r, ok = Builtin(name)
		}
		if !ok {
			return nil, fmt.Errorf("unknown field %q (known: %s)", raw, strings.Join(Known(custom), ", "))
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no fields selected")
	}
	return NewSet(rules...)
}

// Known lists built-in names followed by custom names not shadowing them.
func Known(custom []Rule) []string {
	names := make([]string, 0, len(builtins)+len(custom))
	for _, r := range builtins {
		names = append(names, r.Name)
	}
	for _, r := range custom {
		if _, ok := Builtin(r.Name); !ok {
			names = append(names, r.Name)
		}
	}
	return names
}

func lookup(rules []Rule, name string) (Rule, bool) {
	for _, r := range rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// Rules returns the rules in declaration order.
func (s *Set) Rules() []Rule {
	if s == nil {
		return nil
	}
	return s.rules
}

// Len returns the number of rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Names returns rule names in declaration order.
func (s *Set) Names() []string {
	names := make([]string, 0, s.Len())
	for _, r := range s.Rules() {
		names = append(names, r.Name)
	}
	return names
}

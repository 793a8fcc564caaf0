// Package field defines the extraction rules applied to trace lines.
//
// A Rule pulls one named value (a register byte, the program counter plus
// opcode, a cycle counter) out of a single line of an execution trace. Rules
// are grouped into an ordered Set; the comparator applies the same Set to the
// reference and candidate lines and compares values in declaration order.
//
// # Patterns
//
// A rule pattern is an RE2 expression. The extracted value is taken from the
// named group "value" when present, otherwise from the first capture group,
// otherwise from the whole match:
//
//	A:(?P<value>[0-9A-F]{2})
//
// # Built-in rules
//
// The default Set holds pc, a, x, y, p and sp in that order. The cyc and ppu
// rules are known by name but disabled unless selected explicitly.
package field

// internal/protocol/serial/terminator.go
package serial

import (
	"fmt"
	"strconv"
	"strings"
)

// Common command terminators
const (
	CR byte = 13
	LF byte = 10
)

// TerminateString returns s with the single byte terminator appended
func TerminateString(s string, terminator byte) string {
	var b strings.Builder
	b.Grow(len(s) + 1)
	b.WriteString(s)
	b.WriteByte(terminator)
	return b.String()
}

// ParseTerminator accepts "cr", "lf", "nul", a decimal byte value or a
// 0x-prefixed hex byte value
func ParseTerminator(s string) (byte, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "cr", `\r`:
		return CR, nil
	case "lf", `\n`:
		return LF, nil
	case "nul", `\0`:
		return 0, nil
	}

	base := 10
	if strings.HasPrefix(v, "0x") {
		v, base = v[2:], 16
	}
	n, err := strconv.ParseUint(v, base, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid terminator %q: must be cr, lf, nul or a byte value 0-255", s)
	}
	return byte(n), nil
}

// FormatTerminator is the inverse of ParseTerminator
func FormatTerminator(b byte) string {
	switch b {
	case CR:
		return "cr"
	case LF:
		return "lf"
	case 0:
		return "nul"
	default:
		return fmt.Sprintf("0x%02x", b)
	}
}

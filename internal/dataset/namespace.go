package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

const escapeByte = '_'

// MaxNamespaceLen is the longest namespace that still fits in one directory name.
const MaxNamespaceLen = 255

// NamespaceFor maps an email to its storage partition.
// Bytes in [a-z0-9.-] are kept (except a leading '.'); every other byte,
// including the escape byte '_', becomes "_xx". The mapping is reversible,
// so distinct emails never share a namespace.
func NamespaceFor(email string) string {
	var sb strings.Builder
	sb.Grow(len(email) + 8)
	for i := 0; i < len(email); i++ {
		b := email[i]
		if keepByte(b) && !(i == 0 && b == '.') {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, "%c%02x", escapeByte, b)
	}
	return sb.String()
}

// DecodeNamespace inverts NamespaceFor.
func DecodeNamespace(ns string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(ns); i++ {
		b := ns[i]
		if b != escapeByte {
			sb.WriteByte(b)
			continue
		}
		if i+2 >= len(ns) {
			return "", fmt.Errorf("truncated escape at %d", i)
		}
		v, err := strconv.ParseUint(ns[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("bad escape at %d: %w", i, err)
		}
		sb.WriteByte(byte(v))
		i += 2
	}
	return sb.String(), nil
}

func keepByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '.' || b == '-':
		return true
	}
	return false
}

package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNamespaceForIsInjective(t *testing.T) {
	emails := []string{
		"a@x.com",
		"A@x.com",
		"a_b@c",
		"a@b_c",
		"a_40x.com",
		"a@x.com ",
		".a@x.com",
		"_2ea@x.com",
		"first.last+tag@example.org",
		"über@x.com",
	}
	seen := map[string]string{}
	for _, email := range emails {
		ns := NamespaceFor(email)
		if prev, ok := seen[ns]; ok {
			t.Fatalf("namespace collision: %q and %q -> %q", prev, email, ns)
		}
		seen[ns] = email

		decoded, err := DecodeNamespace(ns)
		require.NoError(t, err)
		require.Equal(t, email, decoded)
	}
}

func TestNamespaceForIsStableAndSafe(t *testing.T) {
	require.Equal(t, NamespaceFor("a@x.com"), NamespaceFor("a@x.com"))
	require.Equal(t, "a_40x.com", NamespaceFor("a@x.com"))

	for _, email := range []string{"../../etc@x", ".@x", "a/b@x", `a\b@x`, "A@X.COM"} {
		ns := NamespaceFor(email)
		require.NotContains(t, ns, "/")
		require.NotContains(t, ns, `\`)
		require.NotEqual(t, '.', rune(ns[0]))
		for _, r := range ns {
			require.False(t, r >= 'A' && r <= 'Z', "upper case must be escaped: %q", ns)
		}
	}
}

func TestDecodeNamespaceErrors(t *testing.T) {
	_, err := DecodeNamespace("abc_4")
	require.Error(t, err)
	_, err = DecodeNamespace("abc_zz")
	require.Error(t, err)
}

package federation

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignDeterministic(t *testing.T) {
	s := NewSigner("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	a := s.Sign("1756400000000", "/api/admin/users", "limit=10", "")
	b := s.Sign("1756400000000", "/api/admin/users", "limit=10", "")

	require.Equal(t, a, b)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), a)
}

func TestSignAvalanche(t *testing.T) {
	s := NewSigner("secret")

	base := s.Sign("1756400000000", "/api/admin/users", "limit=10", "")

	require.NotEqual(t, base, s.Sign("1756400000001", "/api/admin/users", "limit=10", ""))
	require.NotEqual(t, base, s.Sign("1756400000000", "/api/admin/user", "limit=10", ""))
	require.NotEqual(t, base, s.Sign("1756400000000", "/api/admin/users", "limit=11", ""))
	require.NotEqual(t, base, s.Sign("1756400000000", "/api/admin/users", "limit=10", "x"))
	require.NotEqual(t, base, NewSigner("other").Sign("1756400000000", "/api/admin/users", "limit=10", ""))
}

func TestVerify(t *testing.T) {
	s := NewSigner("secret")

	sig := s.Sign("1756400000000", "/api/admin/users", "", "")

	require.True(t, s.Verify("1756400000000", "/api/admin/users", "", "", sig))
	require.False(t, s.Verify("1756400000001", "/api/admin/users", "", "", sig))
	require.False(t, NewSigner("other").Verify("1756400000000", "/api/admin/users", "", "", sig))
}

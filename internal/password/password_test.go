package password_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/orghub/internal/password"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := password.Hash("password123")
	require.NoError(t, err)
	require.NotContains(t, hash, "password123")

	ok, err := password.Verify("password123", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = password.Verify("wrong-password", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	_, err := password.Verify("password123", "not-a-hash")
	require.Error(t, err)

	_, err = password.Verify("password123", "$bcrypt$v=19$m=1,t=1,p=1$x$y")
	require.Error(t, err)
}

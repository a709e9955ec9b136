package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyringManagerStubAlwaysUnavailable(t *testing.T) {
	km := NewKeyringManager()
	require.False(t, km.IsAvailable())
}

func TestKeyringManagerGetHubAuthTokenEmpty(t *testing.T) {
	km := NewKeyringManager()
	token, err := km.GetHubAuthToken()
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestKeyringManagerSetHubAuthTokenErrors(t *testing.T) {
	km := NewKeyringManager()
	err := km.SetHubAuthToken("token")
	require.Error(t, err)
}

func TestMaskToken(t *testing.T) {
	require.Equal(t, "(not set)", MaskToken(""))
	require.Equal(t, "***", MaskToken("short"))
	require.Equal(t, "abcd...wxyz", MaskToken("abcd12345wxyz"))
}

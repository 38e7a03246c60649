package secrets_test

import (
	"testing"

	"github.com/prajwalc1/employee-timeline/internal/infrastructure/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox_SealOpen(t *testing.T) {
	box, err := secrets.NewBox("correct horse battery staple")
	require.NoError(t, err)

	sealed, err := box.Seal("smtp-password")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "smtp-password")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "smtp-password", plain)
}

func TestBox_OpenWithWrongKey(t *testing.T) {
	box, err := secrets.NewBox("key-one")
	require.NoError(t, err)
	other, err := secrets.NewBox("key-two")
	require.NoError(t, err)

	sealed, err := box.Seal("secret")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, secrets.ErrDecrypt)
}

func TestBox_Empty(t *testing.T) {
	box, err := secrets.NewBox("key")
	require.NoError(t, err)

	sealed, err := box.Seal("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	plain, err := box.Open("")
	require.NoError(t, err)
	assert.Empty(t, plain)

	_, err = secrets.NewBox("")
	assert.Error(t, err)
}

package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hoc/internal/util/keygen"
)

func TestKeygen(t *testing.T) {
	w := newWorkspace(t, "")
	path := filepath.Join(w.dir, "keys", "id_hoc")

	err := Keygen(KeygenOptions{Path: path, Type: "ed25519", Comment: "ops"})
	require.NoError(t, err)

	pub := mustRead(t, path+".pub")
	assert.Contains(t, w.out.String(), "Private key written to: "+path)
	assert.Contains(t, w.out.String(), string(pub))

	_, err = os.Stat(path)
	require.NoError(t, err)

	err = Keygen(KeygenOptions{Path: path, Type: "ed25519"})
	assert.ErrorContains(t, err, "already exists")
}

func TestKeygen_GenerateError(t *testing.T) {
	w := newWorkspace(t, "")
	generateKey = func(keygen.Type, int, string) (*keygen.KeyPair, error) {
		return nil, errors.New("entropy exhausted")
	}

	err := Keygen(KeygenOptions{Path: filepath.Join(w.dir, "id")})
	assert.ErrorContains(t, err, "entropy exhausted")
}

package keygen

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGenerateRSAKeyPair_InvalidBits(t *testing.T) {
	t.Parallel()
	for _, bits := range []int{0, -1} {
		_, err := GenerateRSAKeyPair(bits)
		assert.Error(t, err, "bits=%d", bits)
	}
}

func TestGenerate_RSA(t *testing.T) {
	t.Parallel()
	kp, err := Generate(TypeRSA, 2048, "hoc-admin")
	require.NoError(t, err)

	block, rest := pem.Decode(kp.PrivateKey)
	require.NotNil(t, block)
	assert.Empty(t, bytes.TrimSpace(rest))
	assert.Equal(t, "RSA PRIVATE KEY", block.Type)

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, 2048, key.N.BitLen())

	assert.True(t, strings.HasPrefix(string(kp.PublicKey), "ssh-rsa "))
	assert.True(t, strings.HasSuffix(string(kp.PublicKey), " hoc-admin\n"))

	pub, comment, _, _, err := ssh.ParseAuthorizedKey(kp.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "hoc-admin", comment)

	signer, err := kp.Signer()
	require.NoError(t, err)
	assert.Equal(t, pub.Marshal(), signer.PublicKey().Marshal())
}

func TestGenerate_ED25519(t *testing.T) {
	t.Parallel()
	kp, err := Generate(TypeED25519, 0, "")
	require.NoError(t, err)

	block, _ := pem.Decode(kp.PrivateKey)
	require.NotNil(t, block)
	assert.Equal(t, "PRIVATE KEY", block.Type)
	assert.True(t, strings.HasPrefix(string(kp.PublicKey), "ssh-ed25519 "))

	signer, err := kp.Signer()
	require.NoError(t, err)
	assert.Equal(t, ssh.KeyAlgoED25519, signer.PublicKey().Type())
}

func TestGenerate_UnsupportedType(t *testing.T) {
	t.Parallel()
	_, err := Generate("dsa", 0, "")
	assert.ErrorContains(t, err, `unsupported key type "dsa"`)
}

func TestGenerate_KeysAreUnique(t *testing.T) {
	t.Parallel()
	a, err := Generate(TypeED25519, 0, "")
	require.NoError(t, err)
	b, err := Generate(TypeED25519, 0, "")
	require.NoError(t, err)
	assert.NotEqual(t, a.PrivateKey, b.PrivateKey)
}

func TestKeyPair_Write(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "keys", "id_hoc")

	kp, err := Generate(TypeED25519, 0, "")
	require.NoError(t, err)
	require.NoError(t, kp.Write(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	pub, err := os.ReadFile(path + ".pub")
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, pub)

	err = kp.Write(path, false)
	assert.ErrorContains(t, err, "already exists")

	require.NoError(t, kp.Write(path, true))
}

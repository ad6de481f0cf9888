package keygen

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Type selects the key algorithm.
type Type string

// Supported key types.
const (
	TypeRSA     Type = "rsa"
	TypeED25519 Type = "ed25519"
)

// DefaultRSABits is used when no size is requested.
const DefaultRSABits = 4096

// KeyPair holds a key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is PEM encoded: PKCS#1 for RSA, PKCS#8 for ed25519.
	PrivateKey []byte
	// PublicKey is a single authorized_keys line.
	PublicKey []byte
}

// Generate creates a key pair of the given type. bits only applies to RSA;
// zero selects DefaultRSABits. A non-empty comment is appended to the
// public key line.
func Generate(t Type, bits int, comment string) (*KeyPair, error) {
	var (
		kp  *KeyPair
		err error
	)
	switch t {
	case TypeRSA, "":
		if bits == 0 {
			bits = DefaultRSABits
		}
		kp, err = GenerateRSAKeyPair(bits)
	case TypeED25519:
		kp, err = generateED25519()
	default:
		return nil, fmt.Errorf("unsupported key type %q", t)
	}
	if err != nil {
		return nil, err
	}
	if comment != "" {
		line := strings.TrimRight(string(kp.PublicKey), "\n")
		kp.PublicKey = []byte(line + " " + comment + "\n")
	}
	return kp, nil
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size.
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}
	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	pub, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	return &KeyPair{PrivateKey: privateKeyPEM, PublicKey: ssh.MarshalAuthorizedKey(pub)}, nil
}

func generateED25519() (*KeyPair, error) {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ed25519 key: %w", err)
	}
	pub, err := ssh.NewPublicKey(pubKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}
	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}),
		PublicKey:  ssh.MarshalAuthorizedKey(pub),
	}, nil
}

// Write stores the private key at path and the public key at path.pub.
// Existing files are only replaced when overwrite is set.
func (kp *KeyPair) Write(path string, overwrite bool) error {
	pubPath := path + ".pub"
	if !overwrite {
		for _, p := range []string{path, pubPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists", p)
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, kp.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, kp.PublicKey, 0o644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}

// Signer parses the private key for use as an SSH identity.
func (kp *KeyPair) Signer() (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey(kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return signer, nil
}

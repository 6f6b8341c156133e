package archive

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"hash"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/magnetik/box/internal/box/boxerr"
)

// algorithm tags for the trailer.
const (
	tagSHA1    byte = 0x01
	tagSHA256  byte = 0x02
	tagSHA512  byte = 0x03
	tagOpenSSL byte = 0x04
)

// HashSigner implements Signer for the unkeyed SHA1/SHA256/SHA512
// algorithms: a deterministic digest over the whole
// archive, tagged and trailed with Magic.
type HashSigner struct {
	New func() hash.Hash
	Tag byte
}

func (h HashSigner) NewDigest() hash.Hash { return h.New() }

func (h HashSigner) Sign(digest hash.Hash) ([]byte, error) {
	sum := digest.Sum(nil)
	return append(append(sum, h.Tag), []byte(Magic)...), nil
}

// SHA1Signer, SHA256Signer, SHA512Signer are the three unkeyed variants.
func SHA1Signer() Signer   { return HashSigner{New: sha1.New, Tag: tagSHA1} }
func SHA256Signer() Signer { return HashSigner{New: sha256.New, Tag: tagSHA256} }
func SHA512Signer() Signer { return HashSigner{New: sha512.New, Tag: tagSHA512} }

// OpenSSLSigner signs the archive digest with an RSA private key using
// PKCS#1 v1.5 padding — chosen over PSS specifically to preserve
// build-determinism.
type OpenSSLSigner struct {
	PrivateKeyPath string
	Passphrase     string
	PromptIfNeeded bool
	// PubKeyWriter receives the PEM-encoded public key once signing
	// succeeds, for writing to {outputPath}.pubkey.
	PubKeyWriter func([]byte) error
}

func (o OpenSSLSigner) NewDigest() hash.Hash { return sha256.New() }

func (o OpenSSLSigner) Sign(digest hash.Hash) ([]byte, error) {
	key, err := o.loadKey()
	if err != nil {
		return nil, err
	}

	sum := digest.Sum(nil)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, sum)
	if err != nil {
		return nil, boxerr.Wrap(boxerr.SigningKeyUnreadable, err, "signing archive digest")
	}

	if o.PubKeyWriter != nil {
		pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			return nil, boxerr.Wrap(boxerr.SigningKeyUnreadable, err, "marshaling public key")
		}
		pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
		if err := o.PubKeyWriter(pemBytes); err != nil {
			return nil, boxerr.Wrap(boxerr.ArchiveIOError, err, "writing public key")
		}
	}

	out := append(append([]byte{}, sig...), tagOpenSSL)
	out = append(out, []byte(Magic)...)
	return out, nil
}

// loadKey reads and parses the RSA private key at PrivateKeyPath,
// prompting on the controlling terminal with echo disabled if
// PromptIfNeeded is set and no Passphrase is configured.
func (o OpenSSLSigner) loadKey() (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(o.PrivateKeyPath)
	if err != nil {
		return nil, boxerr.Wrap(boxerr.SigningKeyRequired, err, "reading private key %q", o.PrivateKeyPath)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, boxerr.New(boxerr.SigningKeyUnreadable, "no PEM block found in %q", o.PrivateKeyPath)
	}

	passphrase := o.Passphrase
	if passphrase == "" && o.PromptIfNeeded && isEncrypted(block) {
		fmt.Fprint(os.Stderr, "Enter private key passphrase: ")
		pw, err := terminal.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, boxerr.Wrap(boxerr.SigningKeyUnreadable, err, "reading passphrase")
		}
		passphrase = string(pw)
	}

	if passphrase != "" {
		raw, err := ssh.ParseRawPrivateKeyWithPassphrase(data, []byte(passphrase))
		if err != nil {
			return nil, boxerr.Wrap(boxerr.SigningKeyUnreadable, err, "decrypting private key")
		}
		rsaKey, ok := raw.(*rsa.PrivateKey)
		if !ok {
			return nil, boxerr.New(boxerr.SigningKeyUnreadable, "key at %q is not an RSA key", o.PrivateKeyPath)
		}
		return rsaKey, nil
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, boxerr.Wrap(boxerr.SigningKeyUnreadable, err, "parsing private key %q", o.PrivateKeyPath)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, boxerr.New(boxerr.SigningKeyUnreadable, "key at %q is not an RSA key", o.PrivateKeyPath)
	}
	return rsaKey, nil
}

// isEncrypted reports whether block looks like a passphrase-protected PEM
// block, covering both the legacy "Proc-Type: ENCRYPTED" header and
// PKCS8's distinct "ENCRYPTED PRIVATE KEY" block type.
func isEncrypted(block *pem.Block) bool {
	if block.Type == "ENCRYPTED PRIVATE KEY" {
		return true
	}
	_, ok := block.Headers["DEK-Info"]
	return ok
}

// ForAlgorithm resolves a configured signing algorithm name to a Signer.
func ForAlgorithm(algorithm string, openssl OpenSSLSigner) (Signer, error) {
	switch algorithm {
	case "", "SHA1":
		return SHA1Signer(), nil
	case "SHA256":
		return SHA256Signer(), nil
	case "SHA512":
		return SHA512Signer(), nil
	case "OPENSSL":
		return openssl, nil
	default:
		return nil, boxerr.New(boxerr.ConfigInvalid, "unknown signing algorithm %q", algorithm)
	}
}

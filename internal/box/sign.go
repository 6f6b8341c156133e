package box

import (
	"os"

	"github.com/magnetik/box/internal/box/archive"
)

// BuildSigner resolves c's signing configuration into an archive.Signer.
// For OPENSSL it wires a PubKeyWriter that writes the public key
// alongside the output file as "{output}.pubkey", matching the archive
// layout most PHP bundle consumers expect for signature verification.
func BuildSigner(c *Config) (archive.Signer, error) {
	if c.signingAlgorithm != SigningOpenSSL {
		return archive.ForAlgorithm(string(c.signingAlgorithm), archive.OpenSSLSigner{})
	}

	openssl := archive.OpenSSLSigner{
		PrivateKeyPath: c.privateKeyPath,
		Passphrase:     c.privateKeyPassphrase,
		PromptIfNeeded: c.promptForPrivateKey,
		PubKeyWriter: func(pem []byte) error {
			return os.WriteFile(c.outputPath+".pubkey", pem, 0644)
		},
	}
	return archive.ForAlgorithm(string(c.signingAlgorithm), openssl)
}

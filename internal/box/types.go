// Package box implements the bundle builder pipeline: ConfigResolve,
// SourceEnumerate, DependencyDump, Prefix, Compact, RequirementCollect,
// Assemble, Compress, Sign, and Finalize.
package box

// SourceEntry is a single discovered source file, its on-disk location and
// its place inside the bundle.
type SourceEntry struct {
	LocalPath  string
	BundlePath string
}

// CompressionAlgorithm selects the compress stage's per-entry algorithm.
type CompressionAlgorithm string

const (
	CompressionNone CompressionAlgorithm = "NONE"
	CompressionGZ   CompressionAlgorithm = "GZ"
	CompressionBZ2  CompressionAlgorithm = "BZ2"
)

// SigningAlgorithm selects the Sign stage's algorithm.
type SigningAlgorithm string

const (
	SigningSHA1    SigningAlgorithm = "SHA1"
	SigningSHA256  SigningAlgorithm = "SHA256"
	SigningSHA512  SigningAlgorithm = "SHA512"
	SigningOpenSSL SigningAlgorithm = "OPENSSL"
)

// StubMode selects which of the three mutually exclusive stub sources
// a Config resolved to.
type StubMode int

const (
	StubGenerate StubMode = iota
	StubCustomPath
	StubDefault
)

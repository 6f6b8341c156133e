package archive

import (
	"embed"
	"io/fs"
	"path"
)

// payloadFS embeds the fixed requirement-checker bundle: a small set of PHP
// files under bin/ and src/. vendor/ is reserved for a
// future Composer-installed polyfill shim and currently carries none.
//
//go:embed payload/bin payload/src
var payloadFS embed.FS

// PayloadEntry is one requirement-checker file ready to be added to a
// Writer, bundlePath already rooted under .box/.
type PayloadEntry struct {
	BundlePath string
	Contents   []byte
}

// RequirementCheckerPayload walks the embedded payload tree and returns
// it as bundle entries rooted at .box/bin and .box/src.
func RequirementCheckerPayload() ([]PayloadEntry, error) {
	var entries []PayloadEntry

	err := fs.WalkDir(payloadFS, "payload", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		contents, err := fs.ReadFile(payloadFS, p)
		if err != nil {
			return err
		}
		rel := path.Join(".box", p[len("payload/"):])
		entries = append(entries, PayloadEntry{BundlePath: rel, Contents: contents})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

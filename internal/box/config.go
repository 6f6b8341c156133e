package box

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/magnetik/box/internal/box/boxerr"
	"github.com/magnetik/box/internal/box/finder"
	"github.com/magnetik/box/internal/box/mapper"
)

// RawFinder is one box.json "finder"/"finder-bin" entry.
type RawFinder struct {
	In             []string `json:"in"`
	Name           []string `json:"name"`
	NotName        []string `json:"notName"`
	Path           []string `json:"path"`
	NotPath        []string `json:"notPath"`
	Exclude        []string `json:"exclude"`
	Depth          string   `json:"depth"`
	IgnoreVCS      *bool    `json:"ignoreVCS"`
	IgnoreDotFiles *bool    `json:"ignoreDotFiles"`
}

// RawMapEntry is one box.json "map" entry: {"src/prefix": "replacement"}.
type RawMapEntry map[string]string

// RawConfig is the literal box.json/box.json.dist document.
type RawConfig struct {
	Alias                 string            `json:"alias"`
	Banner                string            `json:"banner"`
	BannerFile             string            `json:"banner-file"`
	BasePath               string            `json:"base-path"`
	Blacklist              []string          `json:"blacklist"`
	CheckRequirements      *bool             `json:"check-requirements"`
	Chmod                  string            `json:"chmod"`
	Compactors             []string          `json:"compactors"`
	Compression            string            `json:"compression"`
	Directories            []string          `json:"directories"`
	DirectoriesBin         []string          `json:"directories-bin"`
	DumpAutoload           *bool             `json:"dump-autoload"`
	ExcludeComposerFiles   *bool             `json:"exclude-composer-files"`
	ExcludeDevFiles        *bool             `json:"exclude-dev-files"`
	Files                  []string          `json:"files"`
	FilesBin               []string          `json:"files-bin"`
	Finder                 []RawFinder       `json:"finder"`
	FinderBin              []RawFinder       `json:"finder-bin"`
	ForceAutodiscovery     bool              `json:"force-autodiscovery"`
	Intercept              bool              `json:"intercept"`
	Main                   json.RawMessage   `json:"main"`
	Map                    []RawMapEntry     `json:"map"`
	Metadata               json.RawMessage   `json:"metadata"`
	Output                 string            `json:"output"`
	Algorithm              string            `json:"algorithm"`
	Key                    string            `json:"key"`
	KeyPass                json.RawMessage   `json:"key-pass"`
	Replacements           map[string]string `json:"replacements"`
	GitVersion             string            `json:"git-version"`
	GitCommit              string            `json:"git-commit"`
	GitTag                 string            `json:"git-tag"`
	Datetime               string            `json:"datetime"`
	DatetimeFormat         string            `json:"datetime_format"`
	Shebang                json.RawMessage   `json:"shebang"`
	Stub                   json.RawMessage   `json:"stub"`
}

// Config is the immutable, resolved build configuration. All fields are
// unexported: the struct is built once by Resolve and read by every later
// stage through its accessor methods.
type Config struct {
	basePath             string
	alias                string
	mainScriptPath       string
	mainScriptContents   []byte
	outputPath           string
	tmpOutputPath        string
	chmod                os.FileMode

	directories    []string
	directoriesBin []string
	files          []string
	filesBin       []string
	finders        []finder.Config
	findersBin     []finder.Config
	blacklist      []string
	autoDiscover   bool

	compactors []string

	compressionAlgorithm CompressionAlgorithm
	signingAlgorithm     SigningAlgorithm
	privateKeyPath       string
	privateKeyPassphrase string
	promptForPrivateKey  bool

	shebang        string
	hasShebang     bool
	bannerContents string

	stubMode StubMode
	stubPath string

	mapRules mapper.Rules
	metadata interface{}

	checkRequirements    bool
	dumpAutoload         bool
	excludeDevFiles      bool
	excludeComposerFiles bool
	interceptFileFuncs   bool

	processedReplacements map[string]string

	isDevMode bool

	warnings        []string
	recommendations []string
}

// BasePath, OutputPath, etc. are read-only accessors, exposing resolved
// config through methods rather than exported fields once it is frozen.
func (c *Config) BasePath() string               { return c.basePath }
func (c *Config) Alias() string                   { return c.alias }
func (c *Config) MainScriptPath() string          { return c.mainScriptPath }
func (c *Config) MainScriptContents() []byte       { return c.mainScriptContents }
func (c *Config) OutputPath() string              { return c.outputPath }
func (c *Config) TmpOutputPath() string           { return c.tmpOutputPath }
func (c *Config) Chmod() os.FileMode              { return c.chmod }
func (c *Config) CompressionAlgorithm() CompressionAlgorithm {
	if c.isDevMode {
		return CompressionNone
	}
	return c.compressionAlgorithm
}
func (c *Config) SigningAlgorithm() SigningAlgorithm { return c.signingAlgorithm }
func (c *Config) PrivateKeyPath() string             { return c.privateKeyPath }
func (c *Config) PrivateKeyPassphrase() string        { return c.privateKeyPassphrase }
func (c *Config) PromptForPrivateKey() bool          { return c.promptForPrivateKey }
func (c *Config) Shebang() (string, bool)            { return c.shebang, c.hasShebang }
func (c *Config) BannerContents() string             { return c.bannerContents }
func (c *Config) StubMode() StubMode                 { return c.stubMode }
func (c *Config) StubPath() string                   { return c.stubPath }
func (c *Config) MapRules() mapper.Rules             { return c.mapRules }
func (c *Config) Metadata() interface{}              { return c.metadata }
func (c *Config) CheckRequirements() bool            { return c.checkRequirements }
func (c *Config) DumpAutoload() bool                 { return c.dumpAutoload }
func (c *Config) ExcludeDevFiles() bool              { return c.excludeDevFiles }
func (c *Config) ExcludeComposerFiles() bool          { return c.excludeComposerFiles }
func (c *Config) InterceptFileFuncs() bool           { return c.interceptFileFuncs }
func (c *Config) IsDevMode() bool                    { return c.isDevMode }
func (c *Config) Compactors() []string               { return c.compactors }
func (c *Config) Directories() []string              { return c.directories }
func (c *Config) DirectoriesBin() []string           { return c.directoriesBin }
func (c *Config) Files() []string                    { return c.files }
func (c *Config) FilesBin() []string                 { return c.filesBin }
func (c *Config) Finders() []finder.Config           { return c.finders }
func (c *Config) FindersBin() []finder.Config        { return c.findersBin }
func (c *Config) Blacklist() []string                { return c.blacklist }
func (c *Config) AutoDiscover() bool                 { return c.autoDiscover }
func (c *Config) Warnings() []string                 { return c.warnings }
func (c *Config) Recommendations() []string          { return c.recommendations }
func (c *Config) Replacement(key string) (string, bool) {
	v, ok := c.processedReplacements[key]
	return v, ok
}

func (c *Config) addWarning(msg string, args ...interface{}) {
	c.warnings = append(c.warnings, fmt.Sprintf(msg, args...))
}

func (c *Config) addRecommendation(msg string, args ...interface{}) {
	c.recommendations = append(c.recommendations, fmt.Sprintf(msg, args...))
}

// ResolveOptions carries the CLI-level overrides that sit above box.json
//: --working-dir, --dev.
type ResolveOptions struct {
	WorkingDir string
	DevMode    bool
}

// Resolve turns a RawConfig (as decoded from box.json) plus CLI overrides
// into an immutable Config. This is the ConfigResolve stage.
func Resolve(raw RawConfig, opts ResolveOptions) (*Config, error) {
	c := &Config{}

	base := raw.BasePath
	if base == "" {
		base = opts.WorkingDir
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, boxerr.Wrap(boxerr.ConfigInvalid, err, "resolving base-path %q", base)
	}
	c.basePath = abs

	c.alias = raw.Alias
	if c.alias == "" {
		c.alias = "box-auto-generated-alias-" + randomToken(12) + ".phar"
	}

	if err := resolveMain(c, raw); err != nil {
		return nil, err
	}

	c.outputPath = raw.Output
	if c.outputPath == "" {
		c.outputPath = defaultOutputName(c.mainScriptPath)
	}
	if !filepath.IsAbs(c.outputPath) {
		c.outputPath = filepath.Join(c.basePath, c.outputPath)
	}
	c.tmpOutputPath = c.outputPath + ".tmp"

	c.chmod = 0644
	if raw.Chmod != "" {
		var mode uint32
		if _, err := fmt.Sscanf(raw.Chmod, "%o", &mode); err != nil {
			return nil, boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing chmod %q", raw.Chmod)
		}
		c.chmod = os.FileMode(mode)
	}

	c.directories = raw.Directories
	c.directoriesBin = raw.DirectoriesBin
	c.files = raw.Files
	c.filesBin = raw.FilesBin
	c.blacklist = raw.Blacklist
	c.finders, err = toFinderConfigs(raw.Finder)
	if err != nil {
		return nil, err
	}
	c.findersBin, err = toFinderConfigs(raw.FinderBin)
	if err != nil {
		return nil, err
	}
	c.autoDiscover = raw.ForceAutodiscovery || (len(c.directories) == 0 && len(c.files) == 0 && len(c.finders) == 0)

	hasComposerJSON := fileExists(filepath.Join(c.basePath, "composer.json"))
	c.dumpAutoload = boolOr(raw.DumpAutoload, hasComposerJSON)
	c.checkRequirements = boolOr(raw.CheckRequirements, hasComposerJSON)
	c.excludeComposerFiles = boolOr(raw.ExcludeComposerFiles, true)
	c.excludeDevFiles = boolOr(raw.ExcludeDevFiles, c.dumpAutoload)

	c.compactors = raw.Compactors

	if err := resolveCompression(c, raw); err != nil {
		return nil, err
	}
	if err := resolveSigning(c, raw); err != nil {
		return nil, err
	}
	if err := resolveStub(c, raw); err != nil {
		return nil, err
	}

	resolveShebang(c, raw)

	c.bannerContents = raw.Banner
	if raw.BannerFile != "" {
		data, err := os.ReadFile(resolvePath(c.basePath, raw.BannerFile))
		if err != nil {
			return nil, boxerr.Wrap(boxerr.ConfigInvalid, err, "reading banner-file %q", raw.BannerFile)
		}
		c.bannerContents = string(data)
	}

	c.interceptFileFuncs = raw.Intercept

	rules, err := toMapRules(raw.Map)
	if err != nil {
		return nil, err
	}
	c.mapRules = rules

	if len(raw.Metadata) > 0 {
		var meta interface{}
		if err := json.Unmarshal(raw.Metadata, &meta); err != nil {
			return nil, boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing metadata")
		}
		c.metadata = meta
	}

	c.processedReplacements = resolveReplacements(raw)

	c.isDevMode = opts.DevMode
	if c.isDevMode {
		c.addWarning("Dev mode detected: compression has been forced to NONE")
	}

	return c, nil
}

func resolveMain(c *Config, raw RawConfig) error {
	if len(raw.Main) == 0 {
		return nil
	}
	var asBool bool
	if err := json.Unmarshal(raw.Main, &asBool); err == nil {
		if !asBool {
			return nil
		}
	}
	var asString string
	if err := json.Unmarshal(raw.Main, &asString); err == nil && asString != "" {
		c.mainScriptPath = resolvePath(c.basePath, asString)
		data, err := os.ReadFile(c.mainScriptPath)
		if err != nil {
			return boxerr.Wrap(boxerr.UnreadableSource, err, "reading main script %q", asString)
		}
		c.mainScriptContents = data
	}
	return nil
}

func defaultOutputName(mainScriptPath string) string {
	if mainScriptPath == "" {
		return "default.phar"
	}
	base := filepath.Base(mainScriptPath)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)] + ".phar"
}

func resolveCompression(c *Config, raw RawConfig) error {
	switch raw.Compression {
	case "", "NONE":
		c.compressionAlgorithm = CompressionNone
	case "GZ":
		c.compressionAlgorithm = CompressionGZ
		c.addWarning(`the extension "zlib" will now be required to execute the PHAR`)
	case "BZ2":
		c.compressionAlgorithm = CompressionBZ2
		c.addWarning(`the extension "bz2" will now be required to execute the PHAR`)
	default:
		return boxerr.New(boxerr.ConfigInvalid, "unknown compression algorithm %q", raw.Compression)
	}
	return nil
}

func resolveSigning(c *Config, raw RawConfig) error {
	switch raw.Algorithm {
	case "", "SHA1":
		c.signingAlgorithm = SigningSHA1
	case "SHA256":
		c.signingAlgorithm = SigningSHA256
	case "SHA512":
		c.signingAlgorithm = SigningSHA512
	case "OPENSSL":
		c.signingAlgorithm = SigningOpenSSL
		if raw.Key == "" {
			return boxerr.New(boxerr.SigningKeyRequired, "algorithm is OPENSSL but no key path was configured")
		}
		c.privateKeyPath = resolvePath(c.basePath, raw.Key)
		if len(raw.KeyPass) > 0 {
			var asBool bool
			if err := json.Unmarshal(raw.KeyPass, &asBool); err == nil {
				c.promptForPrivateKey = asBool
			} else {
				var asString string
				if err := json.Unmarshal(raw.KeyPass, &asString); err == nil {
					c.privateKeyPassphrase = asString
				}
			}
		}
	default:
		return boxerr.New(boxerr.ConfigInvalid, "unknown signing algorithm %q", raw.Algorithm)
	}
	return nil
}

func resolveShebang(c *Config, raw RawConfig) {
	if len(raw.Shebang) == 0 {
		c.shebang = "#!/usr/bin/env php"
		c.hasShebang = true
		return
	}
	var asBool bool
	if err := json.Unmarshal(raw.Shebang, &asBool); err == nil {
		c.hasShebang = asBool
		if asBool {
			c.shebang = "#!/usr/bin/env php"
		}
		return
	}
	var asString string
	if err := json.Unmarshal(raw.Shebang, &asString); err == nil {
		c.shebang = asString
		c.hasShebang = asString != ""
	}
}

func resolveStub(c *Config, raw RawConfig) error {
	if len(raw.Stub) == 0 {
		c.stubMode = StubGenerate
		return nil
	}
	var asBool bool
	if err := json.Unmarshal(raw.Stub, &asBool); err == nil {
		if asBool {
			c.stubMode = StubDefault
		} else {
			c.stubMode = StubGenerate
		}
		return nil
	}
	var asString string
	if err := json.Unmarshal(raw.Stub, &asString); err == nil {
		c.stubMode = StubCustomPath
		c.stubPath = resolvePath(c.basePath, asString)
		return nil
	}
	return boxerr.New(boxerr.ConfigInvalid, "stub must be a boolean or a path string")
}

func toFinderConfigs(raws []RawFinder) ([]finder.Config, error) {
	out := make([]finder.Config, 0, len(raws))
	for _, rf := range raws {
		fc := finder.DefaultConfig()
		fc.In = rf.In
		fc.Name = rf.Name
		fc.NotName = rf.NotName
		fc.Path = rf.Path
		fc.NotPath = rf.NotPath
		fc.Exclude = rf.Exclude
		if rf.IgnoreVCS != nil {
			fc.IgnoreVCS = *rf.IgnoreVCS
		}
		if rf.IgnoreDotFiles != nil {
			fc.IgnoreDotFiles = *rf.IgnoreDotFiles
		}
		min, max, err := parseDepth(rf.Depth)
		if err != nil {
			return nil, err
		}
		fc.MinDepth = min
		fc.MaxDepth = max
		out = append(out, fc)
	}
	return out, nil
}

// parseDepth parses a finder "depth" constraint in Symfony Finder style:
// "N", "==N", "<N", "<=N", ">N", ">=N", or "A..B". An empty string means
// unbounded. Returned maxDepth of 0 means unbounded (finder.Config's
// convention).
func parseDepth(s string) (minDepth, maxDepth int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	if lo, hi, ok := strings.Cut(s, ".."); ok {
		min, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return 0, 0, boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing depth %q", s)
		}
		max, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return 0, 0, boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing depth %q", s)
		}
		return min, max, nil
	}
	switch {
	case strings.HasPrefix(s, "<="):
		n, err := strconv.Atoi(strings.TrimSpace(s[2:]))
		if err != nil {
			return 0, 0, boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing depth %q", s)
		}
		return 0, n, nil
	case strings.HasPrefix(s, "<"):
		n, err := strconv.Atoi(strings.TrimSpace(s[1:]))
		if err != nil {
			return 0, 0, boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing depth %q", s)
		}
		if n <= 0 {
			return 0, 0, boxerr.New(boxerr.ConfigInvalid, "depth %q excludes every depth", s)
		}
		return 0, n - 1, nil
	case strings.HasPrefix(s, ">="):
		n, err := strconv.Atoi(strings.TrimSpace(s[2:]))
		if err != nil {
			return 0, 0, boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing depth %q", s)
		}
		return n, 0, nil
	case strings.HasPrefix(s, ">"):
		n, err := strconv.Atoi(strings.TrimSpace(s[1:]))
		if err != nil {
			return 0, 0, boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing depth %q", s)
		}
		return n + 1, 0, nil
	case strings.HasPrefix(s, "=="):
		n, err := strconv.Atoi(strings.TrimSpace(s[2:]))
		if err != nil {
			return 0, 0, boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing depth %q", s)
		}
		return n, n, nil
	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing depth %q", s)
		}
		return n, n, nil
	}
}

func toMapRules(raw []RawMapEntry) (mapper.Rules, error) {
	var rules mapper.Rules
	for _, entry := range raw {
		for prefix, replacement := range entry {
			rules = append(rules, mapper.Rule{Prefix: prefix, Replacement: replacement})
		}
	}
	return rules, nil
}

func resolveReplacements(raw RawConfig) map[string]string {
	out := map[string]string{}
	for k, v := range raw.Replacements {
		out[k] = v
	}
	if raw.GitVersion != "" {
		out["git_version"] = raw.GitVersion
	}
	if raw.GitCommit != "" {
		out["git_commit"] = raw.GitCommit
	}
	if raw.GitTag != "" {
		out["git_tag"] = raw.GitTag
	}
	if raw.Datetime != "" {
		out["datetime"] = raw.Datetime
	}
	return out
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

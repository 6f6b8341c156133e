// Command box builds a self-executing PHP bundle from a box.json
// configuration file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/ianbruene/go-difflib/difflib"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	shutil "github.com/termie/go-shutil"
	"gitlab.com/esr/fqme"
	"golang.org/x/crypto/ssh/terminal"

	boxpkg "github.com/magnetik/box/internal/box"
	"github.com/magnetik/box/internal/box/baton"
	"github.com/magnetik/box/internal/box/boxerr"
)

var (
	flagConfig     string
	flagNoConfig   bool
	flagWorkingDir string
	flagDev        bool
	flagNoParallel bool
	flagWithDocker bool
	flagDebug      bool
)

func main() {
	exeAbs, _ := filepath.Abs(os.Args[0])

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, color.RedString("panic: %v", r))
			os.Exit(1)
		}
	}()

	root := &cobra.Command{
		Use:   "box",
		Short: "Build self-executing PHP bundles",
	}

	compile := &cobra.Command{
		Use:   "compile",
		Short: "Build a bundle from a box.json configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(exeAbs)
		},
	}
	compile.Flags().StringVar(&flagConfig, "config", "", "path to the configuration file")
	compile.Flags().BoolVar(&flagNoConfig, "no-config", false, "ignore any configuration file, use defaults only")
	compile.Flags().StringVar(&flagWorkingDir, "working-dir", "", "change to this directory before building")
	compile.Flags().BoolVar(&flagDev, "dev", false, "dev mode: forces compression to NONE")
	compile.Flags().BoolVar(&flagNoParallel, "no-parallel", false, "disable parallel requirement checking (recorded, not yet exercised)")
	compile.Flags().BoolVar(&flagWithDocker, "with-docker", false, "emit a Dockerfile alongside the bundle (recorded, not yet exercised)")
	compile.Flags().BoolVar(&flagDebug, "debug", false, "dump intermediate build state to .box_dump/")

	root.AddCommand(compile)

	if err := root.Execute(); err != nil {
		printFatal(err)
		os.Exit(1)
	}
}

func runCompile(exeAbs string) error {
	log := newLogger()

	workingDir := flagWorkingDir
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return boxerr.Wrap(boxerr.ConfigInvalid, err, "getting working directory")
		}
		workingDir = wd
	}

	raw, configFilePath, err := loadRawConfig(workingDir)
	if err != nil {
		return err
	}

	c, err := boxpkg.Resolve(raw, boxpkg.ResolveOptions{WorkingDir: workingDir, DevMode: flagDev})
	if err != nil {
		return err
	}

	if flagDebug {
		if err := dumpDebugState(c, configFilePath); err != nil {
			log.WithError(err).Warn("failed writing .box_dump")
		}
	}

	interactive := terminal.IsTerminal(int(os.Stdout.Fd()))
	b := baton.New(interactive)

	report, err := boxpkg.Run(context.Background(), c, boxpkg.BuildOptions{
		ConfigFilePath: configFilePath,
		BuilderExePath: exeAbs,
	}, log, b)
	if err != nil {
		return err
	}

	fmt.Println(report.String())
	return nil
}

func loadRawConfig(workingDir string) (boxpkg.RawConfig, string, error) {
	if flagNoConfig {
		return boxpkg.RawConfig{}, "", nil
	}

	path := flagConfig
	if path == "" {
		for _, candidate := range []string{"box.json", "box.json.dist"} {
			p := filepath.Join(workingDir, candidate)
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path == "" {
		return boxpkg.RawConfig{}, "", nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(workingDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return boxpkg.RawConfig{}, "", boxerr.Wrap(boxerr.ConfigInvalid, err, "reading %q", path)
	}
	var raw boxpkg.RawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return boxpkg.RawConfig{}, "", boxerr.Wrap(boxerr.ConfigInvalid, err, "parsing %q", path)
	}
	return raw, path, nil
}

func dumpDebugState(c *boxpkg.Config, configFilePath string) error {
	dir := filepath.Join(c.BasePath(), ".box_dump")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	summary := map[string]interface{}{
		"basePath":    c.BasePath(),
		"alias":       c.Alias(),
		"output":      c.OutputPath(),
		"compression": string(c.CompressionAlgorithm()),
		"signing":     string(c.SigningAlgorithm()),
		"warnings":    c.Warnings(),
		"configFile":  configFilePath,
		"builderOS":   runtime.GOOS,
		"builderArch": runtime.GOARCH,
		"goVersion":   runtime.Version(),
		"timestamp":   time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	dumpPath := filepath.Join(dir, "config.json")

	if err := diffAgainstPreviousDump(dumpPath, data); err != nil {
		return err
	}

	if err := os.WriteFile(dumpPath, data, 0644); err != nil {
		return err
	}

	name, email, err := fqme.WhoAmI()
	if err != nil {
		return err
	}
	identity := fmt.Sprintf("%s <%s>\n", name, email)
	if err := os.WriteFile(filepath.Join(dir, "identity.txt"), []byte(identity), 0644); err != nil {
		return err
	}

	if configFilePath != "" {
		if err := shutil.CopyFile(configFilePath, filepath.Join(dir, "box.json.snapshot"), true); err != nil {
			return err
		}
	}

	return nil
}

// diffAgainstPreviousDump writes a unified diff between the previous
// .box_dump/config.json (if any) and the one about to be written, so
// consecutive --debug builds of a changing config show exactly what
// moved.
func diffAgainstPreviousDump(dumpPath string, newData []byte) error {
	previous, err := os.ReadFile(dumpPath)
	if err != nil {
		return nil
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(previous)),
		B:        difflib.SplitLines(string(newData)),
		FromFile: "previous config.json",
		ToFile:   "current config.json",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return os.WriteFile(filepath.Join(filepath.Dir(dumpPath), "config.diff"), []byte(text), 0644)
}

func newLogger() *logrus.Entry {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if flagDebug {
		l.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(l)
}

func printFatal(err error) {
	msg := err.Error()
	if f, ok := err.(*boxerr.Fatal); ok && f.Output != "" {
		msg = fmt.Sprintf("%s\n%s", msg, f.Output)
	}
	fmt.Fprintln(os.Stderr, color.RedString(msg))
}

// wcctl is the primary command-line entry point to the working copy
// engine: it initializes a new working copy, applies a unified-diff
// patch against one, and drains any outstanding work-queue items.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ardentvc/wcengine/internal/config"
	"github.com/ardentvc/wcengine/internal/engine"
	"github.com/ardentvc/wcengine/internal/notify"
	"github.com/ardentvc/wcengine/internal/parser"
	"github.com/ardentvc/wcengine/internal/patch"
	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/version"
	"github.com/ardentvc/wcengine/internal/wcdb"
)

func patchOptions(strip int, dryRun, reverse bool) patch.Options {
	return patch.Options{StripCount: strip, DryRun: dryRun, Reverse: reverse}
}

func main() {
	var (
		app        = kingpin.New("wcctl", "Working copy engine control CLI.")
		configFile = app.Flag("config", "Config file for wcctl.").Default("wcengine.yaml").Short('c').String()
		debug      = app.Flag("debug", "Enable debug-level logging.").Bool()
		cpuProfile = app.Flag("profile", "Write a CPU profile to ./cpu.pprof.").Bool()

		initCmd      = app.Command("init", "Create a new working copy.")
		initRoot     = initCmd.Arg("root", "Working copy root directory.").Required().String()
		initURL      = initCmd.Flag("url", "Repository root URL.").Required().String()
		initUUID     = initCmd.Flag("uuid", "Repository UUID.").Required().String()
		initRevision = initCmd.Flag("revision", "Initial revision.").Default("0").Int64()

		patchCmd    = app.Command("patch", "Apply a unified-diff patch file against a working copy.")
		patchRoot   = patchCmd.Arg("root", "Working copy root directory.").Required().String()
		patchFile   = patchCmd.Arg("patchfile", "Unified-diff patch file to apply.").Required().String()
		patchStrip  = patchCmd.Flag("strip", "Number of leading path components to strip.").Short('p').Default("0").Int()
		patchDryRun = patchCmd.Flag("dry-run", "Report the outcome without writing anything.").Bool()
		patchReverse = patchCmd.Flag("reverse", "Apply the patch in reverse.").Short('R').Bool()

		drainCmd  = app.Command("drain", "Drain any outstanding work-queue items.")
		drainRoot = drainCmd.Arg("root", "Working copy root directory.").Required().String()
	)

	app.UsageTemplate(kingpin.CompactUsageTemplate).Version(version.Print("wcctl")).Author("ardentvc")
	app.HelpFlag.Short('h')
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logrus.New()
	logger.Level = logrus.InfoLevel
	if *debug {
		logger.Level = logrus.DebugLevel
	}

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		logger.Debugf("using default configuration: %v", err)
		cfg, err = config.Unmarshal(nil)
		if err != nil {
			logger.Fatalf("failed to build default configuration: %v", err)
		}
	}

	logger.Infof("%v", version.Print("wcctl"))

	switch command {
	case initCmd.FullCommand():
		err = runInit(logger, *initRoot, *initURL, *initUUID, *initRevision)
	case patchCmd.FullCommand():
		err = runPatch(logger, cfg, *patchRoot, *patchFile, *patchStrip, *patchDryRun, *patchReverse)
	case drainCmd.FullCommand():
		err = runDrain(logger, cfg, *drainRoot)
	}
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func runInit(logger *logrus.Logger, root, rootURL, uuid string, revision int64) error {
	uri, err := pathmodel.CanonicalizeURI(rootURL)
	if err != nil {
		return fmt.Errorf("invalid --url: %w", err)
	}
	db, err := wcdb.Init(logger, pathmodel.FromOSPath(root), "", uri, uuid, revision, wcdb.DepthInfinity)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Infof("initialized working copy at %s", root)
	return nil
}

func runPatch(logger *logrus.Logger, cfg *config.Config, root, patchFile string, strip int, dryRun, reverse bool) error {
	eng, err := engine.Open(logger, pathmodel.FromOSPath(root), cfg, notify.Nop)
	if err != nil {
		return err
	}
	defer eng.Close()

	content, err := os.ReadFile(patchFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", patchFile, err)
	}
	p, err := parser.ParseUnifiedDiff(content)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", patchFile, err)
	}

	results, err := eng.ApplyPatch("", -1, p, patchOptions(strip, dryRun, reverse))
	if err != nil {
		return err
	}
	for _, r := range results {
		logger.Infof("%-14s %s", r.Outcome, r.Relpath)
		if r.RejectPath != "" {
			logger.Warnf("  rejects written to %s", r.RejectPath)
		}
	}
	return nil
}

func runDrain(logger *logrus.Logger, cfg *config.Config, root string) error {
	eng, err := engine.Open(logger, pathmodel.FromOSPath(root), cfg, notify.Nop)
	if err != nil {
		return err
	}
	defer eng.Close()
	return eng.Drain()
}

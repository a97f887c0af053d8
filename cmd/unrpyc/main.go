package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/tailscale/hujson"
	"golang.org/x/sync/errgroup"

	"github.com/SeaGamerYu/unrpyc"
)

const (
	appName     = "unrpyc"
	historyFile = ".unrpyc_history"
	promptMain  = "unrpyc> "
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "decompile":
		os.Exit(cmdDecompile(os.Args[2:]))
	case "explore":
		os.Exit(cmdExplore(os.Args[2:]))
	case "version":
		fmt.Println(unrpyc.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`unrpyc %s — reconstruct Ren'Py script source from deserialized archives

Usage:
  %s decompile [-o dir] [-comparable] [-j n] [-config file] unit.json...
  %s explore unit.json          Browse a unit's labels interactively.
  %s version                    Print the version.

`, unrpyc.Version, appName, appName, appName)
}

// -----------------------------------------------------------------------------
// config
// -----------------------------------------------------------------------------

// config holds the defaults a HuJSON file may supply; flags given on the
// command line win over it.
type config struct {
	Output     string `json:"output"`
	Comparable bool   `json:"comparable"`
	Jobs       int    `json:"jobs"`
	Indent     string `json:"indent"`
}

func loadConfig(path string) (*config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var c config
	if err := json.Unmarshal(std, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// -----------------------------------------------------------------------------
// decompile
// -----------------------------------------------------------------------------

func cmdDecompile(args []string) int {
	fs := flag.NewFlagSet("decompile", flag.ContinueOnError)
	outDir := fs.String("o", "", "output directory (default: next to each input)")
	comparable := fs.Bool("comparable", false, "deterministic output for round-trip comparison")
	jobs := fs.Int("j", runtime.NumCPU(), "units decompiled in parallel")
	indent := fs.String("indent", "", "indentation unit (default four spaces)")
	configPath := fs.String("config", "", "HuJSON file with option defaults")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s decompile [flags] unit.json...\n", appName)
		return 2
	}

	if *configPath != "" {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
		given := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { given[f.Name] = true })
		if !given["o"] && cfg.Output != "" {
			*outDir = cfg.Output
		}
		if !given["comparable"] {
			*comparable = cfg.Comparable
		}
		if !given["j"] && cfg.Jobs > 0 {
			*jobs = cfg.Jobs
		}
		if !given["indent"] && cfg.Indent != "" {
			*indent = cfg.Indent
		}
	}

	opts := unrpyc.Options{Comparable: *comparable, Indent: *indent}

	var g errgroup.Group
	g.SetLimit(*jobs)
	for _, path := range files {
		path := path
		g.Go(func() error {
			out, err := decompileFile(path, *outDir, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s: %v\n", appName, path, err)
				return err
			}
			fmt.Printf("%s -> %s\n", path, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 1
	}
	return 0
}

func decompileFile(path, outDir string, opts unrpyc.Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	doc, err := unrpyc.DecodeDocument(f)
	f.Close()
	if err != nil {
		return "", err
	}

	out := outputPath(path, outDir)
	dst, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := unrpyc.Dump(dst, doc.Block, opts); err != nil {
		dst.Close()
		os.Remove(out)
		return "", err
	}
	return out, dst.Close()
}

func outputPath(path, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".rpy"
	if outDir == "" {
		return filepath.Join(filepath.Dir(path), base)
	}
	return filepath.Join(outDir, base)
}

// -----------------------------------------------------------------------------
// explore
// -----------------------------------------------------------------------------

const exploreHelp = `Commands:
  labels           List the labels found in the unit.
  print <label>    Print the reconstructed source of one label.
  dump             Print the whole unit.
  :quit            Exit.
`

func cmdExplore(args []string) int {
	fs := flag.NewFlagSet("explore", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s explore unit.json\n", appName)
		return 2
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	doc, err := unrpyc.DecodeDocument(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	labels := map[string]*unrpyc.Label{}
	var order []string
	collectLabels(doc.Block, labels, &order)
	fmt.Printf("%s: %d top-level statements, %d labels. Type help for commands.\n",
		fs.Arg(0), len(doc.Block), len(order))

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) (out []string) {
		if name, ok := strings.CutPrefix(line, "print "); ok {
			for _, l := range order {
				if strings.HasPrefix(l, name) {
					out = append(out, "print "+l)
				}
			}
		}
		return out
	})

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	// Explorer output is for reading, not for diffing, but comparable mode
	// keeps it free of the banner and the blank-line reconstruction.
	opts := unrpyc.Options{Comparable: true}

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		ln.AppendHistory(line)

		switch fields[0] {
		case ":quit", "quit", "exit":
			return 0
		case "help":
			fmt.Print(exploreHelp)
		case "labels":
			sorted := append([]string(nil), order...)
			sort.Strings(sorted)
			for _, name := range sorted {
				fmt.Printf("  %s (line %d)\n", name, labels[name].Position())
			}
		case "print":
			if len(fields) != 2 {
				fmt.Println("usage: print <label>")
				continue
			}
			lbl, ok := labels[fields[1]]
			if !ok {
				fmt.Printf("no label %q\n", fields[1])
				continue
			}
			if err := unrpyc.Dump(os.Stdout, unrpyc.Block{lbl}, opts); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			}
		case "dump":
			if err := unrpyc.Dump(os.Stdout, doc.Block, opts); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			}
		default:
			fmt.Printf("unknown command %q; type help\n", fields[0])
		}
	}
}

// collectLabels indexes labels in document order, descending into the
// wrappers that can hold them.
func collectLabels(block unrpyc.Block, into map[string]*unrpyc.Label, order *[]string) {
	for _, n := range block {
		switch n := n.(type) {
		case *unrpyc.Label:
			if _, ok := into[n.Name]; !ok {
				into[n.Name] = n
				*order = append(*order, n.Name)
			}
			collectLabels(n.Body, into, order)
		case *unrpyc.Init:
			collectLabels(n.Body, into, order)
		case *unrpyc.Translate:
			collectLabels(n.Body, into, order)
		}
	}
}

// Command etapa7 is the whole-program x86-64 compiler's CLI front end: it
// parses the flag table of spec.md §6 with pflag, enforces the single
// operation-flag rule, and hands everything else to internal/driver.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/brunoczim/compiler-course/internal/driver"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [OPTIONS] <source-path>\n", os.Args[0])
	pflag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		checkSyntax     bool
		checkSemantics  bool
		emitDebugTAC    bool
		emitAssemblyTAC bool
		emitAssembly    bool
		emitObjFile     bool
		emitExecutable  bool
		optimizeAll     bool
		powerOfTwo      bool
		reuseTemps      bool
		dedupMovs       bool
		incDecs         bool
		debugFlag       bool
		help            bool
	)

	pflag.BoolVarP(&checkSyntax, "check-syntax", "k", false, "stop after parsing")
	pflag.BoolVarP(&checkSemantics, "check-semantics", "K", false, "also run semantic checking")
	pflag.BoolVarP(&emitDebugTAC, "emit-debug-tac", "t", false, "print raw TAC to stderr")
	pflag.BoolVarP(&emitAssemblyTAC, "emit-assembly-tac", "T", false, "print textual TAC to stdout")
	pflag.BoolVarP(&emitAssembly, "emit-assembly", "S", false, "write .s next to the source")
	pflag.BoolVarP(&emitObjFile, "emit-obj-file", "c", false, "also invoke cc <src>.s -c")
	pflag.BoolVarP(&emitExecutable, "emit-executable", "e", false, "also invoke cc <src>.s (default)")
	pflag.BoolVarP(&optimizeAll, "optimize", "O", false, "enable all TAC + asm optimizations")
	pflag.BoolVar(&powerOfTwo, "fpower-of-two", false, "rewrite mul/div by a power of two to a shift")
	pflag.BoolVar(&reuseTemps, "freuse-tmps", false, "share non-overlapping temporary live ranges")
	pflag.BoolVar(&dedupMovs, "fdedup-movs", false, "fuse a redundant mov into its sole consumer")
	pflag.BoolVar(&incDecs, "finc-decs", false, "contract add/sub $1 into inc/dec (implies -fdedup-movs)")
	pflag.BoolVarP(&debugFlag, "debug", "g", false, "pass -g to the external C compiler")
	pflag.BoolVarP(&help, "help", "h", false, "usage to stderr")
	pflag.Parse()

	if help {
		usage()
		return 1
	}

	if incDecs {
		dedupMovs = true
	}
	if optimizeAll {
		powerOfTwo, reuseTemps, dedupMovs, incDecs = true, true, true, true
	}

	operationFlags := 0
	for _, set := range []bool{checkSyntax, checkSemantics, emitDebugTAC, emitAssemblyTAC, emitAssembly} {
		if set {
			operationFlags++
		}
	}
	if operationFlags > 1 {
		fmt.Fprintln(os.Stderr, "etapa7: only one of -k/-K/-t/-T/-S may be given")
		usage()
		return 1
	}

	if pflag.NArg() != 1 {
		usage()
		return 1
	}

	// The five operation flags are each their own stopping point (driver.Run
	// returns as soon as it reaches the one that's set); with none of them
	// given the pipeline runs to completion and -e's default applies.
	if !checkSyntax && !checkSemantics && !emitDebugTAC && !emitAssemblyTAC && !emitAssembly && !emitObjFile {
		emitExecutable = true
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.InfoLevel)
	if debugFlag {
		log.SetLevel(logrus.DebugLevel)
	}

	opts := driver.Options{
		SourcePath:      pflag.Arg(0),
		CheckSyntax:     checkSyntax,
		CheckSemantics:  checkSemantics,
		EmitDebugTAC:    emitDebugTAC,
		EmitAssemblyTAC: emitAssemblyTAC,
		EmitAssembly:    emitAssembly,
		EmitObjFile:     emitObjFile,
		EmitExecutable:  emitExecutable,
		PowerOfTwo:      powerOfTwo,
		ReuseTemps:      reuseTemps,
		DedupMovs:       dedupMovs,
		IncDecs:         incDecs,
		Debug:           debugFlag,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
	}
	return driver.Run(opts, log)
}

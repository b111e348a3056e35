// Package driver orchestrates the pipeline stages cmd/etapa7 exposes as
// flags: parse, check, lower to TAC, optimize TAC, generate assembly,
// optimize assembly, emit. It owns exit-code mapping (spec.md §6-7) and
// stage-boundary logging; nothing here parses flags itself.
package driver

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/brunoczim/compiler-course/internal/asm"
	"github.com/brunoczim/compiler-course/internal/codegen"
	"github.com/brunoczim/compiler-course/internal/diag"
	"github.com/brunoczim/compiler-course/internal/lexer"
	"github.com/brunoczim/compiler-course/internal/parser"
	"github.com/brunoczim/compiler-course/internal/peephole"
	"github.com/brunoczim/compiler-course/internal/sema"
	"github.com/brunoczim/compiler-course/internal/symtab"
	"github.com/brunoczim/compiler-course/internal/tac"
)

// Exit codes, per spec.md §6.
const (
	ExitSuccess        = 0
	ExitUsage          = 1
	ExitSourceOpenFail = 2
	ExitSyntaxError    = 3
	ExitSemanticError  = 4
	ExitObjectEmitFail = 5
	ExitExecutableFail = 6
)

// Options mirrors the cmd/etapa7 flag table (spec.md §6) one field per flag,
// already validated (mutual exclusion among the operation flags) by the
// caller.
type Options struct {
	SourcePath string

	CheckSyntax     bool
	CheckSemantics  bool
	EmitDebugTAC    bool
	EmitAssemblyTAC bool
	EmitAssembly    bool
	EmitObjFile     bool
	EmitExecutable  bool

	PowerOfTwo bool
	ReuseTemps bool
	DedupMovs  bool
	IncDecs    bool

	Debug bool

	Stdout io.Writer
	Stderr io.Writer
}

// tacFlags translates the CLI's TAC optimizer switches into tac.Flags.
func (o Options) tacFlags() tac.Flags {
	return tac.Flags{PowerOfTwo: o.PowerOfTwo, ReuseTemps: o.ReuseTemps}
}

// Run executes the pipeline through whichever stage o selects and returns
// the process exit code the documented table assigns.
func Run(o Options, log *logrus.Logger) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(o.Stderr, "etapa7: internal error: %v\n", r)
			code = 70
		}
	}()

	src, err := os.ReadFile(o.SourcePath)
	if err != nil {
		fmt.Fprintf(o.Stderr, "etapa7: %s: %v\n", o.SourcePath, err)
		return ExitSourceOpenFail
	}

	errs := &diag.Errors{}
	interns := symtab.New()

	toks := lexer.New(src, errs).Tokenize()
	log.Debugf("stage: lex (%d tokens)", len(toks))

	prog := parser.New(toks, errs).ParseProgram()
	log.Debugf("stage: parse (%d top-level decls)", len(prog.Nodes))

	if errs.Count() > 0 {
		errs.Print(o.Stderr)
		return ExitSyntaxError
	}
	if o.CheckSyntax {
		return ExitSuccess
	}

	sema.New(errs, interns).Check(prog)
	log.Debugf("stage: semantic check (%d errors)", errs.Count())

	if errs.Count() > 0 {
		errs.Print(o.Stderr)
		return ExitSemanticError
	}
	if o.CheckSemantics {
		return ExitSuccess
	}

	seq := tac.New(interns).Lower(prog)
	nodeCount := len(seq.Slice())
	log.Debugf("stage: lower to TAC (%d instructions)", nodeCount)

	if o.EmitDebugTAC {
		fmt.Fprint(o.Stderr, tac.DebugText(seq))
		return ExitSuccess
	}

	tac.Optimize(seq, o.tacFlags())
	log.Debugf("stage: optimize TAC (%d instructions)", len(seq.Slice()))

	if o.EmitAssemblyTAC {
		fmt.Fprint(o.Stdout, tac.Render(seq, 2))
		return ExitSuccess
	}

	unit := codegen.Generate(seq, interns)
	log.Debugf("stage: generate assembly (%d statements)", len(unit.Statements))

	if o.DedupMovs {
		peephole.DedupMoves(unit)
	}
	if o.IncDecs {
		peephole.ContractIncDec(unit)
	}
	log.Debugf("stage: optimize assembly (%d statements)", len(unit.Statements))

	asmPath := o.SourcePath + ".s"
	if o.EmitAssembly || o.EmitObjFile || o.EmitExecutable {
		if err := os.WriteFile(asmPath, []byte(asm.Render(unit)), 0644); err != nil {
			fmt.Fprintf(o.Stderr, "etapa7: writing %s: %v\n", asmPath, err)
			return ExitObjectEmitFail
		}
	}
	if o.EmitAssembly && !o.EmitObjFile && !o.EmitExecutable {
		return ExitSuccess
	}

	if o.EmitObjFile {
		if err := invokeCC(o, asmPath, "-c"); err != nil {
			fmt.Fprintf(o.Stderr, "etapa7: %v\n", err)
			return ExitObjectEmitFail
		}
		log.Debugf("stage: emit object file")
		return ExitSuccess
	}

	if o.EmitExecutable {
		if err := invokeCC(o, asmPath); err != nil {
			fmt.Fprintf(o.Stderr, "etapa7: %v\n", err)
			return ExitExecutableFail
		}
		log.Debugf("stage: emit executable")
		return ExitSuccess
	}

	return ExitSuccess
}

// invokeCC shells out to the external C compiler, wrapping any failure so
// the caller can unwrap to the underlying *exec.ExitError if it wants the
// process's own exit status rather than just a message.
func invokeCC(o Options, asmPath string, extra ...string) error {
	args := append([]string{asmPath}, extra...)
	if o.Debug {
		args = append(args, "-g")
	}
	cmd := exec.Command("cc", args...)
	cmd.Stdout = o.Stdout
	cmd.Stderr = o.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "cc %s", asmPath)
	}
	return nil
}

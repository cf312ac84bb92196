/*
Teeny compiles a Tiny BASIC program into a native executable.

Usage:

	teeny [flags] <input-file>
	teeny [flags] -c "<code>"

The flags are:

	-c, --code
		Treat the positional argument as Tiny BASIC source text instead of a
		path to read.

	-o, --output-file PATH
		Write the produced executable (or, with -a, the assembly listing) to
		PATH. Defaults to "a.out" (with ".exe" appended when targeting
		windows).

	-t, --target TARGET
		Cross-compile for TARGET, given as "<arch>-<os>" (e.g. "x86_64-linux"
		or "x86_64-windows"). Defaults to the host's own target, when
		supported.

	-l, --list-targets
		Print every target teeny can compile for and exit.

	-a, --emit-asm
		Stop after code generation and write the x86-64 assembly listing
		instead of invoking the assembler/linker.

	-v, --verbose
		Print each pipeline phase's name and duration to stderr as it runs.

	-i, --host-info
		Print the detected host target and whether teeny supports it, then
		exit.

	-h, --help
		Print the list of flags and exit.

Exit codes: 0 on success; 1 if the input could not be read or the target is
unsupported; 2 on a compile error (lexical, grammar, or semantic diagnostics
were reported); 3 if the external assembler/linker invocation failed.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	teeny "go.teeny.dev/pkg"
)

const (
	exitSuccess = iota
	exitUsage
	exitCompileError
	exitAssembleError
)

var (
	flagCode        = pflag.BoolP("code", "c", false, "treat the positional argument as source text, not a path")
	flagOutputFile  = pflag.StringP("output-file", "o", "a.out", "where to write the produced executable or assembly listing")
	flagTarget      = pflag.StringP("target", "t", "", "cross-compile for <arch>-<os>, e.g. x86_64-linux")
	flagListTargets = pflag.BoolP("list-targets", "l", false, "print every supported target and exit")
	flagEmitAsm     = pflag.BoolP("emit-asm", "a", false, "stop after code generation and write assembly instead of linking")
	flagVerbose     = pflag.BoolP("verbose", "v", false, "print per-phase timing to stderr")
	flagHostInfo    = pflag.BoolP("host-info", "i", false, "print the detected host target and exit")
	flagHelp        = pflag.BoolP("help", "h", false, "print usage and exit")
)

func main() {
	// ContinueOnError keeps flag-parse failures on this program's own exit
	// code for user errors instead of pflag's default.
	pflag.CommandLine.Init("teeny", pflag.ContinueOnError)
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		os.Exit(exitUsage)
	}
	os.Exit(run())
}

func run() int {
	if *flagHelp {
		pflag.Usage()
		return exitSuccess
	}

	if *flagListTargets {
		for _, t := range teeny.SupportedTargets {
			fmt.Println(t)
		}
		return exitSuccess
	}

	if *flagHostInfo {
		fmt.Println(teeny.HostInfoString())
		return exitSuccess
	}

	target, err := resolveTarget(*flagTarget)
	if err != nil {
		fmt.Fprintln(os.Stderr, "teeny:", err)
		return exitUsage
	}

	source, err := resolveSource(*flagCode, pflag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "teeny:", err)
		return exitUsage
	}

	compiler := teeny.NewCompiler(target)
	compiler.Verbose = *flagVerbose

	diagnostics, result, err := compiler.Compile(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, "teeny:", err)
		return exitUsage
	}

	if len(diagnostics) > 0 {
		for _, d := range diagnostics {
			fmt.Fprintln(os.Stderr, d.String())
		}
		return exitCompileError
	}

	outPath := resolveOutputPath(target)

	if *flagEmitAsm {
		if err := teeny.WriteAssembly(result, outPath); err != nil {
			fmt.Fprintln(os.Stderr, "teeny:", err)
			return exitAssembleError
		}
		return exitSuccess
	}

	if err := compiler.Build(result, outPath); err != nil {
		fmt.Fprintln(os.Stderr, "teeny:", err)
		return exitAssembleError
	}

	return exitSuccess
}

func resolveTarget(flag string) (teeny.Target, error) {
	if flag != "" {
		return teeny.ParseTarget(flag)
	}

	host, supported := teeny.HostTarget()
	if !supported {
		return teeny.Target{}, fmt.Errorf("host target is not one teeny supports; pass -t/--target explicitly")
	}
	return host, nil
}

func resolveSource(isLiteral bool, args []string) (teeny.Source, error) {
	if len(args) != 1 {
		return teeny.Source{}, fmt.Errorf("expected exactly one input file (or, with -c/--code, one source literal)")
	}

	if isLiteral {
		return teeny.LiteralSource(args[0]), nil
	}
	return teeny.FileSource(args[0]), nil
}

// resolveOutputPath applies the target's conventional suffix to the default
// output name, leaving a path the user set explicitly untouched.
func resolveOutputPath(target teeny.Target) string {
	if pflag.CommandLine.Changed("output-file") {
		return *flagOutputFile
	}
	return target.DefaultOutputName(*flagOutputFile)
}

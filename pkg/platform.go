package teeny

import (
	"fmt"
	"runtime"
	"strings"
)

// Arch is a supported target instruction set architecture.
type Arch string

// OS is a supported target operating system / ABI family.
type OS string

const (
	ArchX86_64 Arch = "x86_64"

	OSLinux   OS = "linux"
	OSWindows OS = "windows"
)

// Target identifies what the emitter and assembler invocation should
// produce code for, parsed from an "<arch>-<os>" triple (§4.3). This
// generalizes the teacher's three-field Target{Arch, Vendor, OS}
// (`pkg/compiler.go`): Tiny BASIC has no use for a vendor component, so it
// is dropped rather than carried unused (see DESIGN.md).
type Target struct {
	Arch Arch
	OS   OS
}

// SupportedTargets lists every Target the emitter and driver know how to
// produce, in the order `-l/--list-targets` prints them.
var SupportedTargets = []Target{
	{Arch: ArchX86_64, OS: OSLinux},
	{Arch: ArchX86_64, OS: OSWindows},
}

func (t Target) String() string {
	return fmt.Sprintf("%s-%s", t.Arch, t.OS)
}

// ParseTarget parses a "<arch>-<os>" triple, rejecting anything not in
// SupportedTargets.
func ParseTarget(s string) (Target, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Target{}, fmt.Errorf("malformed target %q: expected <arch>-<os>", s)
	}

	candidate := Target{Arch: Arch(parts[0]), OS: OS(parts[1])}
	for _, t := range SupportedTargets {
		if t == candidate {
			return t, nil
		}
	}

	return Target{}, fmt.Errorf("unsupported target %q", s)
}

// HostTarget reports the Target matching the process's own GOARCH/GOOS, and
// whether that combination is one teeny supports. Grounded on
// `original_source/src/core/platform.c`'s HOST_INFO, which detects the build
// host via preprocessor macros in the same spirit.
func HostTarget() (Target, bool) {
	var arch Arch
	switch runtime.GOARCH {
	case "amd64":
		arch = ArchX86_64
	default:
		return Target{}, false
	}

	var os OS
	switch runtime.GOOS {
	case "linux":
		os = OSLinux
	case "windows":
		os = OSWindows
	default:
		return Target{}, false
	}

	t := Target{Arch: arch, OS: os}
	for _, s := range SupportedTargets {
		if s == t {
			return t, true
		}
	}
	return t, false
}

// HostInfoString renders the -i/--host-info report: the detected host
// triple plus whether teeny can target it, matching
// `original_source/src/core/platform.c`'s HOST_INFO / get_calling_convention
// pairing (arch+ABI detection, then a supported/unsupported verdict).
func HostInfoString() string {
	t, supported := HostTarget()
	if t.Arch == "" {
		return fmt.Sprintf("host: GOARCH=%s GOOS=%s (unrecognized architecture or OS)", runtime.GOARCH, runtime.GOOS)
	}
	if !supported {
		return fmt.Sprintf("host: %s (detected, but not a supported compilation target)", t)
	}
	return fmt.Sprintf("host: %s (supported)", t)
}

// CallingConvention carries the register and stack layout facts the
// emitter needs to generate a correct call sequence for a target's ABI,
// directly transcribing `original_source/src/core/platform.c`'s
// CC_SYSTEM_V_64 / CC_MS_64 tables.
type CallingConvention struct {
	ArgumentRegs   []string
	ScratchRegs    []string
	ReturnReg      string
	StackReg       string
	BaseReg        string
	InstReg        string
	StackAlignment int
	ShadowSpace    int
	PtrSize        int
}

var ccSystemV64 = CallingConvention{
	ArgumentRegs:   []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"},
	ScratchRegs:    []string{"r10", "r11"},
	ReturnReg:      "rax",
	StackReg:       "rsp",
	BaseReg:        "rbp",
	InstReg:        "rip",
	StackAlignment: 16,
	ShadowSpace:    0,
	PtrSize:        8,
}

var ccMS64 = CallingConvention{
	ArgumentRegs:   []string{"rcx", "rdx", "r8", "r9"},
	ScratchRegs:    []string{"r10", "r11"},
	ReturnReg:      "rax",
	StackReg:       "rsp",
	BaseReg:        "rbp",
	InstReg:        "rip",
	StackAlignment: 16,
	ShadowSpace:    32,
	PtrSize:        8,
}

// CallingConvention returns the ABI register/stack layout for t. Every
// Target in SupportedTargets is x86_64, so this never needs the
// original's "32-bit is unsupported" exit path.
func (t Target) CallingConvention() CallingConvention {
	if t.OS == OSWindows {
		return ccMS64
	}
	return ccSystemV64
}

// AssemblerCommand returns the program name and arguments Compiler.Build
// runs to assemble and link the assembly text piped into its stdin into an
// executable at outPath for target t. "-x assembler -" tells gcc to treat
// stdin as assembly source rather than guessing from a file extension it
// doesn't have.
func (t Target) AssemblerCommand(outPath string) (string, []string) {
	switch t.OS {
	case OSWindows:
		return "x86_64-w64-mingw32-gcc", []string{"-x", "assembler", "-m64", "-o", outPath, "-"}
	default:
		return "gcc", []string{"-x", "assembler", "-m64", "-no-pie", "-o", outPath, "-"}
	}
}

// DefaultOutputName returns the conventional output binary name for t,
// applying the .exe suffix Windows PE loaders require, matching the
// teacher's outName handling in `pkg/compiler.go`'s build().
func (t Target) DefaultOutputName(base string) string {
	if t.OS == OSWindows && !strings.HasSuffix(base, ".exe") {
		return base + ".exe"
	}
	return base
}

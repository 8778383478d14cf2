package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ngbazel/resolvebazel/pkg/cli"
)

func main() {
	osArgs := os.Args[1:]
	cpuprofileFile := ""
	traceFile := ""

	// Do an initial scan over the argument list
	argsEnd := 0
	for _, arg := range osArgs {
		switch {
		// Special-case the version flag here
		case arg == "--version":
			fmt.Fprintf(os.Stdout, "%s\n", resolvebazelVersion)
			os.Exit(0)

		case strings.HasPrefix(arg, "--cpuprofile="):
			cpuprofileFile = arg[len("--cpuprofile="):]

		case strings.HasPrefix(arg, "--trace="):
			traceFile = arg[len("--trace="):]

		default:
			// Strip any arguments that were handled above
			osArgs[argsEnd] = arg
			argsEnd++
		}
	}
	osArgs = osArgs[:argsEnd]

	// Capture the defer statements below so the profiles are flushed before exit
	exitCode := 1
	func() {
		if traceFile != "" {
			done := createTraceFile(osArgs, traceFile)
			if done == nil {
				return
			}
			defer done()
		}

		if cpuprofileFile != "" {
			done := createCpuprofileFile(osArgs, cpuprofileFile)
			if done == nil {
				return
			}
			defer done()
		}

		exitCode = cli.Run(osArgs, os.Stdin, os.Stdout, os.Stderr)
	}()

	os.Exit(exitCode)
}

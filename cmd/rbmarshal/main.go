// Rbmarshal inspects and rewrites Ruby Marshal files.
//
// Usage:
//
//	rbmarshal [flags] inspect FILE...  Print the values in each file as YAML
//	rbmarshal [flags] redump FILE      Decode FILE and write its values back out
//	rbmarshal [flags] verify FILE...   Check that each file survives decoding and re-encoding
//
// A FILE of "-" reads standard input. A file may hold several streams back to back.
//
// The optional config file is YAML:
//
//	classes: [Point, Range]
//	strict: true
//	depth_limit: 512
//
// With strict set, any class name not listed under classes fails decoding.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
)

const progName = "rbmarshal"

var (
	configFile = flag.String("config", "", "YAML `file` listing known classes, strict mode and the depth limit")
	strict     = flag.Bool("strict", false, "fail on class names not listed in the config file")
	depthLimit = flag.Int("depth", 0, "nesting depth limit; 0 uses the default")
	jobs       = flag.Int("j", runtime.NumCPU(), "number of files to process concurrently")
	output     = flag.String("o", "", "redump: output `file`; standard output if empty")
)

func main() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "usage: %s [flags] inspect|redump|verify FILE...\n", progName)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fatal(err)
	}
	if *strict {
		cfg.Strict = true
	}
	if *depthLimit != 0 {
		cfg.DepthLimit = *depthLimit
	}
	if *jobs < 1 {
		fatal(fmt.Errorf("-j must be at least 1, got %d", *jobs))
	}

	ctx := context.Background()
	cmd, files := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "inspect":
		err = inspect(ctx, cfg, os.Stdout, files, *jobs)
	case "redump":
		if len(files) != 1 {
			fatal(fmt.Errorf("redump takes one file, got %d", len(files)))
		}
		err = redump(cfg, files[0], *output)
	case "verify":
		err = verify(ctx, cfg, os.Stdout, files, *jobs)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", progName, cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
	os.Exit(1)
}

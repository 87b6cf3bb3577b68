package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"heic2png/contracts"
	"heic2png/converter"
)

type InputFlags = contracts.InputFlags

func main() {
	batch := flag.Bool("batch", false, "Convert all HEIC files in the input directory")
	workers := flag.Int("workers", 1, "Parallel conversions in batch mode (0 = one per CPU)")
	flatten := flag.Bool("flatten", false, "Flatten transparency onto a white background")
	keepDPI := flag.Bool("keep-dpi", true, "Carry the EXIF resolution into the PNG pHYs chunk")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Usage = usage
	flag.Parse()

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	posArgs := flag.Args()
	if len(posArgs) < 1 || len(posArgs) > 2 {
		usage()
		os.Exit(2)
	}

	args := InputFlags{
		InputPath: posArgs[0],
		Batch:     *batch,
		Workers:   *workers,
		Flatten:   *flatten,
		KeepDPI:   *keepDPI,
	}
	if len(posArgs) == 2 {
		args.OutputPath = posArgs[1]
	}
	if args.Batch && args.Workers <= 0 {
		args.Workers = max(runtime.NumCPU()-1, 1)
	}

	startTime := time.Now()

	results, err := converter.Run(args)
	if err != nil {
		logrus.Errorf("%s: %v", failureKind(err), err)
		os.Exit(1)
	}

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			logrus.Errorf("%s: %v", failureKind(result.Err), result.Err)
			continue
		}
		fmt.Println(result.OutputPath)
	}

	logrus.Infof("converted %d of %d files in %s",
		len(results)-failed, len(results), time.Since(startTime).Round(time.Millisecond))
	if failed > 0 {
		os.Exit(1)
	}
}

// failureKind names the error taxonomy bucket for user-facing messages.
func failureKind(err error) string {
	var decodeErr *contracts.DecodeError
	var ioErr *contracts.IOError
	var unsupportedErr *contracts.UnsupportedFormatError
	var encodeErr *contracts.EncodeError
	switch {
	case errors.As(err, &decodeErr):
		return "decode failure"
	case errors.As(err, &ioErr):
		return "I/O failure"
	case errors.As(err, &unsupportedErr):
		return "unsupported format"
	case errors.As(err, &encodeErr):
		return "encode failure"
	}
	return "failure"
}

func usage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input> [output]\n\n", prog)
	fmt.Fprintf(os.Stderr, "Converts HEIC images to PNG. Decodable input formats: %s.\n\n",
		strings.Join(converter.SupportedFormats(), ", "))
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"heic2png/contracts"
	"heic2png/files_manager"
	"heic2png/png_writer"
	"heic2png/utils"
)

type Options struct {
	// Flatten composites transparency onto a white background before
	// encoding, matching what most viewers show for HEIC sources.
	Flatten bool
	// KeepDPI copies the source EXIF resolution into the PNG pHYs chunk.
	KeepDPI bool
	// Workers bounds parallelism in ConvertMany. Values below 1 mean
	// sequential processing.
	Workers int
}

// FileConverter is a stateless file-to-file image converter. Methods are
// safe for concurrent use on disjoint output paths.
type FileConverter struct {
	opts Options
}

func New(opts Options) *FileConverter {
	InitCodecs()
	return &FileConverter{opts: opts}
}

var _ contracts.Converter = (*FileConverter)(nil)

// ConvertOne decodes inputPath and writes it to outputPath as PNG. The
// output file is only created once decoding and encoding have succeeded.
func (c *FileConverter) ConvertOne(inputPath string, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return &contracts.IOError{Path: inputPath, Err: err}
	}

	format := DetectFormat(data)
	if format == "" {
		return &contracts.DecodeError{Path: inputPath, Err: errors.New("unrecognized image signature")}
	}
	decode, ok := lookupCodec(format)
	if !ok {
		return &contracts.UnsupportedFormatError{Path: inputPath, Format: format}
	}

	if format == "heic" {
		if w, h, ok := utils.HEICDimensions(data); ok {
			logrus.Debugf("%s: heic %dx%d", inputPath, w, h)
		}
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return &contracts.DecodeError{Path: inputPath, Err: err}
	}

	rawExif, _ := utils.ExtractExif(data, format)
	if len(rawExif) > 0 {
		if orientation := utils.Orientation(rawExif); orientation > 1 {
			img = utils.ApplyOrientation(img, orientation)
		}
	}
	if c.opts.Flatten {
		img = utils.FlattenOnWhite(img)
	}

	var buf bytes.Buffer
	if err := encodePNG(&buf, img); err != nil {
		return &contracts.EncodeError{Path: inputPath, Err: err}
	}
	encoded := buf.Bytes()

	if c.opts.KeepDPI && len(rawExif) > 0 {
		if dpiX, dpiY, ok := utils.Resolution(rawExif); ok {
			withDPI, err := png_writer.WriteDPI(encoded, dpiX, dpiY)
			if err != nil {
				logrus.Warnf("%s: keeping dpi failed: %v", inputPath, err)
			} else {
				encoded = withDPI
			}
		}
	}

	if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
		return &contracts.IOError{Path: outputPath, Err: err}
	}
	return nil
}

type convertTask struct {
	index int
	item  contracts.ConvertItem
}

// ConvertMany converts each pair independently. One item failing does not
// stop the rest; the result slice has one entry per item, in input order.
func (c *FileConverter) ConvertMany(items []contracts.ConvertItem) []contracts.ItemResult {
	results := make([]contracts.ItemResult, len(items))

	workers := c.opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	if workers <= 1 {
		for i, item := range items {
			results[i] = c.convertItem(item)
		}
		return results
	}

	taskChan := make(chan convertTask)
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				results[task.index] = c.convertItem(task.item)
			}
		}()
	}
	for i, item := range items {
		taskChan <- convertTask{index: i, item: item}
	}
	close(taskChan)
	wg.Wait()
	return results
}

func (c *FileConverter) convertItem(item contracts.ConvertItem) contracts.ItemResult {
	err := c.ConvertOne(item.InputPath, item.OutputPath)
	if err != nil {
		logrus.Debugf("conversion failed: %v", err)
	} else {
		logrus.Debugf("converted %s", item.OutputPath)
	}
	return contracts.ItemResult{
		InputPath:  item.InputPath,
		OutputPath: item.OutputPath,
		Err:        err,
	}
}

// Run is the library entry point behind the CLI. In batch mode InputPath
// is a directory scanned for HEIC files and OutputPath is the output
// directory (default "<input>/converted", created if missing). In single
// mode OutputPath defaults to the input path with a .png extension.
func Run(flags contracts.InputFlags) ([]contracts.ItemResult, error) {
	conv := New(Options{
		Flatten: flags.Flatten,
		KeepDPI: flags.KeepDPI,
		Workers: flags.Workers,
	})

	if flags.Batch {
		return runBatch(conv, flags)
	}

	info, err := os.Stat(flags.InputPath)
	if err != nil {
		return nil, &contracts.IOError{Path: flags.InputPath, Err: err}
	}
	if info.IsDir() {
		return nil, fmt.Errorf("input path %s is a directory, use -batch", flags.InputPath)
	}

	outputPath := files_manager.ResolveOutputPath(flags.InputPath, flags.OutputPath)
	return conv.ConvertMany([]contracts.ConvertItem{
		{InputPath: flags.InputPath, OutputPath: outputPath},
	}), nil
}

func runBatch(conv *FileConverter, flags contracts.InputFlags) ([]contracts.ItemResult, error) {
	if err := files_manager.CheckInputDir(flags.InputPath); err != nil {
		return nil, err
	}

	inputs, totalSize, err := files_manager.GetHEICPaths(flags.InputPath)
	if err != nil {
		return nil, &contracts.IOError{Path: flags.InputPath, Err: err}
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no HEIC files found in %s", flags.InputPath)
	}

	outputDir := flags.OutputPath
	if outputDir == "" {
		outputDir = filepath.Join(flags.InputPath, "converted")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &contracts.IOError{Path: outputDir, Err: err}
	}

	logrus.Infof("converting %d files (%s) from %s", len(inputs), humanSize(totalSize), flags.InputPath)
	return conv.ConvertMany(files_manager.BuildPairs(inputs, outputDir)), nil
}

func humanSize(size int64) string {
	const mb = 1 << 20
	if size >= mb {
		return fmt.Sprintf("%.1f MB", float64(size)/mb)
	}
	return fmt.Sprintf("%d KB", (size+1023)/1024)
}

// SupportedFormats lists the registry keys of the current build, mostly
// for -help style output.
func SupportedFormats() []string {
	InitCodecs()
	formats := make([]string, 0, len(codecs))
	for format := range codecs {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

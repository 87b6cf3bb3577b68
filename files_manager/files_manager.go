package files_manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"heic2png/contracts"
)

type ConvertItem = contracts.ConvertItem

// CheckInputDir verifies the batch input path exists and is a directory.
func CheckInputDir(path string) error {
	if path == "" {
		return fmt.Errorf("input directory required")
	}
	stat, err := os.Stat(path)
	if err != nil {
		return &contracts.IOError{Path: path, Err: err}
	}
	if !stat.IsDir() {
		return fmt.Errorf("input path %s must be a directory in batch mode", path)
	}
	return nil
}

// GetHEICPaths lists the HEIC files directly inside dir, skipping
// subdirectories and AppleDouble "._" companions, and returns their total
// size in bytes.
func GetHEICPaths(dir string) ([]string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	heicFiles := make([]string, 0, len(entries))
	var size int64 = 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "._") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".heic" || ext == ".heif" {
			heicFiles = append(heicFiles, filepath.Join(dir, entry.Name()))
			info, err := entry.Info()
			if err == nil {
				size += info.Size()
			}
		}
	}
	return heicFiles, size, nil
}

// BuildPairs places each input's PNG next to its stem inside outputDir.
func BuildPairs(inputs []string, outputDir string) []ConvertItem {
	items := make([]ConvertItem, 0, len(inputs))
	for _, input := range inputs {
		items = append(items, ConvertItem{
			InputPath:  input,
			OutputPath: filepath.Join(outputDir, Stem(input)+".png"),
		})
	}
	return items
}

// Stem returns the file name without directory or extension.
func Stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// ResolveOutputPath applies the single-file output defaulting rules: an
// empty output becomes the input with a .png extension, and an output
// that names an existing directory receives "<stem>.png" inside it.
func ResolveOutputPath(inputPath string, outputPath string) string {
	if outputPath == "" {
		return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".png"
	}
	if stat, err := os.Stat(outputPath); err == nil && stat.IsDir() {
		return filepath.Join(outputPath, Stem(inputPath)+".png")
	}
	return outputPath
}

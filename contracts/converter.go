package contracts

type Converter interface {
	ConvertOne(inputPath string, outputPath string) error
	ConvertMany(items []ConvertItem) []ItemResult
}

// ConvertItem pairs one source image with its destination path.
type ConvertItem struct {
	InputPath  string
	OutputPath string
}

// ItemResult is the per-item outcome of a batch conversion. Err is nil
// on success. Results keep the order of the submitted items.
type ItemResult struct {
	InputPath  string
	OutputPath string
	Err        error
}

package contracts

type InputFlags struct {
	InputPath  string
	OutputPath string
	Batch      bool
	Workers    int
	Flatten    bool
	KeepDPI    bool
}

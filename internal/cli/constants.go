package cli

// Default values for CLI flags and output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// ProgressWidth is the width of download progress bars.
	ProgressWidth = 30
)

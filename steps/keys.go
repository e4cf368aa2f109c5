package steps

const (
	// InputKey holds the caller-supplied int.
	InputKey = "input"
	// OutputKey holds the int produced by Double.
	OutputKey = "output"
)

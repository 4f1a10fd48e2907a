package apply

import (
	"os"

	"settings-converter/internal/ini"
)

// Filesystem hooks, replaced in tests to simulate failures.
var (
	removeFile   = os.Remove
	saveDocument = (*ini.Document).Save
)

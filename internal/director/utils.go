package director

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// GenerateSequencePath creates a timestamped output filename derived from the script name
func GenerateSequencePath(outputDir, scriptPath string) string {
	base := filepath.Base(scriptPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." {
		name = "sequence"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s.sequence.json", name, timestamp))
}

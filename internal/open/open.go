package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
)

// OpenExport opens the snapshot behind an export in $EDITOR, positioned
// at the source line of hitEventID when it is known.
func OpenExport(db *index.DB, exportKey string, hitEventID int) error {
	path, lineNum, err := Locate(db, exportKey, hitEventID)
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	cmd := editorCommand(editor, path, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Locate returns the snapshot path and the 1-based line of an event.
func Locate(db *index.DB, exportKey string, hitEventID int) (string, int, error) {
	exp, err := db.GetExportByKey(exportKey)
	if err != nil {
		return "", 0, fmt.Errorf("get export: %w", err)
	}
	if exp == nil {
		return "", 0, fmt.Errorf("export not found: %s", exportKey)
	}
	if _, err := os.Stat(exp.FilePath); err != nil {
		return "", 0, fmt.Errorf("file not found: %s", exp.FilePath)
	}

	// find line number for the hit event
	lineNum := 1
	if hitEventID >= 0 {
		events, _, _, _, err := db.GetEventsWindow(exportKey, hitEventID, 0)
		if err == nil {
			for _, e := range events {
				if e.EventID == hitEventID && e.LineNumber > 0 {
					lineNum = e.LineNumber
					break
				}
			}
		}
	}
	return exp.FilePath, lineNum, nil
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}

package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// installFakeTool drops an executable shell script named name onto PATH for
// the duration of the test, and returns the path to a log file the script
// appends one line to (its own argv, space-joined) on every invocation.
// body is inserted verbatim before the logging line, so callers can control
// exit status or stdout.
func installFakeTool(t *testing.T, name string, body string) (logPath string) {
	t.Helper()
	dir := t.TempDir()
	logPath = filepath.Join(dir, name+".log")

	script := "#!/bin/sh\n" +
		body + "\n" +
		`echo "$@" >> ` + logPath + "\n"
	scriptPath := filepath.Join(dir, name)
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return logPath
}

func readLogLines(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

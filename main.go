package main

import (
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"autodoc/cmd"
	"autodoc/pkg/logging"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// Cobra already printed the error; the logger records it for
		// production log collection.
		logging.Logger.Error("autodoc execution failed", zap.Error(err))
		syncLogger()
		os.Exit(1)
	}
	syncLogger()
}

// syncLogger flushes the logger. Syncing a console stderr fails with
// "invalid argument" on some platforms, which is not worth reporting.
func syncLogger() {
	if !term.IsTerminal(int(os.Stderr.Fd())) && !isRegularFile(os.Stderr) {
		return
	}
	if err := logging.Logger.Sync(); err != nil {
		if !strings.Contains(strings.ToLower(err.Error()), "invalid argument") {
			log.Printf("Logger sync failed: %v", err)
		}
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}

package logger

import (
	"io"
	"log"
	"os"
)

var DebugMode bool

// Init discards log output unless debug mode is requested, since stray
// writes to stdout corrupt the TUI.
func Init(debug bool) {
	if debug || os.Getenv("DEBUG") == "true" {
		DebugMode = true
		return
	}
	log.SetOutput(io.Discard)
}

// SetOutput sets the output destination for the standard logger
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func Debug(format string, v ...interface{}) {
	if DebugMode {
		log.Printf("[DEBUG] "+format, v...)
	}
}

func Info(format string, v ...interface{}) {
	log.Printf("[INFO] "+format, v...)
}

func Warn(format string, v ...interface{}) {
	log.Printf("[WARN] "+format, v...)
}

func Error(format string, v ...interface{}) {
	log.Printf("[ERROR] "+format, v...)
}

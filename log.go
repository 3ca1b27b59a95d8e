package rtmp

import (
	"log"
	"os"
)

const (
	LogDebug = 1 << iota
	LogInfo
	LogWarn
	LogError
	LogAll = LogDebug | LogInfo | LogWarn | LogError
)

var (
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	logLevel    = LogWarn | LogError
	logFlags    = log.LstdFlags
)

func init() {
	setupLoggers()
}

func setupLoggers() {
	debugLogger = log.New(os.Stdout, "[DEBUG] ", logFlags)
	infoLogger = log.New(os.Stdout, " [INFO] ", logFlags)
	warnLogger = log.New(os.Stdout, " [WARN] ", logFlags)
	errorLogger = log.New(os.Stderr, "[ERROR] ", logFlags)
}

// LogLevel sets the active log mask, e.g. LogAll or LogWarn|LogError.
func LogLevel(level int) {
	logLevel = level
}

func LogFlags(flags int) {
	logFlags = flags
	setupLoggers()
}

func Debugf(format string, args ...any) {
	if logLevel&LogDebug != 0 {
		debugLogger.Printf(format, args...)
	}
}

func Infof(format string, args ...any) {
	if logLevel&LogInfo != 0 {
		infoLogger.Printf(format, args...)
	}
}

func Warnf(format string, args ...any) {
	if logLevel&LogWarn != 0 {
		warnLogger.Printf(format, args...)
	}
}

func Errorf(format string, args ...any) {
	if logLevel&LogError != 0 {
		errorLogger.Printf(format, args...)
	}
}

package diag

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level is the verbosity scale of the diagnostics façade.
type Level int

const (
	Quiet Level = iota
	Info
	Verbose
	Verbose2
	Debug
)

// FromFlags maps a -v repeat count and a -q flag to a level: quiet wins,
// otherwise each -v raises the default INFO by one, capped at DEBUG.
func FromFlags(verbose int, quiet bool) Level {
	if quiet {
		return Quiet
	}
	return min(Debug, Info+Level(max(0, verbose)))
}

// ParseLevel accepts names ("info", "verbose2") and numbers ("0".."4").
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet", "0":
		return Quiet, nil
	case "info", "1", "":
		return Info, nil
	case "verbose", "2":
		return Verbose, nil
	case "verbose2", "3":
		return Verbose2, nil
	case "debug", "4":
		return Debug, nil
	}
	return Quiet, fmt.Errorf("unknown verbosity level %q", s)
}

func (l Level) String() string {
	switch l {
	case Quiet:
		return "QUIET"
	case Info:
		return "INFO"
	case Verbose:
		return "VERBOSE"
	case Verbose2:
		return "VERBOSE2"
	case Debug:
		return "DEBUG"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// slog levels used for the façade levels. INFO lines up with slog.LevelInfo
// and DEBUG with slog.LevelDebug so plain slog calls land where expected.
const (
	slogVerbose  = slog.Level(-2)
	slogVerbose2 = slog.Level(-3)
	slogQuiet    = slog.Level(1 << 30)
)

// Slog returns the slog level a message of this level is logged at.
func (l Level) Slog() slog.Level {
	switch {
	case l <= Info:
		return slog.LevelInfo
	case l == Verbose:
		return slogVerbose
	case l == Verbose2:
		return slogVerbose2
	default:
		return slog.LevelDebug
	}
}

// threshold is the minimum slog level that passes when l is configured.
func (l Level) threshold() slog.Level {
	if l <= Quiet {
		return slogQuiet
	}
	return l.Slog()
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	case l >= slogVerbose:
		return "VERBOSE"
	case l >= slogVerbose2:
		return "VERBOSE2"
	default:
		return "DEBUG"
	}
}

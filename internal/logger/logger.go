package logger

// Logging is designed to look and feel like clang's error format.
// Messages are streamed as they happen. Resolution traces are attached to a
// single message as a list of notes so that concurrent resolutions don't
// interleave their output.

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
)

type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool

	// This is called after the build has finished but before writing to stdout.
	// It exists to ensure that deferred warning messages end up in the terminal
	// before the data written to stdout.
	AlmostDone func()

	Done func() []Msg

	Level LogLevel
}

type LogLevel int8

const (
	LevelNone LogLevel = iota
	LevelVerbose
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelSilent
)

func ParseLogLevel(text string) (LogLevel, bool) {
	switch text {
	case "verbose":
		return LevelVerbose, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warning":
		return LevelWarning, true
	case "error":
		return LevelError, true
	case "silent":
		return LevelSilent, true
	}
	return LevelNone, false
}

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
	Info
	Note
	Debug
	Verbose
)

func (kind MsgKind) String() string {
	switch kind {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Note:
		return "note"
	case Debug:
		return "debug"
	case Verbose:
		return "verbose"
	default:
		panic("Internal error")
	}
}

func (kind MsgKind) Icon() string {
	// Special-case Windows command prompt, which only supports a few characters
	if isProbablyWindowsCommandPrompt() {
		switch kind {
		case Error:
			return "X"
		case Warning:
			return "▲"
		case Info:
			return "►"
		case Note:
			return "→"
		case Debug:
			return "●"
		case Verbose:
			return "♦"
		default:
			panic("Internal error")
		}
	}

	switch kind {
	case Error:
		return "✘"
	case Warning:
		return "▲"
	case Info:
		return "▶"
	case Note:
		return "→"
	case Debug:
		return "●"
	case Verbose:
		return "⬥"
	default:
		panic("Internal error")
	}
}

var windowsCommandPrompt struct {
	mutex         sync.Mutex
	once          bool
	isProbablyCMD bool
}

func isProbablyWindowsCommandPrompt() bool {
	windowsCommandPrompt.mutex.Lock()
	defer windowsCommandPrompt.mutex.Unlock()

	if !windowsCommandPrompt.once {
		windowsCommandPrompt.once = true

		// Assume we are running in Windows Command Prompt if we're on Windows. If
		// so, we can't use emoji or unicode characters because they are not
		// supported by the default font.
		//
		// The "WT_SESSION" environment variable is set by Windows Terminal, which
		// does support unicode.
		if runtime.GOOS == "windows" && os.Getenv("WT_SESSION") == "" {
			windowsCommandPrompt.isProbablyCMD = true
		}
	}

	return windowsCommandPrompt.isProbablyCMD
}

type Msg struct {
	Notes      []MsgData
	PluginName string
	Data       MsgData
	Kind       MsgKind
}

type MsgData struct {
	Text string

	// Optional user-specified data that is passed through unmodified
	UserDetail interface{}
}

// This type is just so we can use Go's native sort function
type SortableMsgs []Msg

func (a SortableMsgs) Len() int          { return len(a) }
func (a SortableMsgs) Swap(i int, j int) { a[i], a[j] = a[j], a[i] }

func (a SortableMsgs) Less(i int, j int) bool {
	ai := a[i]
	aj := a[j]

	// Kind
	if ai.Kind != aj.Kind {
		return ai.Kind < aj.Kind
	}

	// Text
	if ai.Data.Text != aj.Data.Text {
		return ai.Data.Text < aj.Data.Text
	}

	// Notes
	if len(ai.Notes) != len(aj.Notes) {
		return len(ai.Notes) < len(aj.Notes)
	}
	for k := range ai.Notes {
		if ai.Notes[k].Text != aj.Notes[k].Text {
			return ai.Notes[k].Text < aj.Notes[k].Text
		}
	}

	return false
}

func plural(prefix string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, prefix)
	}
	return fmt.Sprintf("%d %ss", count, prefix)
}

func errorAndWarningSummary(errors int, warnings int) string {
	switch {
	case errors == 0:
		return plural("warning", warnings)
	case warnings == 0:
		return plural("error", errors)
	default:
		return fmt.Sprintf("%s and %s",
			plural("warning", warnings),
			plural("error", errors))
	}
}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
	Height          int
}

type UseColor uint8

const (
	ColorIfTerminal UseColor = iota
	ColorNever
	ColorAlways
)

type OutputOptions struct {
	MessageLimit int
	Color        UseColor
	LogLevel     LogLevel
}

func NewStderrLog(options OutputOptions) Log {
	return newWriterLog(os.Stderr, GetTerminalInfo(os.Stderr), options)
}

// This writes uncolored messages to an arbitrary writer. The service mode
// uses it to keep diagnostics off of stdout, and tests use it to observe
// what would have been printed.
func NewWriterLog(w io.Writer, options OutputOptions) Log {
	return newWriterLog(w, TerminalInfo{}, options)
}

func newWriterLog(w io.Writer, terminalInfo TerminalInfo, options OutputOptions) Log {
	var mutex sync.Mutex
	var msgs SortableMsgs
	errors := 0
	warnings := 0
	shownErrors := 0
	shownWarnings := 0
	hasErrors := false
	remainingMessagesBeforeLimit := options.MessageLimit
	if remainingMessagesBeforeLimit == 0 {
		remainingMessagesBeforeLimit = 0x7FFFFFFF
	}

	finalizeLog := func() {
		// Print out a summary
		if options.MessageLimit > 0 && errors+warnings > options.MessageLimit {
			writeStringWithColor(w, fmt.Sprintf("%s shown (disable the message limit with --log-limit=0)\n",
				errorAndWarningSummary(shownErrors, shownWarnings)))
		} else if options.LogLevel <= LevelInfo && (warnings != 0 || errors != 0) {
			writeStringWithColor(w, fmt.Sprintf("%s\n",
				errorAndWarningSummary(errors, warnings)))
		}
	}

	switch options.Color {
	case ColorNever:
		terminalInfo.UseColorEscapes = false
	case ColorAlways:
		terminalInfo.UseColorEscapes = SupportsColorEscapes
	}

	return Log{
		Level: options.LogLevel,

		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			msgs = append(msgs, msg)

			switch msg.Kind {
			case Verbose:
				if options.LogLevel <= LevelVerbose {
					writeStringWithColor(w, msg.String(terminalInfo))
				}

			case Debug:
				if options.LogLevel <= LevelDebug {
					writeStringWithColor(w, msg.String(terminalInfo))
				}

			case Info:
				if options.LogLevel <= LevelInfo {
					writeStringWithColor(w, msg.String(terminalInfo))
				}

			case Error:
				hasErrors = true
				if options.LogLevel <= LevelError {
					errors++
				}

			case Warning:
				if options.LogLevel <= LevelWarning {
					warnings++
				}
			}

			// Be silent if we're past the limit so we don't flood the terminal
			if remainingMessagesBeforeLimit == 0 {
				return
			}

			switch msg.Kind {
			case Error:
				if options.LogLevel <= LevelError {
					shownErrors++
					writeStringWithColor(w, msg.String(terminalInfo))
					remainingMessagesBeforeLimit--
				}

			case Warning:
				if options.LogLevel <= LevelWarning {
					shownWarnings++
					writeStringWithColor(w, msg.String(terminalInfo))
					remainingMessagesBeforeLimit--
				}
			}
		},

		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},

		AlmostDone: func() {
			mutex.Lock()
			defer mutex.Unlock()

			finalizeLog()
		},

		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()

			sort.Stable(msgs)
			return msgs
		},
	}
}

func PrintErrorToStderr(osArgs []string, text string) {
	PrintMessageToStderr(osArgs, Msg{Kind: Error, Data: MsgData{Text: text}})
}

func OutputOptionsForArgs(osArgs []string) OutputOptions {
	options := OutputOptions{}

	// Implement a mini argument parser so these options always work even if we
	// haven't yet gotten to the general-purpose argument parsing code
	for _, arg := range osArgs {
		switch arg {
		case "--color=false":
			options.Color = ColorNever
		case "--color=true", "--color":
			options.Color = ColorAlways
		case "--log-level=verbose":
			options.LogLevel = LevelVerbose
		case "--log-level=debug":
			options.LogLevel = LevelDebug
		case "--log-level=info":
			options.LogLevel = LevelInfo
		case "--log-level=warning":
			options.LogLevel = LevelWarning
		case "--log-level=error":
			options.LogLevel = LevelError
		case "--log-level=silent":
			options.LogLevel = LevelSilent
		}
	}

	return options
}

func PrintMessageToStderr(osArgs []string, msg Msg) {
	log := NewStderrLog(OutputOptionsForArgs(osArgs))
	log.AddMsg(msg)
	log.Done()
}

type Colors struct {
	Reset     string
	Bold      string
	Dim       string
	Underline string

	Red   string
	Green string
	Blue  string

	Cyan    string
	Magenta string
	Yellow  string
}

var TerminalColors = Colors{
	Reset:     "\033[0m",
	Bold:      "\033[1m",
	Dim:       "\033[37m",
	Underline: "\033[4m",

	Red:   "\033[31m",
	Green: "\033[32m",
	Blue:  "\033[34m",

	Cyan:    "\033[36m",
	Magenta: "\033[35m",
	Yellow:  "\033[33m",
}

func NewDeferLog(level LogLevel) Log {
	var msgs SortableMsgs
	var mutex sync.Mutex
	var hasErrors bool

	return Log{
		Level: level,
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind == Error {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		AlmostDone: func() {
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			return msgs
		},
	}
}

func (msg Msg) String(terminalInfo TerminalInfo) string {
	var colors Colors
	if terminalInfo.UseColorEscapes {
		colors = TerminalColors
	}

	var kindColor string
	switch msg.Kind {
	case Error:
		kindColor = colors.Red
	case Warning:
		kindColor = colors.Yellow
	case Info:
		kindColor = colors.Green
	case Note, Debug, Verbose:
		kindColor = colors.Blue
	}

	var pluginName string
	if msg.PluginName != "" {
		pluginName = fmt.Sprintf(" %s[plugin %s]%s", colors.Yellow, msg.PluginName, colors.Reset)
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%s%s %s[%s]%s%s %s%s%s\n",
		kindColor, msg.Kind.Icon(),
		colors.Bold, strings.ToUpper(msg.Kind.String()), colors.Reset,
		pluginName,
		colors.Bold, msg.Data.Text, colors.Reset))

	for _, note := range msg.Notes {
		sb.WriteString(fmt.Sprintf("  %s%s%s\n", colors.Dim, note.Text, colors.Reset))
	}

	return sb.String()
}

func hasNoColorEnvironmentVariable() bool {
	// https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}

	// Also check "TERM=dumb"
	return os.Getenv("TERM") == "dumb"
}

func (log Log) AddError(text string) {
	log.AddMsg(Msg{
		Kind: Error,
		Data: MsgData{Text: text},
	})
}

func (log Log) AddErrorWithNotes(text string, notes []MsgData) {
	log.AddMsg(Msg{
		Kind:  Error,
		Data:  MsgData{Text: text},
		Notes: notes,
	})
}

func (log Log) AddWarning(text string) {
	log.AddMsg(Msg{
		Kind: Warning,
		Data: MsgData{Text: text},
	})
}

func (log Log) AddInfo(text string) {
	log.AddMsg(Msg{
		Kind: Info,
		Data: MsgData{Text: text},
	})
}

func (log Log) AddWithNotes(kind MsgKind, text string, notes []MsgData) {
	log.AddMsg(Msg{
		Kind:  kind,
		Data:  MsgData{Text: text},
		Notes: notes,
	})
}

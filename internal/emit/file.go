package emit

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type FileOptions struct {
	// Wrap the whole file in an inclusion guard derived from its name.
	ProtectFile bool
	// Wrap each feature in "#ifndef <feature name>". The section is skipped
	// when the including code already defines the feature symbol.
	ProtectFeature bool
	// Directive ("#ifdef" or "#ifndef") and symbol wrapping the definitions
	// of every feature. Unused when ProtectProto is empty.
	ProtectProto       string
	ProtectProtoSymbol string
	// Lines written after the inclusion guard, e.g. a license and includes.
	PrefixText []string
}

var upper = cases.Upper(language.Und)

// HeaderGuard derives the inclusion guard symbol from a file name, e.g.
// "generated/replay_consumer.cpp" gives "REPLAY_CONSUMER_CPP".
func HeaderGuard(filename string) string {
	guard := filepath.Base(filename)
	for _, c := range []string{".", "-", " "} {
		guard = strings.ReplaceAll(guard, c, "_")
	}
	return upper.String(guard)
}

// FileWriter writes the generated definitions file. The first write error
// is kept and returned by every later call.
type FileWriter struct {
	w       io.Writer
	options FileOptions
	guard   string
	err     error
}

func NewFileWriter(w io.Writer, filename string, options FileOptions) *FileWriter {
	return &FileWriter{w: w, options: options, guard: HeaderGuard(filename)}
}

func (fw *FileWriter) println(args ...any) {
	if fw.err == nil {
		_, fw.err = fmt.Fprintln(fw.w, args...)
	}
}

func (fw *FileWriter) print(text string) {
	if fw.err == nil {
		_, fw.err = io.WriteString(fw.w, text)
	}
}

// Begin writes the inclusion guard opening and the prefix text.
func (fw *FileWriter) Begin() error {
	if fw.options.ProtectFile {
		fw.println("#ifndef", fw.guard)
		fw.println("#define", fw.guard)
	}
	for _, line := range fw.options.PrefixText {
		fw.println(line)
	}
	return fw.err
}

// Feature writes the definitions accumulated for one feature, wrapped in its
// guards. Features without definitions are not written at all.
func (fw *FileWriter) Feature(name, protect string, definitions []string) error {
	if len(definitions) == 0 {
		return fw.err
	}

	fw.println()
	if fw.options.ProtectFeature {
		fw.println("#ifndef", name)
	}
	if protect != "" {
		fw.println("#ifdef", protect)
	}
	if fw.options.ProtectProto != "" {
		fw.println(fw.options.ProtectProto, fw.options.ProtectProtoSymbol)
	}

	fw.print(strings.Join(definitions, "\n"))

	if fw.options.ProtectProto != "" {
		fw.println("#endif")
	}
	if protect != "" {
		fw.println("#endif /*", protect, "*/")
	}
	if fw.options.ProtectFeature {
		fw.println("#endif /*", name, "*/")
	}
	return fw.err
}

// End closes the inclusion guard.
func (fw *FileWriter) End() error {
	if fw.options.ProtectFile {
		fw.println()
		fw.println("#endif /*", fw.guard, "*/")
	}
	return fw.err
}

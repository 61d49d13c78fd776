package generation

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/samber/lo"

	"replaygen/internal/config"
	"replaygen/internal/diag"
	"replaygen/internal/emit"
	"replaygen/internal/registry"
	"replaygen/internal/synth"
)

// Generator writes the replay consumer definitions for the features of an
// API description. Every command is generated at most once, in the first
// feature that requires it.
type Generator struct {
	Config      config.Config
	Types       *registry.TypeRegistry
	Logger      *log.Logger
	Diagnostics diag.List
	// Diagnostics below this severity are collected but not logged.
	LogSeverity diag.Severity

	excluded map[string]bool
	emitted  map[string]bool
	manifest []ManifestEntry
}

func NewGenerator(cfg config.Config, types *registry.TypeRegistry, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Generator{
		Config:      cfg,
		Types:       types,
		Logger:      logger,
		LogSeverity: diag.Warning,
		excluded:    lo.SliceToMap(cfg.ExcludedCommands, func(name string) (string, bool) { return name, true }),
		emitted:     make(map[string]bool),
	}
}

// IsExcluded reports whether a command needs hand written replay code.
func (generator *Generator) IsExcluded(name string) bool {
	return generator.excluded[name]
}

func (generator *Generator) report(diagnostics diag.List) {
	for _, d := range diagnostics {
		if d.Severity >= generator.LogSeverity {
			generator.Logger.Println(d.String())
		}
	}
	generator.Diagnostics = append(generator.Diagnostics, diagnostics...)
}

// GenerateCommand returns the consumer definition of a command. The second
// result is false when the command is excluded or could not be generated.
func (generator *Generator) GenerateCommand(cmd registry.Command) (string, bool) {
	if generator.IsExcluded(cmd.Name) {
		return "", false
	}

	result := synth.Synthesize(cmd, generator.Types, generator.Config.SynthOptions())
	declaration, declDiagnostics := emit.Declaration(cmd, result.Carriers, generator.Config.DeclarationOptions())
	generator.report(result.Diagnostics)
	generator.report(declDiagnostics)

	if result.Skipped() {
		generator.Logger.Printf("skipping %s", cmd.Name)
		return "", false
	}

	return declaration + "\n" + emit.Body(cmd.Name, result), true
}

// GenerateFeature generates the commands of one feature that were not
// generated yet and writes them as one guarded section.
func (generator *Generator) GenerateFeature(writer *emit.FileWriter, feature registry.Feature, commands map[string]registry.Command) error {
	var definitions []string
	for _, name := range feature.Commands {
		if generator.emitted[name] {
			continue
		}

		cmd, found := commands[name]
		if !found {
			generator.Logger.Printf("feature %s requires unknown command %s", feature.Name, name)
			continue
		}
		generator.emitted[name] = true

		definition, ok := generator.GenerateCommand(cmd)
		if ok {
			definitions = append(definitions, definition)
		}
		generator.record(feature, cmd, !ok)
	}

	return writer.Feature(feature.Name, feature.Protect, definitions)
}

// Generate writes the definitions file for the document. When features is
// not empty only the named features are generated, in document order.
func (generator *Generator) Generate(w io.Writer, filename string, document *registry.Document, features []string) error {
	writer := emit.NewFileWriter(w, filename, generator.Config.FileOptions())
	if err := writer.Begin(); err != nil {
		return fmt.Errorf("could not write file header: %w", err)
	}

	for _, feature := range document.Features {
		if len(features) > 0 && !slices.Contains(features, feature.Name) {
			continue
		}
		if err := generator.GenerateFeature(writer, feature, document.Commands); err != nil {
			return fmt.Errorf("could not write feature %s: %w", feature.Name, err)
		}
	}

	if err := writer.End(); err != nil {
		return fmt.Errorf("could not write file footer: %w", err)
	}
	return nil
}

// GenerateFile generates into the file at path, creating its directory.
func (generator *Generator) GenerateFile(path string, document *registry.Document, features []string) error {
	err := os.MkdirAll(filepath.Dir(path), os.ModePerm)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := generator.Generate(file, path, document, features); err != nil {
		return err
	}
	return file.Close()
}

// Summary logs how many commands were generated and what was reported.
func (generator *Generator) Summary() {
	skipped := lo.CountBy(generator.manifest, func(entry ManifestEntry) bool { return entry.Skipped })
	generator.Logger.Printf("generated %d commands, skipped %d, %d warnings, %d errors",
		len(generator.manifest)-skipped, skipped,
		generator.Diagnostics.Count(diag.Warning), generator.Diagnostics.Count(diag.Error))
}

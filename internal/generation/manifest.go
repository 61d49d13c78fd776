package generation

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"replaygen/internal"
	"replaygen/internal/classify"
	"replaygen/internal/registry"
)

// ManifestEntry describes one command seen by the generator, for tools that
// need to know how its captured parameters are decoded.
type ManifestEntry struct {
	Command string
	Feature string
	Protect string
	Skipped bool
	Params  []ManifestParam
}

type ManifestParam struct {
	Name    string
	Type    string
	Carrier classify.Kind
}

func (generator *Generator) record(feature registry.Feature, cmd registry.Command, skipped bool) {
	carriers, _ := classify.ResolveAll(cmd, generator.Types)
	entry := ManifestEntry{
		Command: cmd.Name,
		Feature: feature.Name,
		Protect: feature.Protect,
		Skipped: skipped,
	}
	for i, param := range cmd.Params {
		entry.Params = append(entry.Params, ManifestParam{Name: param.Name, Type: param.Type, Carrier: carriers[i].Kind})
	}
	generator.manifest = append(generator.manifest, entry)
}

// Manifest returns the commands seen so far, in generation order.
func (generator *Generator) Manifest() []ManifestEntry {
	return generator.manifest
}

var title = cases.Title(language.Und, cases.NoLower)

// commandConstName turns "vkCreateInstance" into "CommandVkCreateInstance".
func commandConstName(command string) string {
	return "Command" + title.String(strings.ReplaceAll(command, "_", ""))
}

func manifestFile(packageName string, entries []ManifestEntry) *jen.File {
	file := jen.NewFile(packageName)
	file.HeaderComment("Code generated by replaygen. DO NOT EDIT.")

	file.Comment("Param describes how a captured parameter is decoded during replay.")
	file.Type().Id("Param").Struct(
		jen.Id("Name").String(),
		jen.Id("Type").String(),
		jen.Id("Carrier").String(),
	)

	file.Comment("Command describes one API command known to the replay consumer.")
	file.Type().Id("Command").Struct(
		jen.Id("Name").String(),
		jen.Id("Feature").String(),
		jen.Id("Protect").String(),
		jen.Id("Skipped").Bool(),
		jen.Id("Params").Index().Id("Param"),
	)

	file.Const().DefsFunc(func(g *jen.Group) {
		for _, entry := range entries {
			g.Id(commandConstName(entry.Command)).Op("=").Lit(entry.Command)
		}
	})

	file.Comment("Commands lists the commands in generation order.")
	file.Var().Id("Commands").Op("=").Index().Id("Command").ValuesFunc(func(g *jen.Group) {
		for _, entry := range entries {
			fields := jen.Dict{
				jen.Id("Name"):    jen.Id(commandConstName(entry.Command)),
				jen.Id("Feature"): jen.Lit(entry.Feature),
			}
			if entry.Protect != "" {
				fields[jen.Id("Protect")] = jen.Lit(entry.Protect)
			}
			if entry.Skipped {
				fields[jen.Id("Skipped")] = jen.True()
			}
			if len(entry.Params) > 0 {
				fields[jen.Id("Params")] = jen.Index().Id("Param").ValuesFunc(func(g *jen.Group) {
					for _, param := range entry.Params {
						g.Values(jen.Dict{
							jen.Id("Name"):    jen.Lit(param.Name),
							jen.Id("Type"):    jen.Lit(param.Type),
							jen.Id("Carrier"): jen.Lit(param.Carrier.String()),
						})
					}
				})
			}
			g.Values(fields)
		}
	})

	return file
}

// WriteManifest renders the manifest as a Go source file.
func WriteManifest(w io.Writer, packageName string, entries []ManifestEntry) error {
	if err := manifestFile(packageName, entries).Render(w); err != nil {
		return fmt.Errorf("could not render manifest: %w", err)
	}
	return nil
}

// ManifestSource returns the manifest Go source as a string.
func ManifestSource(packageName string, entries []ManifestEntry) string {
	var buf bytes.Buffer
	internal.PanicOnError(WriteManifest(&buf, packageName, entries))
	return buf.String()
}

// SaveManifest writes the manifest Go source to path, creating its directory.
func SaveManifest(path, packageName string, entries []ManifestEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return manifestFile(packageName, entries).Save(path)
}

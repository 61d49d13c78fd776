// Generates the replay consumer definitions of a capture-replay tool from an
// API description.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"replaygen/internal/config"
	"replaygen/internal/diag"
	"replaygen/internal/generation"
	"replaygen/internal/metadata"
	"replaygen/internal/registry"
)

type options struct {
	configPath      string
	outputPath      string
	manifestPath    string
	manifestPackage string
	force           bool
	verbose         bool

	registryPath string
	features     []string

	metadataPath string
	inputPath    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "replaygen",
		Short:        "Generates replay consumer code for captured API calls.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML file overriding the default generation settings.")
	flags.StringVarP(&opts.outputPath, "output", "o", "generated_vulkan_replay_consumer.cpp", "The path of the generated definitions file.")
	flags.StringVar(&opts.manifestPath, "manifest", "", "If given, also writes a Go manifest of the generated commands to this path.")
	flags.StringVar(&opts.manifestPackage, "manifest-package", "replaytable", "The package name of the Go manifest.")
	flags.BoolVarP(&opts.force, "force", "f", false, "Overwrite the output file if it exists.")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Also log notices and progress.")

	root.AddCommand(newGenerateCommand(opts), newWinMdCommand(opts))
	return root
}

func newGenerateCommand(opts *options) *cobra.Command {
	command := &cobra.Command{
		Use:   "generate",
		Short: "Generates from a Khronos style XML registry.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			document, err := registry.ReadXMLFile(opts.registryPath, cfg.API, cfg.ConfigureTypes)
			if err != nil {
				return fmt.Errorf("could not read registry %s: %w", opts.registryPath, err)
			}

			return run(opts, cfg, document)
		},
	}

	command.Flags().StringVarP(&opts.registryPath, "registry", "r", "vk.xml", "The path of the API registry.")
	command.Flags().StringSliceVar(&opts.features, "features", nil, "Only generate the given features.")
	return command
}

func newWinMdCommand(opts *options) *cobra.Command {
	command := &cobra.Command{
		Use:   "winmd",
		Short: "Generates from Windows metadata for the methods listed in an input file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			if opts.inputPath == "" {
				return errors.New("input file path is missing")
			}

			if _, err := os.Stat(opts.metadataPath); errors.Is(err, os.ErrNotExist) {
				log.Printf("Metadata file %s not found, downloading it.", opts.metadataPath)
				if err := metadata.DownloadMetadata(opts.metadataPath); err != nil {
					return fmt.Errorf("could not download metadata: %w", err)
				}
			}

			reader, err := metadata.NewReader(opts.metadataPath)
			if err != nil {
				return err
			}

			methods, err := readMethods(reader, opts.inputPath)
			if err != nil {
				return err
			}

			return run(opts, cfg, metadata.Document(methods, cfg.ConfigureTypes))
		},
	}

	command.Flags().StringVar(&opts.metadataPath, "metadata", "Windows.Win32.winmd", "The path to the metadata file to read.")
	command.Flags().StringVarP(&opts.inputPath, "input", "i", "", "The path to the file listing the methods to generate, one per line.")
	return command
}

// Reads the methods named in the input file. Unknown names are logged and skipped.
func readMethods(reader *metadata.WinMdReader, inputPath string) ([]metadata.Method, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var methods []metadata.Method
	fileScanner := bufio.NewScanner(file)
	for fileScanner.Scan() {
		name := strings.TrimSpace(fileScanner.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}

		method, found, err := reader.TryGetMethod(name)
		if err != nil {
			return nil, err
		}
		if !found {
			log.Printf("Method %s was not found in the metadata.", name)
			continue
		}
		methods = append(methods, method)
	}

	return methods, fileScanner.Err()
}

func run(opts *options, cfg config.Config, document *registry.Document) error {
	if err := checkOutput(opts.outputPath, opts.force); err != nil {
		return err
	}

	logger := log.New(os.Stderr, "", 0)
	generator := generation.NewGenerator(cfg, document.Types, logger)
	if opts.verbose {
		generator.LogSeverity = diag.Notice
	}

	if err := generator.GenerateFile(opts.outputPath, document, opts.features); err != nil {
		return fmt.Errorf("could not generate %s: %w", opts.outputPath, err)
	}

	if opts.manifestPath != "" {
		if err := generation.SaveManifest(opts.manifestPath, opts.manifestPackage, generator.Manifest()); err != nil {
			return fmt.Errorf("could not write manifest %s: %w", opts.manifestPath, err)
		}
	}

	if opts.verbose {
		generator.Summary()
	}
	return nil
}

// Refuses to replace an existing output file unless forced.
func checkOutput(path string, force bool) error {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !force {
		return fmt.Errorf("output file %s already exists, use --force to overwrite it", path)
	}
	return nil
}

// cmd/digen/main.go
package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"go/format"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/sghaida/diregistry/di"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// This binary is a code-generation tool.
//
// It reads a descriptor listing injectable components (key, type, constructor,
// ordered dependencies) and generates a Go file with one explicit registration
// function for a *di.Registry.
//
// Key behaviors:
// - Reads the descriptor as yaml (json is accepted too, being valid yaml)
// - Validates required fields, unique keys, lifetimes and dependency cycles
// - Sorts components by key so output is stable; dependency order is kept
// - Stamps the output with the descriptor's sha256
// - Formats with go/format and writes atomically (temp file + rename)

const defaultDIImport = "github.com/sghaida/diregistry/di"

// Dep is one positional constructor argument.
type Dep struct {
	// Key is the registry key resolved for this argument.
	Key string `yaml:"key"`

	// Type is the Go type of the argument as seen from the generated package.
	Type string `yaml:"type"`
}

// Component describes one registration.
type Component struct {
	Key         string `yaml:"key"`
	Type        string `yaml:"type"`
	Constructor string `yaml:"constructor"`

	// Lifetime is "transient", "singleton" or empty for the registry default.
	Lifetime string `yaml:"lifetime"`

	// ReturnsError is optional:
	// - nil/true: constructor signature is func(deps...) (Type, error)
	// - false:    constructor signature is func(deps...) Type
	ReturnsError *bool `yaml:"returnsError"`

	Deps []Dep `yaml:"deps"`
}

// Import is an extra import for the generated file.
type Import struct {
	Alias string `yaml:"alias"`
	Path  string `yaml:"path"`
}

// Descriptor is the full input schema consumed by the generator.
type Descriptor struct {
	Package string `yaml:"package"`

	// Function is the generated registration function name (default RegisterComponents).
	Function string `yaml:"function"`

	// Init additionally emits an init() that registers into di.Default().
	Init bool `yaml:"init"`

	// DIImport overrides the import path of the di package.
	DIImport string `yaml:"diImport"`

	Imports    []Import    `yaml:"imports"`
	Components []Component `yaml:"components"`
}

// templateData is the input passed to the Go template.
type templateData struct {
	Desc       Descriptor
	Source     string
	SourceHash string
	Imports    []Import
}

// run executes the generator logic and returns an exit code.
// It exists separately from main to allow unit testing without os.Exit.
func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("digen", flag.ContinueOnError)
	flags.SetOutput(stderr)

	specPath := flags.String("spec", "", "path to components descriptor (.yaml or .json)")
	outPath := flags.String("out", "", "output .gen.go file path")
	verbose := flags.Bool("v", false, "log generation steps to stderr")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*specPath) == "" || strings.TrimSpace(*outPath) == "" {
		_, _ = fmt.Fprintln(stderr, "usage: digen -spec <components.yaml> -out <file.gen.go> [-v]")
		return 2
	}

	log := newLogger(stderr, *verbose)
	defer func() { _ = log.Sync() }()

	if err := generate(*specPath, *outPath, log); err != nil {
		_, _ = fmt.Fprintln(stderr, "digen:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// newLogger returns a console logger on w when verbose, otherwise a no-op logger.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(zapcore.DebugLevel),
	)
	return zap.New(core).Named("digen")
}

// generate reads specPath, validates it and writes the generated file to outPath.
func generate(specPath, outPath string, log *zap.Logger) error {
	raw, err := readFile(specPath)
	if err != nil {
		return err
	}

	desc, err := parseDescriptor(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", specPath, err)
	}
	if err := validateDescriptor(&desc, log); err != nil {
		return fmt.Errorf("%s: %w", specPath, err)
	}
	log.Debug("descriptor validated",
		zap.String("spec", specPath),
		zap.Int("components", len(desc.Components)),
	)

	src, err := render(desc, filepath.ToSlash(filepath.Base(specPath)), sha256Hex(raw))
	if err != nil {
		return err
	}

	generatedFilePath := filepath.Clean(outPath)
	if err := writeFileAtomic(generatedFilePath, src, 0o644); err != nil {
		return err
	}
	log.Info("generated", zap.String("out", generatedFilePath))
	return nil
}

// parseDescriptor decodes yaml (or json) and applies defaults.
func parseDescriptor(raw []byte) (Descriptor, error) {
	var desc Descriptor

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&desc); err != nil {
		if errors.Is(err, io.EOF) {
			return Descriptor{}, errors.New("descriptor is empty")
		}
		return Descriptor{}, err
	}

	if strings.TrimSpace(desc.Function) == "" {
		desc.Function = "RegisterComponents"
	}
	if strings.TrimSpace(desc.DIImport) == "" {
		desc.DIImport = defaultDIImport
	}
	return desc, nil
}

// validateDescriptor validates semantic correctness of the descriptor and
// normalizes lifetimes to their canonical spelling.
func validateDescriptor(desc *Descriptor, log *zap.Logger) error {
	var missingFields []string
	requireNonEmpty := func(fieldName, value string) {
		if strings.TrimSpace(value) == "" {
			missingFields = append(missingFields, fieldName)
		}
	}

	requireNonEmpty("package", desc.Package)
	if len(desc.Components) == 0 {
		missingFields = append(missingFields, "components (must have at least 1)")
	}
	if len(missingFields) > 0 {
		return fmt.Errorf("descriptor missing required fields: %v", missingFields)
	}

	if !token.IsIdentifier(desc.Package) {
		return fmt.Errorf("package %q is not a valid identifier", desc.Package)
	}
	if !token.IsIdentifier(desc.Function) {
		return fmt.Errorf("function %q is not a valid identifier", desc.Function)
	}
	for _, imp := range desc.Imports {
		if strings.TrimSpace(imp.Path) == "" {
			return errors.New("each import must have a path")
		}
		if imp.Alias != "" && imp.Alias != "_" && imp.Alias != "." && !token.IsIdentifier(imp.Alias) {
			return fmt.Errorf("import alias %q is not a valid identifier", imp.Alias)
		}
	}

	seenKeys := make(map[string]struct{}, len(desc.Components))
	for i := range desc.Components {
		c := &desc.Components[i]
		if c.Key == "" || c.Type == "" || c.Constructor == "" {
			return fmt.Errorf("each component must have key/type/constructor; got: %+v", *c)
		}
		if _, ok := seenKeys[c.Key]; ok {
			return fmt.Errorf("duplicate component key: %s", c.Key)
		}
		seenKeys[c.Key] = struct{}{}

		if c.Lifetime != "" {
			l, err := di.ParseLifetime(c.Lifetime)
			if err != nil {
				return fmt.Errorf("component %s: %w", c.Key, err)
			}
			c.Lifetime = l.String()
		}
		for _, d := range c.Deps {
			if d.Key == "" || d.Type == "" {
				return fmt.Errorf("component %s: each dep must have key/type; got: %+v", c.Key, d)
			}
		}
	}

	return checkCycles(desc.Components, log)
}

// checkCycles loads the dependency table into a di.Registry and validates it.
// Keys that are not declared in the descriptor are registered elsewhere, so
// they are stubbed and only cycles are reported.
func checkCycles(components []Component, log *zap.Logger) error {
	reg := di.NewRegistry(di.WithLogger(log))
	noop := func([]any) (any, error) { return nil, nil }

	declared := make(map[string]struct{}, len(components))
	for _, c := range components {
		declared[c.Key] = struct{}{}
	}

	for _, c := range components {
		deps := make([]di.DependencyKey, len(c.Deps))
		for i, d := range c.Deps {
			deps[i] = di.Key(d.Key)
			if _, ok := declared[d.Key]; !ok && !reg.Has(di.Key(d.Key)) {
				log.Debug("external dependency", zap.String("component", c.Key), zap.String("dep", d.Key))
				if err := reg.Provide(di.Key(d.Key), nil); err != nil {
					return err
				}
			}
		}
		if err := reg.Register(di.Key(c.Key), noop, di.DependsOn(deps...)); err != nil {
			return err
		}
	}
	return reg.Validate()
}

// render executes the template and formats the result.
func render(desc Descriptor, source, hash string) ([]byte, error) {
	components := make([]Component, len(desc.Components))
	copy(components, desc.Components)
	sort.Slice(components, func(i, j int) bool { return components[i].Key < components[j].Key })
	desc.Components = components

	data := templateData{
		Desc:       desc,
		Source:     source,
		SourceHash: hash,
		Imports:    mergeImports(desc.DIImport, desc.Imports),
	}

	var out bytes.Buffer
	if err := genTemplate.Execute(&out, data); err != nil {
		return nil, err
	}
	formatted, err := format.Source(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gofmt generated code: %w", err)
	}
	return formatted, nil
}

// mergeImports adds the di import to the descriptor imports, dropping
// duplicate paths and sorting by path.
func mergeImports(diPath string, extra []Import) []Import {
	seen := map[string]Import{diPath: {Alias: "di", Path: diPath}}
	for _, imp := range extra {
		if _, ok := seen[imp.Path]; ok {
			continue
		}
		seen[imp.Path] = imp
	}

	out := make([]Import, 0, len(seen))
	for _, imp := range seen {
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ReturnsErr reports the constructor shape; unset means (T, error).
func (c Component) ReturnsErr() bool {
	return c.ReturnsError == nil || *c.ReturnsError
}

// LifetimeIdent is the di identifier for the component lifetime, or "" for the default.
func (c Component) LifetimeIdent() string {
	switch c.Lifetime {
	case "singleton":
		return "Singleton"
	case "transient":
		return "Transient"
	default:
		return ""
	}
}

// genTemplate is the Go source template used to generate the registration code.
var genTemplate = template.Must(
	template.New("digen").Parse(`// Code generated by digen from {{.Source}}; DO NOT EDIT.
// source sha256: {{.SourceHash}}

package {{.Desc.Package}}

import (
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)

// {{.Desc.Function}} registers the components declared in {{.Source}} into r.
func {{.Desc.Function}}(r *di.Registry) error {
{{- range .Desc.Components}}
	if err := di.Injectable[{{.Type}}]({{printf "%q" .Key}}).
		{{- if .Deps}}
		DependsOn({{range $i, $d := .Deps}}{{if $i}}, {{end}}{{printf "%q" $d.Key}}{{end}}).
		{{- end}}
		{{- if .LifetimeIdent}}
		Lifetime(di.{{.LifetimeIdent}}).
		{{- end}}
		Construct(func({{if .Deps}}a{{else}}_{{end}} di.Args) ({{.Type}}, error) {
			{{- if .Deps}}
			var zero {{.Type}}
			{{- range $i, $d := .Deps}}
			arg{{$i}}, err := di.Arg[{{$d.Type}}](a, {{$i}})
			if err != nil {
				return zero, err
			}
			{{- end}}
			{{- end}}
			{{- if .ReturnsErr}}
			return {{.Constructor}}({{range $i, $d := .Deps}}{{if $i}}, {{end}}arg{{$i}}{{end}})
			{{- else}}
			return {{.Constructor}}({{range $i, $d := .Deps}}{{if $i}}, {{end}}arg{{$i}}{{end}}), nil
			{{- end}}
		}).
		Register(r); err != nil {
		return err
	}
{{- end}}
	return nil
}
{{- if .Desc.Init}}

func init() {
	if err := {{.Desc.Function}}(di.Default()); err != nil {
		panic(err)
	}
}
{{- end}}
`),
)

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	readFile       = os.ReadFile
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes a file atomically.
//
// It writes to a temporary file in the same directory and then renames it
// over the target path, ensuring readers never observe partial writes.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	targetDir := filepath.Dir(targetPath)

	tmpFile, err := createTempFile(targetDir, filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, targetPath)
}

package files

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default file names used when no settings file is present
const (
	DefaultSettingsFile = "settings.txt"
	DemoEventsFile      = "TestFile1.txt"
	DemoInitialFile     = "initial.csv"
	DemoTraversalFile   = "traversal_table.csv"
	DemoTranslationFile = "translation.csv"
)

// WarehouseSettings names the input files of one warehouse. File names are
// relative to Directory.
type WarehouseSettings struct {
	Events      string `yaml:"events" json:"events" validate:"required,events_file"`
	Initial     string `yaml:"initial" json:"initial" validate:"required,csv_file"`
	Traversal   string `yaml:"traversal" json:"traversal" validate:"required,csv_file"`
	Translation string `yaml:"translation" json:"translation" validate:"required,csv_file"`
	Directory   string `yaml:"directory" json:"directory" validate:"required,dir"`
}

// Path joins name onto the warehouse directory
func (w WarehouseSettings) Path(name string) string {
	return filepath.Join(w.Directory, name)
}

// Validate checks the file names and that the directory exists
func (w WarehouseSettings) Validate() error {
	if err := getValidator().Struct(w); err != nil {
		return fmt.Errorf("invalid warehouse settings: %w", err)
	}
	return nil
}

// Settings configures a batch of warehouses, simulated in order
type Settings struct {
	Warehouses     []WarehouseSettings `yaml:"warehouses"`
	OrderBatchSize int                 `yaml:"orderBatchSize" validate:"gte=0"`
	TruckSize      int                 `yaml:"truckSize" validate:"gte=0"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once

	eventsFileRegex = regexp.MustCompile(`^\w+\.txt$`)
	csvFileRegex    = regexp.MustCompile(`^\w+\.csv$`)
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("events_file", func(fl validator.FieldLevel) bool {
			return eventsFileRegex.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("csv_file", func(fl validator.FieldLevel) bool {
			return csvFileRegex.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidSettingsName reports whether name is an acceptable settings file name
func ValidSettingsName(name string) bool {
	base := filepath.Base(name)
	return eventsFileRegex.MatchString(base) || strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml")
}

// LoadSettings reads a settings file. YAML files are decoded as Settings;
// anything else is read in the legacy line format. Relative directories are
// resolved against baseDir. Entries are not validated here so that one bad
// warehouse does not stop the others.
func LoadSettings(path, baseDir string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	defer f.Close()

	var settings *Settings
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		settings = &Settings{}
		if err := yaml.NewDecoder(f).Decode(settings); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to decode settings %s: %w", path, err)
		}
	default:
		warehouses, err := ParseLegacySettings(f)
		if err != nil {
			return nil, err
		}
		settings = &Settings{Warehouses: warehouses}
	}

	if err := getValidator().Struct(settings); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}
	for i := range settings.Warehouses {
		settings.Warehouses[i].Directory = resolveDir(baseDir, settings.Warehouses[i].Directory)
	}
	return settings, nil
}

// ParseLegacySettings reads whitespace separated lines of
//
//	<events.txt> <initial.csv> <traversal.csv> <translation.csv> =<directory>
//
// Short lines yield entries with missing fields, which fail validation.
func ParseLegacySettings(r io.Reader) ([]WarehouseSettings, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	warehouses := make([]WarehouseSettings, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		field := func(i int) string {
			if i < len(fields) {
				return fields[i]
			}
			return ""
		}
		warehouses = append(warehouses, WarehouseSettings{
			Events:      field(0),
			Initial:     field(1),
			Traversal:   field(2),
			Translation: field(3),
			Directory:   strings.TrimPrefix(field(4), "="),
		})
	}
	return warehouses, nil
}

func resolveDir(baseDir, dir string) string {
	if dir == "" {
		return ""
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(baseDir, dir)
}

// DemoSettings is the single warehouse run when no settings file exists
func DemoSettings(dir string) *Settings {
	return &Settings{Warehouses: []WarehouseSettings{{
		Events:      DemoEventsFile,
		Initial:     DemoInitialFile,
		Traversal:   DemoTraversalFile,
		Translation: DemoTranslationFile,
		Directory:   dir,
	}}}
}

// readLines returns the lines worth parsing: comments and lines shorter
// than two characters are dropped
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) < 2 || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

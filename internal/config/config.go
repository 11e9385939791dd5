package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Setting keys read by gcalauth.
const (
	KeyCredentials      = "GOOGLE_APPLICATION_CREDENTIALS"
	KeyRedirectURI      = "GOOGLE_REDIRECT_URI"
	KeyLocalZone        = "LOCAL_ZONE"
	KeyCalendarEndpoint = "GOOGLE_CALENDAR_ENDPOINT"
	KeyRoot             = "GCALAUTH_ROOT"
)

// NotSet is the sentinel value treated the same as an absent setting.
const NotSet = "NOTSET"

const appName = "gcalauth"

// DefaultRootMarkers are the folder names searched for when locating the
// application root. The first marker present in the path wins.
var DefaultRootMarkers = []string{"packages", "vendor"}

// Settings is the read-only view of configuration consumed by the client
// builders and controllers.
type Settings interface {
	// Setting returns the value for key, or a *Error if it is missing.
	Setting(key string) (string, error)

	// RootDir returns the application root directory.
	RootDir() (string, error)
}

// Config is the resolved configuration of one process.
type Config struct {
	values  map[string]string
	rootDir string
	rootErr error
}

type loadOptions struct {
	files       []string
	workDir     string
	markers     []string
	skipEnviron bool
}

// Option configures Load.
type Option func(*loadOptions)

// WithEnvFiles replaces the default dotenv search list. Files that do not
// exist are skipped.
func WithEnvFiles(files ...string) Option {
	return func(o *loadOptions) {
		o.files = files
	}
}

// WithWorkDir sets the directory used for root detection instead of the
// process working directory.
func WithWorkDir(dir string) Option {
	return func(o *loadOptions) {
		o.workDir = dir
	}
}

// WithRootMarkers overrides DefaultRootMarkers.
func WithRootMarkers(markers ...string) Option {
	return func(o *loadOptions) {
		o.markers = markers
	}
}

// WithoutEnviron ignores the process environment, leaving only dotenv
// files as a source. Mostly useful in tests.
func WithoutEnviron() Option {
	return func(o *loadOptions) {
		o.skipEnviron = true
	}
}

// DefaultEnvFiles returns the dotenv files consulted when no explicit list
// is given: ./.env and $XDG_CONFIG_HOME/gcalauth/.env.
func DefaultEnvFiles() []string {
	return []string{
		".env",
		filepath.Join(xdg.ConfigHome, appName, ".env"),
	}
}

// Load reads dotenv files, overlays the process environment and resolves
// the root directory. A root directory that cannot be resolved is not an
// error here; it is reported by RootDir when something needs it.
func Load(opts ...Option) (*Config, error) {
	o := &loadOptions{
		files:   DefaultEnvFiles(),
		markers: DefaultRootMarkers,
	}
	for _, opt := range opts {
		opt(o)
	}

	values := make(map[string]string)

	// Earlier files win, matching godotenv.Load semantics.
	for i := len(o.files) - 1; i >= 0; i-- {
		file := o.files[i]
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		fileValues, err := godotenv.Read(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", file, err)
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}

	if !o.skipEnviron {
		for _, kv := range os.Environ() {
			k, v, ok := strings.Cut(kv, "=")
			if ok {
				values[k] = v
			}
		}
	}

	cfg := &Config{values: values}

	if root, ok := values[KeyRoot]; ok && root != "" && root != NotSet {
		cfg.rootDir, cfg.rootErr = existingDir(root)
		return cfg, nil
	}

	workDir := o.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}
	cfg.rootDir, cfg.rootErr = FindRootDirectory(workDir, o.markers...)

	return cfg, nil
}

// New builds a Config from explicit values. The root directory is used as
// given after checking that it exists.
func New(values map[string]string, rootDir string) *Config {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	cfg := &Config{values: copied}
	cfg.rootDir, cfg.rootErr = existingDir(rootDir)
	return cfg
}

// Setting returns the value of key. Absent keys, empty values and the
// NOTSET sentinel all fail with a *Error.
func (c *Config) Setting(key string) (string, error) {
	v, ok := c.values[key]
	if !ok || v == "" || v == NotSet {
		return "", &Error{Key: key, Reason: ReasonMissing}
	}
	return v, nil
}

// SettingOrDefault returns the value of key, or def when the setting is
// missing.
func (c *Config) SettingOrDefault(key, def string) string {
	v, err := c.Setting(key)
	if err != nil {
		return def
	}
	return v
}

// RootDir returns the resolved application root directory.
func (c *Config) RootDir() (string, error) {
	if c.rootErr != nil {
		return "", c.rootErr
	}
	return c.rootDir, nil
}

// LocalZone loads the LOCAL_ZONE location.
func LocalZone(s Settings) (*time.Location, error) {
	name, err := s.Setting(KeyLocalZone)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &Error{Key: KeyLocalZone, Reason: ReasonInvalid, Err: err}
	}
	return loc, nil
}

// FindRootDirectory derives the application root from dir by truncating
// it in front of the first path segment named after one of markers. When
// no marker appears in dir, dir itself is the root. The result must exist
// on disk.
func FindRootDirectory(dir string, markers ...string) (string, error) {
	clean := filepath.Clean(dir)
	segments := strings.Split(clean, string(filepath.Separator))

	root := clean
	for _, marker := range markers {
		if idx := indexOf(segments, marker); idx >= 0 {
			root = strings.Join(segments[:idx], string(filepath.Separator))
			if root == "" {
				root = string(filepath.Separator)
			}
			break
		}
	}

	return existingDir(root)
}

func indexOf(segments []string, name string) int {
	for i, s := range segments {
		if s == name {
			return i
		}
	}
	return -1
}

func existingDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &Error{Key: KeyRoot, Reason: ReasonPath, Path: path, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &Error{Key: KeyRoot, Reason: ReasonPath, Path: abs, Err: err}
	}
	if !info.IsDir() {
		return "", &Error{Key: KeyRoot, Reason: ReasonPath, Path: abs, Err: fmt.Errorf("not a directory")}
	}
	return abs, nil
}

// ResolvePath joins a relative path onto the root directory of s and
// checks that the result exists. A leading slash is treated as relative
// to the root.
func ResolvePath(s Settings, key, rel string) (string, error) {
	root, err := s.RootDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(root, strings.TrimPrefix(rel, "/"))
	if _, err := os.Stat(path); err != nil {
		return "", &Error{Key: key, Reason: ReasonPath, Path: path, Err: err}
	}
	return path, nil
}

package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem is the slice of the OS the loader touches. Tests swap it.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem reads the real disk. LoadEnv never overrides variables
// that are already set.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

// LoaderConfig collects the options of one LoadConfig call.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // skips the search when set
	EnvFile    string // skips the search when set
	// EnvPrefix lets SAMUELIZER_CACHE_DIR stand in for CACHE_DIR.
	EnvPrefix string
	// EnvAliases maps legacy variable names onto config keys.
	EnvAliases map[string]string
}

type LoaderOption func(*LoaderConfig)

func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.ToUpper(strings.TrimSuffix(prefix, "_")) }
}

func WithEnvAliases(aliases map[string]string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvAliases = aliases }
}

// ResolvedFiles are the files LoadConfig ended up reading. Empty means none.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolver finds the config and .env files of a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolveFiles keeps explicit paths and searches for the rest: config in
// ./cmd/<service>/, ./config/ and ., .yml before .yaml; .env as
// ./.env.<service>, ./.env, ./cmd/<service>/.env, ./config/.env.
func (r *Resolver) ResolveFiles(service string, lc LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		var candidates []string
		for _, ext := range []string{"yml", "yaml"} {
			for _, dir := range []string{"./cmd/" + service + "/", "./config/", "./"} {
				candidates = append(candidates, dir+"config."+ext)
			}
		}
		files.ConfigFile = r.first(candidates)
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first([]string{"./.env." + service, "./.env", "./cmd/" + service + "/.env", "./config/.env"})
	}
	return files
}

func (r *Resolver) first(paths []string) string {
	if i := slices.IndexFunc(paths, r.FileSystem.Exists); i >= 0 {
		return paths[i]
	}
	return ""
}

// LoadConfig fills cfg from, lowest precedence first, the YAML file, the
// .env file and the process environment. A missing or malformed explicit
// config file is an error; a search that finds nothing is not.
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.ConfigFile != "" && !lc.FileSystem.Exists(lc.ConfigFile) {
		return fmt.Errorf("config file %s not found", lc.ConfigFile)
	}
	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(service, lc)

	v := viper.New()
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", files.ConfigFile, err)
		}
	}
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("load env file %s: %w", files.EnvFile, err)
		}
	}
	bindEnv(v, os.Environ(), lc)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode %s config: %w", service, err)
	}
	return nil
}

// bindEnv applies plain variables first, prefixed ones next and aliases
// last, so the more specific spelling wins.
func bindEnv(v *viper.Viper, environ []string, lc LoaderConfig) {
	env := make(map[string]string, len(environ))
	var names []string
	for _, kv := range environ {
		if name, value, ok := strings.Cut(kv, "="); ok && name != "" {
			env[name] = value
			names = append(names, name)
		}
	}
	set := func(name, value string) {
		for _, key := range generateEnvKeyVariants(name) {
			v.Set(key, value)
		}
	}
	for _, name := range names {
		set(name, env[name])
	}
	if lc.EnvPrefix != "" {
		for _, name := range names {
			if rest, ok := strings.CutPrefix(name, lc.EnvPrefix+"_"); ok {
				set(rest, env[name])
			}
		}
	}
	for name, key := range lc.EnvAliases {
		if value := env[name]; value != "" {
			v.Set(key, value)
		}
	}
}

// generateEnvKeyVariants lists the config keys a variable may mean, since
// an underscore can separate nesting levels or sit inside a key:
//
//	CACHE_DIR                -> cache_dir, cache.dir
//	PROVIDERS_OPENAI_API_KEY -> providers.openai.api_key, providers.openai_api_key, ...
//	ANALYSIS_CHUNK_SIZE      -> analysis.chunk_size, analysis_chunk.size, ...
func generateEnvKeyVariants(name string) []string {
	lower := strings.ToLower(name)
	parts := strings.Split(lower, "_")
	keys := map[string]bool{lower: true}
	if len(parts) == 1 {
		return []string{lower}
	}
	keys[strings.Join(parts, ".")] = true
	for i := 1; i < len(parts); i++ {
		head, tail := parts[:i], parts[i:]
		keys[strings.Join(head, ".")+"."+strings.Join(tail, "_")] = true
		if i < 2 {
			continue
		}
		keys[strings.Join(head, "_")+"."+strings.Join(tail, "_")] = true
		if len(tail) > 1 {
			keys[strings.Join(head, "_")+"."+strings.Join(tail[:len(tail)-1], "_")+"."+tail[len(tail)-1]] = true
		}
	}
	return slices.Sorted(maps.Keys(keys))
}

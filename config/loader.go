package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/kbukum/injectkit/logger"
)

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // explicit config file, must exist when set
	EnvFile    string // explicit .env file
	EnvPrefix  string // only PREFIX_* variables override the file when set
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix restricts environment overrides to variables named
// PREFIX_KEY; the prefix is stripped before binding.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.TrimSuffix(strings.ToUpper(prefix), "_") }
}

// Load fills cfg from the service's config.yml, then its .env file, then
// the process environment, each overriding the previous one. Defaults and
// validation are left to the caller.
func Load(serviceName string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}
	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(serviceName, lc)
	log := logger.WithComponent("config")

	v := viper.New()
	if err := readConfigFile(v, files.ConfigFile, lc); err != nil {
		return err
	}
	if files.ConfigFile != "" {
		log.Debug("Config file resolved", map[string]interface{}{"file": files.ConfigFile})
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("Failed to load .env file", map[string]interface{}{
				"file":            files.EnvFile,
				logger.FieldError: err.Error(),
			})
		}
	}

	bindEnv(v, os.Environ(), lc.EnvPrefix)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// readConfigFile reads path into v. A searched file that vanished is
// skipped; an explicit one must exist.
func readConfigFile(v *viper.Viper, path string, lc LoaderConfig) error {
	if path == "" {
		return nil
	}
	if !lc.FileSystem.Exists(path) {
		if lc.ConfigFile != "" {
			return fmt.Errorf("config file %s not found", path)
		}
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// bindEnv sets every KEY=value of environ on v under each nested key the
// variable may stand for. With a prefix only PREFIX_* variables are bound.
func bindEnv(v *viper.Viper, environ []string, prefix string) {
	for _, env := range environ {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			rest, found := strings.CutPrefix(key, prefix+"_")
			if !found || rest == "" {
				continue
			}
			key = rest
		}
		for _, variant := range generateEnvKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// generateEnvKeyVariants maps an env key to the viper keys it may stand
// for: fully flat, fully nested, and nested at one boundary with the
// tail kept flat.
//
//	SERVER_CORS_ENABLED -> server_cors_enabled, server.cors.enabled,
//	                       server.cors_enabled
func generateEnvKeyVariants(envKey string) []string {
	key := strings.ToLower(envKey)
	parts := strings.Split(key, "_")
	if len(parts) == 1 {
		return []string{key}
	}

	variants := []string{key, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	slices.Sort(variants)
	return slices.Compact(variants)
}

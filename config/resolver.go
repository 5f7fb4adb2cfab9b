package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// FileSystem abstracts the file access of the resolver and loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	Getwd() (string, error)
}

// RealFileSystem is the FileSystem of the running process.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (RealFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

func (RealFileSystem) Getwd() (string, error) { return os.Getwd() }

// Resolver locates the config.yml and .env files of a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths. Empty
// means not found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns the explicit paths of opts, searching the standard
// locations for whichever is unset.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	names := serviceNames(serviceName)
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(configCandidates(names))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(envCandidates(serviceName, names))
	}
	return files
}

func (r *Resolver) first(candidates []string) string {
	for _, p := range candidates {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// serviceNames returns the service name and, for dashed names, the part
// after the last dash ("users-api" also searches "api").
func serviceNames(serviceName string) []string {
	names := []string{serviceName}
	if i := strings.LastIndex(serviceName, "-"); i != -1 && i < len(serviceName)-1 {
		names = append(names, serviceName[i+1:])
	}
	return names
}

// configCandidates lists cmd/<name>/config.yml up to two levels above the
// working directory, then the shared config.yml locations.
func configCandidates(names []string) []string {
	var paths []string
	for _, up := range []string{"./", "../", "../../"} {
		for _, n := range names {
			paths = append(paths, up+"cmd/"+n+"/config.yml")
		}
	}
	return append(paths, "./config/config.yml", "../config/config.yml", "./config.yml")
}

// envCandidates lists .env.<service> and then .env in the cmd, config and
// root directories of each name.
func envCandidates(serviceName string, names []string) []string {
	var dirs []string
	for _, n := range names {
		for _, base := range []string{"cmd/" + n, "config/" + n, "config", ""} {
			for _, up := range []string{".", "..", "../.."} {
				dirs = append(dirs, filepath.Join(up, base))
			}
		}
	}

	var paths []string
	for _, file := range []string{".env." + serviceName, ".env"} {
		for _, dir := range dirs {
			paths = append(paths, filepath.Join(dir, file))
		}
	}
	return paths
}

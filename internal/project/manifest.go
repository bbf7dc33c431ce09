package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// ManifestName is the file that marks a project directory.
const ManifestName = "package.json"

// ErrMalformedManifest is returned for a package.json that is not a JSON object.
var ErrMalformedManifest = errors.New("malformed package.json")

// Manifest holds the package.json fields this tool reads.
type Manifest struct {
	Name string
	// Scripts is nil when the manifest has no scripts section.
	Scripts map[string]string
}

// ParseManifest reads the name and scripts of a package.json document.
func ParseManifest(data []byte) (Manifest, error) {
	if !gjson.ValidBytes(data) {
		return Manifest{}, ErrMalformedManifest
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return Manifest{}, ErrMalformedManifest
	}

	m := Manifest{Name: strings.TrimSpace(doc.Get("name").String())}
	if scripts := doc.Get("scripts"); scripts.IsObject() {
		m.Scripts = make(map[string]string)
		scripts.ForEach(func(k, v gjson.Result) bool {
			m.Scripts[k.String()] = v.String()
			return true
		})
	}
	return m, nil
}

// ReadManifest parses dir/package.json.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return Manifest{}, err
	}
	return ParseManifest(data)
}

// Classify picks the framework and dev command from manifest scripts. The
// checks run in a fixed order and the first match wins.
func Classify(scripts map[string]string) (Framework, string) {
	dev := scripts["dev"]
	start := scripts["start"]
	switch {
	case strings.Contains(dev, "vite"):
		return FrameworkVite, "npm run dev"
	case strings.Contains(start, "node"):
		return FrameworkNode, "npm start"
	case strings.Contains(dev, "next"):
		return FrameworkNext, "npm run dev"
	case strings.Contains(start, "react"), strings.Contains(start, "webpack"):
		return FrameworkReact, "npm start"
	}
	return FrameworkUnknown, NoCommand
}

// PackageManager describes the tool that installed a project's dependencies.
type PackageManager struct {
	Name    string
	Install string
}

// DetectPackageManager checks lockfiles in order of specificity and falls
// back to npm.
func DetectPackageManager(dir string) PackageManager {
	lockfiles := []struct {
		file string
		pm   PackageManager
	}{
		{"bun.lockb", PackageManager{"bun", "bun install"}},
		{"bun.lock", PackageManager{"bun", "bun install"}},
		{"pnpm-lock.yaml", PackageManager{"pnpm", "pnpm install"}},
		{"yarn.lock", PackageManager{"yarn", "yarn install"}},
		{"package-lock.json", PackageManager{"npm", "npm install"}},
	}
	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, lf.file)); err == nil {
			return lf.pm
		}
	}
	return PackageManager{"npm", "npm install"}
}

// Package destpath resolves the destination-path template from configuration
// into a concrete output path.
package destpath

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"loupe/internal/services"
)

var tokenPattern = regexp.MustCompile(`\$\{([a-z]+)\}`)

// Values carries the substitutions available to the template.
type Values struct {
	// InputPath is the original source file.
	InputPath string
	// Ext is the output extension without the leading dot.
	Ext   string
	Model string
	Scale int
}

// Validate checks a template for unknown tokens without resolving it, so a
// bad template fails the job before any work is done.
func Validate(template string) error {
	for _, match := range tokenPattern.FindAllStringSubmatch(template, -1) {
		switch match[1] {
		case "dirname", "basename", "ext", "model", "scale":
		default:
			return services.Wrap(services.ErrConfiguration, "destpath", "validate",
				fmt.Sprintf("unknown template token ${%s}", match[1]), nil)
		}
	}
	return nil
}

// Resolve expands the template into an absolute destination path.
func Resolve(template string, values Values) (string, error) {
	if err := Validate(template); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(values.InputPath)
	if err != nil {
		return "", fmt.Errorf("resolve input path: %w", err)
	}
	base := filepath.Base(abs)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	resolved := tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		switch tokenPattern.FindStringSubmatch(token)[1] {
		case "dirname":
			return filepath.Dir(abs)
		case "basename":
			return stem
		case "ext":
			return values.Ext
		case "model":
			return values.Model
		case "scale":
			return fmt.Sprintf("%dx", values.Scale)
		}
		return token
	})
	return filepath.Clean(resolved), nil
}

// EnsureUnique returns path unchanged when it is free or overwriting is
// allowed; otherwise it appends an incrementing " (n)" suffix before the
// extension until the path is unused.
func EnsureUnique(path string, overwrite bool) string {
	if overwrite {
		return path
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

var ErrArtifactNotFound = errors.New("artifact not found")

type Info struct {
	Key          string
	Size         int64
	LastModified time.Time
}

type PutOptions struct {
	ContentType string
}

// Store persists generated artifacts (reports, exported result files)
// under hierarchical keys. Implementations: a local directory for dev and
// an S3-compatible bucket for prod.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Info, error)
}

var keyComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildReportKey shapes the key for one report run:
// reports/<date>/<run id>/<file name>.
func BuildReportKey(generatedAt time.Time, runID, fileName string) (string, error) {
	if err := validateKeyComponent(runID, "run id"); err != nil {
		return "", err
	}
	if err := validateKeyComponent(fileName, "file name"); err != nil {
		return "", err
	}
	ts := generatedAt.UTC()
	return path.Join(
		"reports",
		fmt.Sprintf("%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		runID,
		fileName,
	), nil
}

func validateKeyComponent(value, field string) error {
	if !keyComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}

// NormalizeKey cleans a store key and rejects path escapes.
func NormalizeKey(key string) (string, error) {
	key = strings.TrimSpace(strings.TrimPrefix(key, "/"))
	if key == "" {
		return "", fmt.Errorf("artifact key is required")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../") || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid artifact key: %q", key)
	}
	return cleaned, nil
}

// Package testutil provides shared helpers for integration tests: a
// thread-safe log buffer and a harness that runs the app against grid
// fixtures written to a temporary directory.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhangsongtt/rlop/internal/app"
	"github.com/zhangsongtt/rlop/internal/hclcfg"
	"github.com/zhangsongtt/rlop/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	OutputDir string
}

// RunIntegrationTest writes the given grid files into a temp directory,
// builds the app over them and executes it to completion. Experiment output
// is redirected into a dedicated subdirectory of the temp root, available
// as OutputDir on the result. A nil registry means registry.Default().
func RunIntegrationTest(t *testing.T, files map[string]string, reg *registry.Registry) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, reg)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller-supplied
// context, for cancellation tests.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, reg *registry.Registry) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	gridDir := filepath.Join(tmpDir, "grids")
	outDir := filepath.Join(tmpDir, "out")
	require.NoError(t, os.Mkdir(gridDir, 0o755))

	for name, content := range files {
		filePath := filepath.Join(gridDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	appConfig := &app.Config{
		GridPath:  gridDir,
		LogLevel:  "debug",
		LogFormat: "text",
		Workers:   2,
		OutputDir: outDir,
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, hclcfg.NewLoader(), reg)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			OutputDir: outDir,
		}
	}

	runErr := testApp.Run(ctx)
	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		OutputDir: outDir,
	}
}

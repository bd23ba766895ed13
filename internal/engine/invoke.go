package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrToolchainNotFound indicates an engine was resolved but its tools
// are not installed on this host.
var ErrToolchainNotFound = errors.New("engine toolchain not found")

// ErrOutputMissing indicates the engine exited successfully but the
// expected output artifact does not exist.
var ErrOutputMissing = errors.New("engine reported success but produced no output artifact")

// ProcessError reports an engine process that exited with a failure.
type ProcessError struct {
	Engine string
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("engine %s failed: %v", e.Engine, e.Err)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}

	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Request carries the inputs for one packaging run. Files is the
// ordered dependency list with the entry last; BundlePath points at the
// pre-built single-file bundle, which glue engines consume instead of
// Files.
type Request struct {
	Files      []string
	BundlePath string
	Output     string
}

// Invoke runs the engine's external toolchain and returns the produced
// binary's path. The out-of-scope heavy lifting (compiling, linking)
// happens entirely in the spawned process; this wrapper only assembles
// arguments, checks the exit status, and verifies the artifact exists.
func Invoke(ctx context.Context, d *Descriptor, req Request) (string, error) {
	switch d.Kind {
	case KindGlue:
		return invokeGlue(ctx, d, req)
	default:
		return invokeFileList(ctx, d, req)
	}
}

// invokeFileList runs a luastatic-style engine: every script on the
// command line, entry first. The tool names its artifact after the
// entry, so the run happens in the output directory and the artifact is
// renamed when the requested name differs.
func invokeFileList(ctx context.Context, d *Descriptor, req Request) (string, error) {
	tool, err := lookupTool(d, d.Executable)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolchainNotFound, err)
	}

	if len(req.Files) == 0 {
		return "", fmt.Errorf("engine %s: no input files", d.Name)
	}

	entry := req.Files[len(req.Files)-1]
	args := append([]string{entry}, req.Files[:len(req.Files)-1]...)

	workDir := filepath.Dir(req.Output)

	runErr := runTool(ctx, d.Name, tool, args, workDir)
	if runErr != nil {
		return "", runErr
	}

	produced := filepath.Join(workDir, artifactName(entry))

	return finishArtifact(produced, req.Output)
}

// invokeGlue runs an srlua-style engine: glue tool, runtime stub,
// bundled script, output.
func invokeGlue(ctx context.Context, d *Descriptor, req Request) (string, error) {
	glue, err := lookupTool(d, d.Glue)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolchainNotFound, err)
	}

	stub, err := lookupTool(d, d.Runtime)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolchainNotFound, err)
	}

	if req.BundlePath == "" {
		return "", fmt.Errorf("engine %s: glue engines need a bundle", d.Name)
	}

	args := []string{stub, req.BundlePath, req.Output}

	// The glue tool names its artifact explicitly, so it runs in the
	// caller's working directory; relative bundle and output paths then
	// keep their meaning.
	runErr := runTool(ctx, d.Name, glue, args, "")
	if runErr != nil {
		return "", runErr
	}

	return finishArtifact(req.Output, req.Output)
}

func runTool(ctx context.Context, engineName, tool string, args []string, dir string) error {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return &ProcessError{Engine: engineName, Stderr: stderr.String(), Err: err}
	}

	return nil
}

// finishArtifact verifies the produced file exists and moves it to the
// requested output path when the two differ.
func finishArtifact(produced, output string) (string, error) {
	if _, err := os.Stat(produced); err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutputMissing, produced)
	}

	if produced == output {
		return output, nil
	}

	err := os.Rename(produced, output)
	if err != nil {
		return "", fmt.Errorf("move artifact to %s: %w", output, err)
	}

	return output, nil
}

// artifactName is the binary name a file-list engine derives from the
// entry script.
func artifactName(entry string) string {
	base := filepath.Base(entry)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if strings.HasSuffix(strings.ToLower(base), ".lua") {
		return stem + exeSuffixHost()
	}

	return base + exeSuffixHost()
}

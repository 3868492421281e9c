package launcher

import (
	"os"
	"path/filepath"
	"strings"
)

// CABundleEnv is consumed by the issuer application's outbound HTTPS client
// code to validate remote TLS endpoints.
const CABundleEnv = "REQUESTS_CA_BUNDLE"

// venvDescriptor marks a directory as a virtual environment.
const venvDescriptor = "pyvenv.cfg"

// activate builds the child environment for a virtual environment rooted at
// dir, mirroring what the environment's activate script does: VIRTUAL_ENV is
// exported, the environment's bin directory is prepended to PATH, and
// PYTHONHOME is dropped. base is the environment to start from, in
// KEY=VALUE form. A missing or incomplete environment is an activation
// error; nothing is exported in that case.
func activate(dir string, base []string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, NewErrorWithErr(ErrActivation, "failed to resolve virtual environment path", err)
	}

	if _, err := os.Stat(filepath.Join(absDir, venvDescriptor)); err != nil {
		return nil, NewErrorWithErr(ErrActivation, "virtual environment descriptor not found", err)
	}

	binDir := filepath.Join(absDir, "bin")
	if info, err := os.Stat(binDir); err != nil || !info.IsDir() {
		return nil, NewError(ErrActivation, "virtual environment has no bin directory at %s", binDir)
	}

	env := make([]string, 0, len(base)+2)
	pathSeen := false
	for _, kv := range base {
		switch {
		case strings.HasPrefix(kv, "PATH="):
			env = append(env, "PATH="+binDir+string(os.PathListSeparator)+strings.TrimPrefix(kv, "PATH="))
			pathSeen = true
		case strings.HasPrefix(kv, "VIRTUAL_ENV="), strings.HasPrefix(kv, "PYTHONHOME="):
			// replaced or dropped below
		default:
			env = append(env, kv)
		}
	}
	if !pathSeen {
		env = append(env, "PATH="+binDir)
	}
	env = append(env, "VIRTUAL_ENV="+absDir)

	return env, nil
}

// resolveCABundle resolves the CA bundle to an absolute path and requires the
// file to exist. The result is what REQUESTS_CA_BUNDLE is set to.
func resolveCABundle(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", NewErrorWithErr(ErrPreflight, "failed to resolve CA bundle path", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", NewErrorWithErr(ErrPreflight, "CA bundle is not readable", err)
	}
	return abs, nil
}

// lookPath resolves name against the PATH carried in env rather than the
// launcher's own environment, so a command installed in the activated virtual
// environment wins over one on the system path. Names containing a path
// separator are returned as-is.
func lookPath(env []string, name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		return name, nil
	}

	var pathVal string
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			pathVal = strings.TrimPrefix(kv, "PATH=")
			break
		}
	}

	for _, dir := range filepath.SplitList(pathVal) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, nil
		}
	}
	return "", NewError(ErrSpawn, "server command %q not found in launch PATH", name)
}

// setEnv returns env with key set to value, replacing any existing entry.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Path settings accept ~ for the home directory and $VAR or ${VAR}
// references; on Windows %VAR% is expanded too.

// resolvePath expands p and anchors a relative result at root.
// An empty p stays empty.
func resolvePath(p, root string) string {
	p = expandPath(p)
	if p == "" || filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}

// expandPath expands variables and a leading ~ in p.
func expandPath(p string) string {
	p = expandEnv(strings.TrimSpace(p))
	rest, ok := cutHome(p)
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}

// expandCommand expands variables in a hook command and a ~ in front of its
// program. Arguments are left as written, apart from variables.
func expandCommand(cmd string) string {
	cmd = expandEnv(strings.TrimSpace(cmd))
	rest, ok := cutHome(cmd)
	if !ok {
		return cmd
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return cmd
	}
	if rest == "" {
		return home
	}
	return home + string(filepath.Separator) + rest
}

// cutHome reports whether p starts with ~ as a whole path element and
// returns what follows the separator.
func cutHome(p string) (string, bool) {
	switch {
	case p == "~":
		return "", true
	case strings.HasPrefix(p, "~/"):
		return p[2:], true
	case runtime.GOOS == "windows" && strings.HasPrefix(p, `~\`):
		return p[2:], true
	}
	return "", false
}

func expandEnv(p string) string {
	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = expandPercentVars(p)
	}
	return p
}

// expandPercentVars replaces %NAME% with the value of NAME. Unset names are
// kept as written and %% becomes a single %.
func expandPercentVars(p string) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(p, '%')
		if start < 0 {
			break
		}
		end := strings.IndexByte(p[start+1:], '%')
		if end < 0 {
			break
		}
		name := p[start+1 : start+1+end]
		b.WriteString(p[:start])
		switch val, ok := os.LookupEnv(name); {
		case name == "":
			b.WriteByte('%')
			p = p[start+2:]
			continue
		case ok:
			b.WriteString(val)
		default:
			b.WriteString(p[start : start+end+2])
		}
		p = p[start+end+2:]
	}
	b.WriteString(p)
	return b.String()
}

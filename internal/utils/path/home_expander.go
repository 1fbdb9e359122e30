package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const homeShortcutConstant = "~"

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander translates between "~"-relative paths and absolute paths under the user's home.
// The home directory is resolved once, on first use.
type HomeExpander struct {
	provider      HomeDirectoryProvider
	resolveOnce   sync.Once
	homeDirectory string
}

// NewHomeExpander constructs a HomeExpander using the operating system lookup.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(nil)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{provider: provider}
}

// Expand replaces a leading "~" or "~/" with the home directory. Paths naming another
// user ("~bob/src") and paths without the shortcut are returned unchanged, as is every
// path when the home directory cannot be determined.
func (expander *HomeExpander) Expand(candidatePath string) string {
	relativePath, hasShortcut := splitHomeShortcut(candidatePath)
	if !hasShortcut {
		return candidatePath
	}
	homeDirectory := expander.home()
	if len(homeDirectory) == 0 {
		return candidatePath
	}
	if len(relativePath) == 0 {
		return homeDirectory
	}
	return filepath.Join(homeDirectory, relativePath)
}

// Abbreviate rewrites an absolute path inside the home directory as "~/...", for display.
func (expander *HomeExpander) Abbreviate(absolutePath string) string {
	homeDirectory := expander.home()
	if len(homeDirectory) == 0 || len(absolutePath) == 0 {
		return absolutePath
	}
	relativePath, relativeError := filepath.Rel(homeDirectory, absolutePath)
	if relativeError != nil || relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return absolutePath
	}
	if relativePath == "." {
		return homeShortcutConstant
	}
	return homeShortcutConstant + string(filepath.Separator) + relativePath
}

func (expander *HomeExpander) home() string {
	if expander == nil {
		return ""
	}
	expander.resolveOnce.Do(func() {
		if resolvedHome, resolveError := expander.provider(); resolveError == nil && len(resolvedHome) > 0 {
			expander.homeDirectory = filepath.Clean(resolvedHome)
		}
	})
	return expander.homeDirectory
}

// splitHomeShortcut reports whether candidatePath starts with "~" followed by nothing or a
// separator, and returns the remainder after it.
func splitHomeShortcut(candidatePath string) (string, bool) {
	if !strings.HasPrefix(candidatePath, homeShortcutConstant) {
		return "", false
	}
	remainder := candidatePath[len(homeShortcutConstant):]
	if len(remainder) == 0 {
		return "", true
	}
	if remainder[0] != '/' && remainder[0] != filepath.Separator {
		return "", false
	}
	return strings.TrimLeft(remainder, "/"+string(filepath.Separator)), true
}

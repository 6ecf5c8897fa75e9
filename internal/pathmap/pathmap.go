// Package pathmap translates paths authored on the local (often Windows)
// machine into the POSIX convention of the execution host. It works on strings
// only and never touches a filesystem.
package pathmap

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrIllegalPathCharacter is matched by *IllegalPathCharacterError.
	ErrIllegalPathCharacter = errors.New("illegal path character")
	// ErrUnsupportedPath reports a path with no usable file name.
	ErrUnsupportedPath = errors.New("unsupported path shape")
	// ErrRelativeRoot reports a remote root that is not an absolute POSIX path.
	ErrRelativeRoot = errors.New("remote root must be an absolute POSIX path")
)

// IllegalPathCharacterError reports a character that cannot appear in a POSIX
// file name.
type IllegalPathCharacterError struct {
	Path   string
	Char   rune
	Offset int
}

func (e *IllegalPathCharacterError) Error() string {
	return fmt.Sprintf("path %q contains illegal character %U at byte %d", e.Path, e.Char, e.Offset)
}

func (e *IllegalPathCharacterError) Unwrap() error { return ErrIllegalPathCharacter }

// Options tunes a translation.
type Options struct {
	// LocalRoot is the local directory whose sub-tree is mirrored under the
	// remote root. Paths outside it fall back to their base name.
	LocalRoot string
}

// Translate maps localPath to its location under remoteRoot.
func Translate(localPath, remoteRoot string, opts Options) (string, error) {
	if err := checkChars(localPath); err != nil {
		return "", err
	}
	if err := checkChars(remoteRoot); err != nil {
		return "", err
	}
	if !IsAbsPOSIX(remoteRoot) {
		return "", fmt.Errorf("%w: %q", ErrRelativeRoot, remoteRoot)
	}
	root := path.Clean(remoteRoot)

	// Already rooted POSIX paths pass through so translation is idempotent.
	if IsAbsPOSIX(localPath) {
		p := path.Clean(localPath)
		if p == root {
			return "", fmt.Errorf("%w: %q names the remote root itself", ErrUnsupportedPath, localPath)
		}
		if _, ok := relativeTo(p, root, false); ok {
			return p, nil
		}
	}

	p, windows := ToSlash(localPath)
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsupportedPath)
	}

	rel := path.Base(p)
	if opts.LocalRoot != "" {
		if err := checkChars(opts.LocalRoot); err != nil {
			return "", err
		}
		base, baseWindows := ToSlash(opts.LocalRoot)
		if r, ok := relativeTo(p, base, windows || baseWindows); ok {
			rel = r
		}
	}
	if rel == "" || rel == "." || rel == ".." || rel == "/" {
		return "", fmt.Errorf("%w: %q has no file name", ErrUnsupportedPath, localPath)
	}
	return path.Join(root, rel), nil
}

// ToSlash strips drive letters and UNC or Win32 namespace prefixes, converts
// backslashes to forward slashes, and cleans the result lexically. The
// boolean reports whether the input carried Windows-only syntax.
func ToSlash(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	rest, windows := stripPrefix(p)
	if strings.Contains(rest, `\`) {
		windows = true
		rest = strings.ReplaceAll(rest, `\`, "/")
	}
	if rest == "" {
		return "", windows
	}
	if windows && !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return path.Clean(rest), windows
}

func stripPrefix(p string) (string, bool) {
	switch {
	case hasPrefixFold(p, `\\?\UNC\`):
		return dropElements(p[len(`\\?\UNC\`):], 2), true
	case strings.HasPrefix(p, `\\?\`), strings.HasPrefix(p, `\\.\`):
		return stripDrive(p[4:]), true
	case strings.HasPrefix(p, `\\`):
		return dropElements(p[2:], 2), true
	}
	rest := stripDrive(p)
	return rest, len(rest) != len(p)
}

func stripDrive(p string) string {
	if len(p) >= 2 && p[1] == ':' && isLetter(p[0]) {
		return p[2:]
	}
	return p
}

// dropElements removes the first n backslash or slash separated elements
// (server and share of a UNC path) and returns the remainder with its
// leading separator.
func dropElements(p string, n int) string {
	for i := 0; i < n; i++ {
		idx := strings.IndexAny(p, `\/`)
		if idx < 0 {
			return ""
		}
		p = p[idx+1:]
	}
	return "/" + p
}

// relativeTo returns p relative to base when p lies strictly below it.
func relativeTo(p, base string, foldCase bool) (string, bool) {
	base = strings.TrimSuffix(path.Clean(base), "/")
	prefix := base + "/"
	if len(p) <= len(prefix) {
		return "", false
	}
	head := p[:len(prefix)]
	if head != prefix && !(foldCase && strings.EqualFold(head, prefix)) {
		return "", false
	}
	return p[len(prefix):], true
}

// IsAbsPOSIX reports whether p is an absolute POSIX path without Windows
// separators or control characters.
func IsAbsPOSIX(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.Contains(p, `\`) && checkChars(p) == nil
}

func checkChars(p string) error {
	for i, r := range p {
		if r < 0x20 || r == 0x7f {
			return &IllegalPathCharacterError{Path: p, Char: r, Offset: i}
		}
	}
	return nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

package filesystem

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// HeadCommit liest den aktuellen Commit eines ausgecheckten Git-Repositories
// direkt aus .git, ohne git aufzurufen. Ohne Repository ist das Ergebnis "".
// Worktrees und Submodule, bei denen .git eine Datei mit "gitdir:" ist, werden aufgelöst.
func HeadCommit(repo string) (string, error) {
	gitDir, err := resolveGitDir(repo)
	if err != nil || gitDir == "" {
		return "", err
	}
	head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	ref, symbolic := strings.CutPrefix(strings.TrimSpace(string(head)), "ref: ")
	if !symbolic {
		return ref, nil
	}
	if !strings.HasPrefix(ref, "refs/") || !filepath.IsLocal(filepath.FromSlash(ref)) {
		return "", errors.Errorf("invalid ref %q in %s", ref, gitDir)
	}

	// Refs eines Worktrees liegen im gemeinsamen Verzeichnis
	dirs := []string{gitDir}
	if common, err := os.ReadFile(filepath.Join(gitDir, "commondir")); err == nil {
		dir := strings.TrimSpace(string(common))
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(gitDir, dir)
		}
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		commit, ok, err := lookupRef(dir, ref)
		if err != nil || ok {
			return commit, err
		}
	}
	return "", nil
}

// resolveGitDir liefert das Git-Verzeichnis von repo oder "", wenn es keins gibt.
func resolveGitDir(repo string) (string, error) {
	gitDir := filepath.Join(repo, ".git")
	info, err := os.Stat(gitDir)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return gitDir, nil
	}
	content, err := os.ReadFile(gitDir)
	if err != nil {
		return "", err
	}
	dir, ok := strings.CutPrefix(strings.TrimSpace(string(content)), "gitdir:")
	dir = strings.TrimSpace(dir)
	if !ok || dir == "" {
		return "", errors.Errorf("%s is neither a directory nor a gitdir link", gitDir)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(repo, dir)
	}
	return dir, nil
}

func lookupRef(gitDir, ref string) (string, bool, error) {
	commit, err := os.ReadFile(filepath.Join(gitDir, filepath.FromSlash(ref)))
	if err == nil {
		return strings.TrimSpace(string(commit)), true, nil
	}
	if !os.IsNotExist(err) {
		return "", false, err
	}
	// nach "git gc" stehen die Refs nur noch in packed-refs
	packed, err := os.ReadFile(filepath.Join(gitDir, "packed-refs"))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	for _, line := range strings.Split(string(packed), "\n") {
		if hash, name, ok := strings.Cut(strings.TrimSpace(line), " "); ok && name == ref {
			return hash, true, nil
		}
	}
	return "", false, nil
}

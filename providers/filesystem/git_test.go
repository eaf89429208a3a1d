package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGitFile(t *testing.T, repo, name, content string) {
	t.Helper()
	path := filepath.Join(repo, ".git", filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestHeadCommit(t *testing.T) {
	t.Run("no repository", func(t *testing.T) {
		commit, err := HeadCommit(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, commit)
	})

	t.Run("branch ref", func(t *testing.T) {
		repo := t.TempDir()
		writeGitFile(t, repo, "HEAD", "ref: refs/heads/main\n")
		writeGitFile(t, repo, "refs/heads/main", "4f2a9c\n")
		commit, err := HeadCommit(repo)
		require.NoError(t, err)
		assert.Equal(t, "4f2a9c", commit)
	})

	t.Run("detached head", func(t *testing.T) {
		repo := t.TempDir()
		writeGitFile(t, repo, "HEAD", "e83c51\n")
		commit, err := HeadCommit(repo)
		require.NoError(t, err)
		assert.Equal(t, "e83c51", commit)
	})

	t.Run("packed refs", func(t *testing.T) {
		repo := t.TempDir()
		writeGitFile(t, repo, "HEAD", "ref: refs/heads/main\n")
		writeGitFile(t, repo, "packed-refs", "# pack-refs with: peeled\n9b1d07 refs/heads/main\n")
		commit, err := HeadCommit(repo)
		require.NoError(t, err)
		assert.Equal(t, "9b1d07", commit)
	})

	t.Run("worktree gitdir file", func(t *testing.T) {
		root := t.TempDir()
		main := filepath.Join(root, "main")
		writeGitFile(t, main, "refs/heads/feature", "71c0de\n")
		writeGitFile(t, main, "worktrees/feature/HEAD", "ref: refs/heads/feature\n")
		writeGitFile(t, main, "worktrees/feature/commondir", "../..\n")

		worktree := filepath.Join(root, "feature")
		require.NoError(t, os.MkdirAll(worktree, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(worktree, ".git"),
			[]byte("gitdir: ../main/.git/worktrees/feature\n"), 0o644))

		commit, err := HeadCommit(worktree)
		require.NoError(t, err)
		assert.Equal(t, "71c0de", commit)
	})

	t.Run("submodule gitdir file", func(t *testing.T) {
		root := t.TempDir()
		writeGitFile(t, root, "modules/sub/HEAD", "a1b2c3\n")
		sub := filepath.Join(root, "sub")
		require.NoError(t, os.MkdirAll(sub, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(sub, ".git"),
			[]byte("gitdir: ../.git/modules/sub\n"), 0o644))

		commit, err := HeadCommit(sub)
		require.NoError(t, err)
		assert.Equal(t, "a1b2c3", commit)
	})

	t.Run("broken git file", func(t *testing.T) {
		repo := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(repo, ".git"), []byte("nonsense\n"), 0o644))
		_, err := HeadCommit(repo)
		assert.Error(t, err)
	})

	t.Run("ref outside refs", func(t *testing.T) {
		for _, ref := range []string{"../../secret", "refs/../../secret", "/etc/hostname", "HEAD"} {
			repo := t.TempDir()
			writeGitFile(t, repo, "HEAD", "ref: "+ref+"\n")
			_, err := HeadCommit(repo)
			assert.Error(t, err, ref)
		}
	})
}

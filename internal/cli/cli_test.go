package cli_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"submitq.dev/submitq/internal/cli"
	"submitq.dev/submitq/internal/config"
	"submitq.dev/submitq/internal/store"
	"submitq.dev/submitq/testhelpers"
)

// submitq runs the command line in process against the repository in dir
func submitq(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCmd("test", "none", "unknown")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--repo", dir, "--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestInitCommand(t *testing.T) {
	repo := testhelpers.NewDiskGitRepo(t)
	gitDir := filepath.Join(repo.Dir, ".git")

	out, err := submitq(t, repo.Dir, "init", "--name", "Merge Bot", "--fast-forward-only", "release")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized submitq")
	require.FileExists(t, filepath.Join(gitDir, "submitq.db"))

	cfg, err := config.Load(config.Path(gitDir))
	require.NoError(t, err)
	name, email := cfg.Identity()
	assert.Equal(t, "Merge Bot", name)
	assert.Equal(t, "submitq@localhost", email)
	assert.True(t, cfg.IsFastForwardOnly("refs/heads/release"))

	t.Run("is repeatable", func(t *testing.T) {
		_, err := submitq(t, repo.Dir, "init")
		require.NoError(t, err)
		cfg, err := config.Load(config.Path(gitDir))
		require.NoError(t, err)
		name, _ := cfg.Identity()
		assert.Equal(t, "Merge Bot", name)
	})
}

func TestInitOutsideRepository(t *testing.T) {
	_, err := submitq(t, t.TempDir(), "init")
	require.ErrorContains(t, err, "not a git repository")
}

func TestQueueAndMerge(t *testing.T) {
	repo := testhelpers.NewDiskGitRepo(t)
	c0 := repo.Commit("initial", map[string]string{"README": "hello\n"})
	repo.SetBranch("main", c0)
	c1 := repo.Commit("Add a", map[string]string{"a.txt": "a\n"}, c0)
	d1 := repo.Commit("Add b", map[string]string{"b.txt": "b\n"}, c0)
	repo.SetBranch("feature", d1)

	_, err := submitq(t, repo.Dir, "init")
	require.NoError(t, err)

	out, err := submitq(t, repo.Dir, "queue", "add", "main", c1.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Submitted change 1")
	out, err = submitq(t, repo.Dir, "queue", "add", "main", "feature")
	require.NoError(t, err)
	assert.Contains(t, out, "Submitted change 2")

	out, err = submitq(t, repo.Dir, "queue", "list", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "change 1 (patch set 1) "+c1.String()[:8])
	assert.Contains(t, out, "change 2 (patch set 1) "+d1.String()[:8])

	out, err = submitq(t, repo.Dir, "merge", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "CLEAN_MERGE")
	assert.Contains(t, out, "2 merged")

	tip := repo.Branch("main")
	require.Equal(t, []string{c1.String(), d1.String()}, hashes(repo.Parents(tip)))
	assert.Equal(t, "Merge", repo.Message(tip))

	scene := testhelpers.NewSceneAt(t, repo, filepath.Join(repo.Dir, ".git", "submitq.db"))
	testhelpers.ExpectStatus(t, scene, store.StatusMerged, 1, 2)

	out, err = submitq(t, repo.Dir, "queue", "list", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing submitted")

	out, err = submitq(t, repo.Dir, "runs", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "merged 2, failed 0")

	t.Run("second run has nothing to do", func(t *testing.T) {
		out, err := submitq(t, repo.Dir, "merge", "main")
		require.NoError(t, err)
		assert.Contains(t, out, "nothing to merge")
		assert.Equal(t, tip, repo.Branch("main"))
	})
}

func TestQueueAddUnknownRevision(t *testing.T) {
	repo := testhelpers.NewDiskGitRepo(t)
	_, err := submitq(t, repo.Dir, "queue", "add", "main", "no-such-branch")
	require.ErrorContains(t, err, "unknown revision")
}

func TestQueueSubmitInvalidChange(t *testing.T) {
	repo := testhelpers.NewDiskGitRepo(t)
	_, err := submitq(t, repo.Dir, "queue", "submit", "abc")
	require.ErrorContains(t, err, "invalid change number")

	_, err = submitq(t, repo.Dir, "queue", "submit", "42")
	require.Error(t, err)
}

func TestQueueSubmitByPatchSetRef(t *testing.T) {
	repo := testhelpers.NewDiskGitRepo(t)
	c0 := repo.Commit("initial", map[string]string{"README": "hello\n"})
	repo.SetBranch("main", c0)
	c1 := repo.Commit("Add a", map[string]string{"a.txt": "a\n"}, c0)

	_, err := submitq(t, repo.Dir, "init")
	require.NoError(t, err)

	out, err := submitq(t, repo.Dir, "queue", "add", "--no-submit", "main", c1.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Created change 1")
	assert.Contains(t, out, "submitq queue submit 1")

	out, err = submitq(t, repo.Dir, "queue", "list", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing submitted")

	_, err = submitq(t, repo.Dir, "queue", "submit", "refs/changes/01/1/2")
	require.ErrorContains(t, err, "patch set 2 of change 1 is outdated")

	_, err = submitq(t, repo.Dir, "queue", "submit", "refs/changes/01/x/1")
	require.ErrorContains(t, err, "not a patch set ref")

	out, err = submitq(t, repo.Dir, "queue", "submit", "refs/changes/01/1/1")
	require.NoError(t, err)
	assert.Contains(t, out, "Submitted change 1")

	out, err = submitq(t, repo.Dir, "queue", "list", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "change 1 (patch set 1) "+c1.String()[:8])
}

func TestMergeRequiresBranch(t *testing.T) {
	repo := testhelpers.NewDiskGitRepo(t)
	_, err := submitq(t, repo.Dir, "merge")
	require.Error(t, err)
}

func hashes[T interface{ String() string }](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

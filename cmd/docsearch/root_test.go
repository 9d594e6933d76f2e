package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	root    string
	docs    string
	data    string
	cfgFile string
}

func newTestEnv(t *testing.T, files map[string]string, extraYAML string) *testEnv {
	t.Helper()
	for _, k := range []string{"DOCSEARCH_DOCS_DIR", "DOCSEARCH_DATA_DIR", "DOCSEARCH_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	root := t.TempDir()
	env := &testEnv{
		root:    root,
		docs:    filepath.Join(root, "documents"),
		data:    filepath.Join(root, "data"),
		cfgFile: filepath.Join(root, "config.yaml"),
	}
	require.NoError(t, os.MkdirAll(env.docs, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(env.docs, name), []byte(content), 0o644))
	}
	yaml := fmt.Sprintf(`documents:
  dir: %q
storage:
  dir: %q
dense:
  vector_size: 8
  window: 3
  min_count: 1
  epochs: 5
  negative: 2
  workers: 2
  sample: -1
%s`, env.docs, env.data, extraYAML)
	require.NoError(t, os.WriteFile(env.cfgFile, []byte(yaml), 0o644))
	return env
}

// run executes the root command with fresh flag state and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	searchLimit, searchMethod, searchCategory = 0, "", "all"
	searchJSON, searchRetrain, watchRetrain, documentsJSON = false, false, false, false
	tuiCategory, logLevel = "", ""

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(append([]string{"--config", e.cfgFile, "--log-level", "error"}, args...))
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

var sampleDocs = map[string]string{
	"a.txt": "The cat sat on the mat. Cats purr when happy.",
	"b.txt": "Dogs run fast in the park. A dog barks loudly.",
	"c.txt": "Stock markets fell as investors sold shares.",
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	for _, level := range []string{"debug", "INFO", "warn", "error", ""} {
		assert.NoError(t, setupLogger(level, new(bytes.Buffer)), level)
	}
	err := setupLogger("verbose", new(bytes.Buffer))
	assert.ErrorContains(t, err, "invalid log level")
}

func TestRootCmd_Metadata(t *testing.T) {
	assert.Equal(t, "docsearch", rootCmd.Use)
	for _, name := range []string{"config", "log-level"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"status", "train", "search", "open", "watch", "tui", "documents"})
}

func TestRootCmd_InvalidLogLevel(t *testing.T) {
	env := newTestEnv(t, nil, "")

	rootCmd.SetArgs([]string{"--config", env.cfgFile, "--log-level", "loud", "status"})
	defer rootCmd.SetArgs(nil)
	rootCmd.SetOut(new(bytes.Buffer))
	defer func() { logLevel = "" }()

	err := rootCmd.Execute()

	assert.ErrorContains(t, err, "invalid log level")
}

func TestStatusCmd(t *testing.T) {
	env := newTestEnv(t, sampleDocs, "")

	out, err := env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 3")
	assert.Contains(t, out, "Changes detected")

	_, err = env.run(t, "train")
	require.NoError(t, err)

	out, err = env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexes are up to date.")
}

func TestStatusCmd_ListsCategories(t *testing.T) {
	env := newTestEnv(t, sampleDocs, "categories:\n  a.txt: animals\n  b.txt: animals\n  c.txt: finance\n")

	out, err := env.run(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Categories: animals, finance")
}

func TestTrainCmd_WritesArtifacts(t *testing.T) {
	env := newTestEnv(t, sampleDocs, "")

	out, err := env.run(t, "train")

	require.NoError(t, err)
	assert.Contains(t, out, "Trained indexes over 3 documents.")
	for _, name := range []string{"docs_status.json", "tfidf_model.gob", "doc2vec.model", "doc2vec_vectors.json"} {
		assert.FileExists(t, filepath.Join(env.data, name))
	}
}

func TestOpenCmd_RejectsInvalidName(t *testing.T) {
	env := newTestEnv(t, sampleDocs, "")

	_, err := env.run(t, "open", "../a.txt")

	assert.ErrorContains(t, err, "invalid document name")
}

func TestOpenCmd_MissingDocument(t *testing.T) {
	env := newTestEnv(t, sampleDocs, "")

	_, err := env.run(t, "open", "missing.txt")

	assert.Error(t, err)
}

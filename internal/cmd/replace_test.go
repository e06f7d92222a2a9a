package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/sar/internal/filelock"
	"github.com/harrison/sar/internal/replacer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeRoot runs the root command with args and stdin, isolated from the user's SAR_HOME
func executeRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("SAR_HOME", filepath.Join(t.TempDir(), "sar-home"))

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func readTreeFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	return string(data)
}

func TestReplace_EditsMatchingFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.json": "{\"v\": \"positive\"}\n",
		"b.txt":  "positive\n",
	})

	stdout, stderr, err := executeRoot(t, "", "-d", root, "-x", "json", "-s", "positive", "-r", "negative", "-y", "--no-history")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	assert.Equal(t, "{\"v\": \"negative\"}\n", readTreeFile(t, root, "a.json"))
	assert.Equal(t, "positive\n", readTreeFile(t, root, "b.txt"))

	banner := `In directory: "` + root + `", for file extension(s): ["json"], search for: "positive" and replace with: "negative" and dry-run: false`
	assert.Contains(t, stdout, banner)
	assert.Contains(t, stdout, strings.Repeat("=", len([]rune(banner)))+"\n"+banner)
	assert.Contains(t, stdout, "Search text found in file: "+filepath.Join(root, "a.json"))
	assert.Contains(t, stdout, "Successfully edited file: "+filepath.Join(root, "a.json"))
	assert.Contains(t, stdout, "Total # of files where search text was found: 1")
	assert.Contains(t, stdout, "Total # of files where search text was replaced: 1")
	assert.Contains(t, stdout, "Total # of files not searched or edited (error): 0")
	assert.Contains(t, stdout, "Total # of directories or files not entered (error): 0")
	assert.NotContains(t, stdout, "Do you want to continue?")
}

func TestReplace_Confirmation(t *testing.T) {
	tests := []struct {
		name       string
		stdin      string
		wantEdited bool
	}{
		{name: "empty answer defaults to yes", stdin: "\n", wantEdited: true},
		{name: "explicit yes", stdin: "yes\n", wantEdited: true},
		{name: "upper case y", stdin: "Y\n", wantEdited: true},
		{name: "no", stdin: "n\n", wantEdited: false},
		{name: "anything else declines", stdin: "maybe\n", wantEdited: false},
		{name: "closed input declines", stdin: "", wantEdited: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeTree(t, map[string]string{"a.txt": "positive\n"})

			stdout, _, err := executeRoot(t, tt.stdin, "-d", root, "-s", "positive", "-r", "negative", "--no-history")
			require.NoError(t, err)
			assert.Contains(t, stdout, "Do you want to continue? [Y/n]: ")

			if tt.wantEdited {
				assert.Equal(t, "negative\n", readTreeFile(t, root, "a.txt"))
				assert.Contains(t, stdout, "Total # of files where search text was replaced: 1")
			} else {
				assert.Equal(t, "positive\n", readTreeFile(t, root, "a.txt"))
				assert.Contains(t, stdout, "Operation cancelled.")
				assert.NotContains(t, stdout, "Total #")
			}
		})
	}
}

func TestReplace_DryRunWithDiff(t *testing.T) {
	root := writeTree(t, map[string]string{"dates.txt": "released 2012-03-14\n"})

	stdout, _, err := executeRoot(t, "", "-d", root,
		"-s", `(?P<y>\d{4})-(?P<m>\d{2})-(?P<d>\d{2})`, "-r", "$m/$d/$y",
		"--dry", "--diff", "-y", "--no-history")
	require.NoError(t, err)

	assert.Equal(t, "released 2012-03-14\n", readTreeFile(t, root, "dates.txt"))
	assert.Contains(t, stdout, "and dry-run: true")
	assert.Contains(t, stdout, "-released 2012-03-14")
	assert.Contains(t, stdout, "+released 03/14/2012")
	assert.Contains(t, stdout, "Total # of files where search text was found: 1")
	assert.Contains(t, stdout, "Total # of files where search text was replaced: 0")
}

func TestReplace_LiteralAndIgnoredDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/app.ts":                "import x from \"@infragistics/igniteui-angular\";\n",
		"node_modules/pkg/index.ts": "import x from \"@infragistics/igniteui-angular\";\n",
		"src/vendor/lib.ts":         "import x from \"@infragistics/igniteui-angular\";\n",
	})

	_, _, err := executeRoot(t, "", "-d", root,
		"-x", "ts html", "-i", "node_modules,vendor",
		"-s", "@infragistics/igniteui-angular", "-r", "igniteui-angular",
		"-l", "-y", "--no-history")
	require.NoError(t, err)

	assert.Equal(t, "import x from \"igniteui-angular\";\n", readTreeFile(t, root, "src/app.ts"))
	assert.Contains(t, readTreeFile(t, root, "node_modules/pkg/index.ts"), "@infragistics")
	assert.Contains(t, readTreeFile(t, root, "src/vendor/lib.ts"), "@infragistics")
}

func TestReplace_WarnsWithoutExtensionFilter(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "x\n"})

	_, stderr, err := executeRoot(t, "", "-d", root, "-s", "nothing", "-y", "--no-history")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Warning: No extension filter")
	assert.Contains(t, stderr, "1. "+root)

	_, stderr, err = executeRoot(t, "", "-d", root, "-s", "nothing", "-y", "--dry", "--no-history")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "No extension filter", "dry runs cannot damage files")
}

func TestReplace_ExtensionListsInBanner(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "x\n"})

	stdout, _, err := executeRoot(t, "", "-d", root, "-x", "json txt", "-x", "md", "-s", "nothing", "-y", "--no-history")
	require.NoError(t, err)
	assert.Contains(t, stdout, `for file extension(s): ["json", "txt", "md"]`)
}

func TestReplace_ConfigurationErrors(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "positive\n"})

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "dotted extension",
			args:    []string{"-d", root, "-x", ".txt", "-s", "positive"},
			wantErr: replacer.ErrInvalidExtensions,
		},
		{
			name:    "glob extension",
			args:    []string{"-d", root, "-x", "*.txt", "-s", "positive"},
			wantErr: replacer.ErrInvalidExtensions,
		},
		{
			name:    "empty search",
			args:    []string{"-d", root, "-s", ""},
			wantErr: replacer.ErrEmptySearch,
		},
		{
			name:    "unresolved template reference",
			args:    []string{"-d", root, "-s", "(positive)", "-r", "$2"},
			wantErr: replacer.ErrUnresolvedReference,
		},
		{
			name:    "invalid regular expression",
			args:    []string{"-d", root, "-s", "(positive"},
			wantMsg: "invalid search pattern",
		},
		{
			name:    "missing search flag",
			args:    []string{"-d", root},
			wantMsg: `required flag(s) "search" not set`,
		},
		{
			name:    "invalid log level",
			args:    []string{"-d", root, "-s", "positive", "--log-level", "loud"},
			wantMsg: "invalid log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeRoot(t, "", append(tt.args, "-y", "--no-history")...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.NotContains(t, stdout, "Total #", "nothing runs after a configuration error")
			assert.Equal(t, "positive\n", readTreeFile(t, root, "a.txt"))
		})
	}
}

func TestReplace_InvalidExtensionMessage(t *testing.T) {
	_, _, err := executeRoot(t, "", "-x", ".json", "-s", "x", "-y")
	require.Error(t, err)
	assert.Equal(t, "file extensions cannot contain '*' and cannot start with '.'", err.Error())
}

func TestReplace_ConfigFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.json": "positive\n",
		"a.txt":  "positive\n",
	})
	configPath := filepath.Join(t.TempDir(), "sar.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("extensions: [json]\nassume_yes: true\nhistory:\n  enabled: false\n"), 0644))

	stdout, _, err := executeRoot(t, "", "--config", configPath, "-d", root, "-s", "positive", "-r", "negative")
	require.NoError(t, err)

	assert.NotContains(t, stdout, "Do you want to continue?")
	assert.Equal(t, "negative\n", readTreeFile(t, root, "a.json"))
	assert.Equal(t, "positive\n", readTreeFile(t, root, "a.txt"))
}

func TestReplace_RunLockHeld(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "positive\n"})
	home := filepath.Join(t.TempDir(), "sar-home")

	lock, err := filelock.AcquireRunLock(filepath.Join(home, "locks"), root)
	require.NoError(t, err)
	defer lock.Unlock()

	cmd := NewRootCommand()
	t.Setenv("SAR_HOME", home)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"-d", root, "-s", "positive", "-r", "negative", "-y", "--no-history"})

	err = cmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, filelock.ErrRunLocked))
	assert.Equal(t, "positive\n", readTreeFile(t, root, "a.txt"))
}

func TestReplace_RunsWithoutLockWhenHomeUnavailable(t *testing.T) {
	root := writeTree(t, map[string]string{"a.json": "positive\n"})

	// A regular file in the way makes SAR_HOME impossible to create, even for root
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))
	t.Setenv("SAR_HOME", filepath.Join(blocker, "home"))

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"-d", root, "-x", "json", "-s", "positive", "-r", "negative", "-y", "--no-history"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "negative\n", readTreeFile(t, root, "a.json"))
	assert.Contains(t, stderr.String(), "run lock disabled")
	assert.Contains(t, stdout.String(), "Total # of files where search text was replaced: 1")
}

func TestReplace_BannerShowsRawText(t *testing.T) {
	root := writeTree(t, map[string]string{"notes.txt": "due 2024\n"})

	stdout, _, err := executeRoot(t, "", "-d", root, "-x", "txt", "-s", `\d{4}`, "-r", `C:\Temp`, "--dry", "-y", "--no-history")
	require.NoError(t, err)

	assert.Contains(t, stdout, `search for: "\d{4}" and replace with: "C:\Temp" and dry-run: true`)
	assert.NotContains(t, stdout, `\\d{4}`)
}

func TestReplace_TraceLevelShowsRequest(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "positive\n"})

	stdout, _, err := executeRoot(t, "", "-d", root, "-s", "positive", "--dry", "-y", "--no-history", "--log-level", "trace")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[TRACE] Resolved request:")

	stdout, _, err = executeRoot(t, "", "-d", root, "-s", "positive", "--dry", "-y", "--no-history")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "[TRACE]")
}

func TestReplace_WarnsWhenEntriesFail(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	stdout, stderr, err := executeRoot(t, "", "-d", missing, "-x", "txt", "-s", "positive", "-y", "--no-history")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Total # of directories or files not entered (error): 1")
	assert.Contains(t, stderr, "some files or directories could not be processed")
}

func TestReplace_RecordsHistory(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "positive\n",
		"b.txt": "neutral\n",
	})
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	configPath := filepath.Join(t.TempDir(), "sar.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("history:\n  db_path: "+dbPath+"\n"), 0644))

	_, stderr, err := executeRoot(t, "", "--config", configPath, "-d", root, "-x", "txt", "-s", "positive", "-r", "negative", "-y")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	listCmd := NewRootCommand()
	var out bytes.Buffer
	listCmd.SetOut(&out)
	listCmd.SetArgs([]string{"history", "--db-path", dbPath})
	require.NoError(t, listCmd.Execute())

	assert.Contains(t, out.String(), "positive")
	assert.Contains(t, out.String(), root)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{in: nil, want: nil},
		{in: []string{"json"}, want: []string{"json"}},
		{in: []string{"json txt"}, want: []string{"json", "txt"}},
		{in: []string{"json,txt", "md"}, want: []string{"json", "txt", "md"}},
		{in: []string{" json , txt "}, want: []string{"json", "txt"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, splitList(tt.in))
	}
}

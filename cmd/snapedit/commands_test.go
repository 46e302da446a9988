package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/dgallion1/snapedit/internal/api"
	"github.com/dgallion1/snapedit/internal/config"
	"github.com/dgallion1/snapedit/internal/coursestore"
	"github.com/dgallion1/snapedit/internal/doctree"
	"github.com/dgallion1/snapedit/internal/fragment"
	"github.com/dgallion1/snapedit/internal/importer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBackend(t *testing.T) (*coursestore.Store, string) {
	t.Helper()
	cfg := config.Config{
		SessKey: "secret",
		Course:  config.Course{ID: 2, ContextID: 20, Format: config.FormatTopics, TOCType: config.TOCTop},
	}
	store := coursestore.New(importer.DemoCourse(3))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(api.NewServer(store, fragment.NewRenderer(), log, cfg))
	t.Cleanup(srv.Close)
	return store, srv.URL
}

func run(t *testing.T, url string, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	base := []string{
		"--base-url", url, "--sesskey", "secret", "--course", "2", "--context", "20",
		"--format", "topics", "--toc", "top", "--log-level", "error",
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func storeTitles(store *coursestore.Store) []string {
	var out []string
	for _, s := range store.Course().Sections {
		out = append(out, s.Title)
	}
	return out
}

func TestTOC(t *testing.T) {
	_, url := startBackend(t)
	out, err := run(t, url, "", "toc")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "General")
	assert.Contains(t, lines[3], "Topic 3")
	assert.Contains(t, lines[3], "loaded")
}

func TestMoveSection(t *testing.T) {
	store, url := startBackend(t)
	out, err := run(t, url, "", "move-section", "3", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"General", "Topic 3", "Topic 1", "Topic 2"}, storeTitles(store))
	assert.Less(t, strings.Index(out, "Topic 3"), strings.Index(out, "Topic 1"))
}

func TestMoveAssets(t *testing.T) {
	store, url := startBackend(t)
	_, err := run(t, url, "", "move-assets", "--to", "1", "--before", "1", "5", "3")
	require.NoError(t, err)
	var ids []int
	for _, a := range store.Course().Sections[1].Assets {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int{5, 3, 1, 2}, ids)
}

func TestMoveAssets_RequiresTarget(t *testing.T) {
	_, url := startBackend(t)
	_, err := run(t, url, "", "move-assets", "5")
	require.Error(t, err)
}

func TestDeleteSection_Prompt(t *testing.T) {
	store, url := startBackend(t)

	_, err := run(t, url, "n\n", "delete-section", "2")
	require.NoError(t, err)
	assert.Len(t, store.Course().Sections, 4)

	_, err = run(t, url, "yes\n", "delete-section", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"General", "Topic 1", "Topic 3"}, storeTitles(store))
}

func TestVisibilityAndHighlight(t *testing.T) {
	store, url := startBackend(t)

	out, err := run(t, url, "", "visibility", "1")
	require.NoError(t, err)
	assert.Equal(t, doctree.Hidden, store.Course().Sections[1].Visibility)
	assert.Contains(t, out, "hidden")

	out, err = run(t, url, "", "highlight", "2")
	require.NoError(t, err)
	assert.True(t, store.Course().Sections[2].Highlighted)
	assert.Contains(t, out, "highlighted")
}

func TestAsset(t *testing.T) {
	store, url := startBackend(t)

	out, err := run(t, url, "", "asset", "hide", "3", "--section", "2")
	require.NoError(t, err)
	assert.Equal(t, doctree.Hidden, store.Course().Sections[2].Assets[0].Visibility)
	assert.Contains(t, out, "[hidden]")

	_, err = run(t, url, "", "asset", "archive", "3")
	require.Error(t, err)
}

func TestArgumentErrors(t *testing.T) {
	_, url := startBackend(t)

	_, err := run(t, url, "", "show", "two")
	require.EqualError(t, err, `section must be a number, got "two"`)

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--base-url", url, "--sesskey", " ", "toc"})
	require.EqualError(t, cmd.Execute(), "--sesskey is required")
}

func TestShow(t *testing.T) {
	_, url := startBackend(t)
	out, err := run(t, url, "", "show", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "2  "), out)
	for _, id := range []int{3, 4} {
		assert.Contains(t, out, " "+strconv.Itoa(id)+" ")
	}
}

package main

import (
	"archive/zip"
	"bufio"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWritesChronologicalArchive(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tweets.json.zip")
	options := &Options{Out: out, Count: 500, Days: 10, Users: 20, Seed: 7}
	require.NoError(t, run(options))

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.File, 1)

	rc, err := r.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	// the date query's streaming pass needs the archive in time order
	scanner := bufio.NewScanner(rc)
	prev := ""
	n := 0
	for scanner.Scan() {
		var tw tweet
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &tw))
		require.True(t, prev <= tw.Date, "out of order at line %d: %s after %s", n+1, tw.Date, prev)
		require.NotEmpty(t, tw.User.Username)
		prev = tw.Date
		n++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 500, n)
}

package testkit_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

func echo(w http.ResponseWriter, r *http.Request) {
	var body any
	_ = json.NewDecoder(r.Body).Decode(&body)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"path":          r.URL.Path,
		"authorization": r.Header.Get("Authorization"),
		"body":          body,
	})
}

func TestRunDirExpandsVars(t *testing.T) {
	testkit.RunDir(t, http.HandlerFunc(echo), "testdata", testkit.Vars{
		"id":    "42",
		"name":  "Linen Shirt",
		"token": "abc",
	})
}

func TestLoadAllFromDirSkipsResponseFiles(t *testing.T) {
	scenarios, errs := testkit.LoadAllFromDir("testdata")
	require.Empty(t, errs)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "POST", scenarios[0].RequestMethod)
	assert.True(t, filepath.IsAbs(scenarios[0].ResponseBodyPath()))
}

func TestLoadScenarioValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"no url","expectedCode":200}`), 0o644))

	_, err := testkit.LoadScenario(path)
	assert.ErrorContains(t, err, "requestUrl is required")

	require.NoError(t, os.WriteFile(path, []byte(`{"name":"defaults","requestUrl":"/x","expectedCode":200}`), 0o644))
	s, err := testkit.LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "GET", s.RequestMethod)
	assert.Equal(t, "", s.ResponseBodyPath())
}

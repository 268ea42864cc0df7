// Package testkit runs JSON-described HTTP scenarios against a handler.
//
// Each scenario file describes one request and what must come back:
//
//	testdata/
//	  product_missing.json      ← scenario
//	  product_missing_res.json  ← expected response body (optional)
//
// Example _test.go:
//
//	func TestPublicAPI(t *testing.T) {
//	    testkit.RunDir(t, handler, "testdata", testkit.Vars{"token": token})
//	}
//
// "{{name}}" placeholders in the URL, headers and body are replaced from
// Vars before the request is sent.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Vars are the placeholder values substituted into scenarios.
type Vars map[string]string

// Scenario describes a single API request and its expected outcome.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod string            `json:"requestMethod"` // default GET
	RequestURL    string            `json:"requestUrl"`
	RequestBody   json.RawMessage   `json:"requestBody"`
	Headers       map[string]string `json:"headers"`

	ExpectedCode     int      `json:"expectedCode"`
	ResponseFileName string   `json:"responseFileName"` // exact JSON match, key order ignored
	ResponseContains []string `json:"responseContains"` // substrings of the raw body

	dir string
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	return nil
}

// ResponseBodyPath resolves ResponseFileName against the scenario's
// directory. It returns "" when no response file is set.
func (s *Scenario) ResponseBodyPath() string {
	if s.ResponseFileName == "" {
		return ""
	}
	if filepath.IsAbs(s.ResponseFileName) {
		return s.ResponseFileName
	}
	return filepath.Join(s.dir, s.ResponseFileName)
}

// LoadAllFromDir loads every scenario in dir. Response files (*_res.json)
// are skipped; files that fail to parse are returned as errors.
func LoadAllFromDir(dir string) ([]*Scenario, []error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(entries) == 0 {
		return nil, []error{fmt.Errorf("testkit: no scenario files found in %q", dir)}
	}

	var (
		scenarios []*Scenario
		errs      []error
	)
	for _, path := range entries {
		if strings.HasSuffix(path, "_res.json") {
			continue
		}
		s, err := LoadScenario(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, errs
}

// expand replaces every "{{name}}" in in with vars[name].
func (v Vars) expand(in string) string {
	for k, val := range v {
		in = strings.ReplaceAll(in, "{{"+k+"}}", val)
	}
	return in
}

// Package prompts maps named operations (discovery, classification,
// refinement, evaluation) to message templates and default call
// parameters. Templates are configuration data, not code: defaults ship
// embedded, an on-disk directory overrides them, and Reload picks up
// edits without a restart.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var embedded embed.FS

// Well-known template names.
const (
	CategoryDiscovery   = "category_discovery"
	ValueClassification = "value_classification"
	CategoryRefinement  = "category_refinement"
	JudgeEvaluation     = "judge_evaluation"
	SyntheticGeneration = "synthetic_generation"
)

// Params are the default call parameters a template carries.
type Params struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Prompt is a formatted prompt ready for the LLM gateway.
type Prompt struct {
	System string
	User   string
	Params Params
}

type templateFile struct {
	SystemRole   string `yaml:"system_role"`
	UserTemplate string `yaml:"user_template"`
	Parameters   Params `yaml:"parameters"`
}

type compiled struct {
	system string
	user   *template.Template
	params Params
}

// Store loads and formats named prompt templates.
type Store struct {
	dir string // optional on-disk override directory

	mu    sync.RWMutex
	cache map[string]*compiled
}

// NewStore creates a Store. dir, when non-empty, names a directory whose
// <name>.yaml files override the embedded defaults.
func NewStore(dir string) *Store {
	return &Store{dir: dir, cache: make(map[string]*compiled)}
}

// Format renders the named template with the given variables.
func (s *Store) Format(name string, vars map[string]any) (Prompt, error) {
	c, err := s.get(name)
	if err != nil {
		return Prompt{}, err
	}

	var buf bytes.Buffer
	if err := c.user.Execute(&buf, vars); err != nil {
		return Prompt{}, fmt.Errorf("render template %q: %w", name, err)
	}

	return Prompt{
		System: c.system,
		User:   buf.String(),
		Params: c.params,
	}, nil
}

// Params returns the default call parameters for the named template.
func (s *Store) Params(name string) (Params, error) {
	c, err := s.get(name)
	if err != nil {
		return Params{}, err
	}
	return c.params, nil
}

// Reload drops the template cache so the next Format re-reads from disk.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*compiled)
}

func (s *Store) get(name string) (*compiled, error) {
	s.mu.RLock()
	c, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	c, err := s.load(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[name] = c
	s.mu.Unlock()
	return c, nil
}

func (s *Store) load(name string) (*compiled, error) {
	data, err := s.read(name)
	if err != nil {
		return nil, err
	}

	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}

	user, err := template.New(name).Parse(tf.UserTemplate)
	if err != nil {
		return nil, fmt.Errorf("compile template %q: %w", name, err)
	}

	return &compiled{
		system: tf.SystemRole,
		user:   user,
		params: tf.Parameters,
	}, nil
}

// read prefers the override directory, falling back to the embedded copy.
func (s *Store) read(name string) ([]byte, error) {
	if s.dir != "" {
		path := filepath.Join(s.dir, name+".yaml")
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
	}

	data, err := embedded.ReadFile("templates/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown prompt template %q", name)
	}
	return data, nil
}

// Package taxonomy loads the subject catalogue uploads are validated against.
package taxonomy

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Subject describes one teachable subject and the grades it is offered in.
type Subject struct {
	Name      string   `yaml:"subject"`
	Standards []int    `yaml:"standards"`
	Topics    []string `yaml:"topics,omitempty"`
}

// Catalogue holds the subjects loaded from the filesystem.
type Catalogue struct {
	rootDir  string
	subjects map[string]Subject
	mu       sync.RWMutex
}

// Load reads all subject YAML files under rootDir.
func Load(rootDir string) (*Catalogue, error) {
	c := &Catalogue{
		rootDir:  rootDir,
		subjects: make(map[string]Subject),
	}

	if err := c.loadAll(); err != nil {
		return nil, fmt.Errorf("loading taxonomy: %w", err)
	}

	slog.Info("taxonomy loaded", "subjects", len(c.subjects))
	return c, nil
}

// Subject returns a subject by name, case-insensitively.
func (c *Catalogue) Subject(name string) (Subject, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.subjects[strings.ToLower(name)]
	return s, ok
}

// Subjects returns all loaded subjects.
func (c *Catalogue) Subjects() []Subject {
	c.mu.RLock()
	defer c.mu.RUnlock()
	subjects := make([]Subject, 0, len(c.subjects))
	for _, s := range c.subjects {
		subjects = append(subjects, s)
	}
	return subjects
}

// Validate checks that the subject exists and is offered for the standard.
func (c *Catalogue) Validate(subject string, standard int) error {
	s, ok := c.Subject(subject)
	if !ok {
		return fmt.Errorf("unknown subject %q", subject)
	}
	for _, std := range s.Standards {
		if std == standard {
			return nil
		}
	}
	return fmt.Errorf("subject %q is not offered for standard %d", subject, standard)
}

func (c *Catalogue) loadAll() error {
	return filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		return c.loadSubject(path)
	})
}

func (c *Catalogue) loadSubject(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var subject Subject
	if err := yaml.Unmarshal(data, &subject); err != nil {
		slog.Warn("skipping invalid subject YAML", "path", path, "error", err)
		return nil
	}

	if subject.Name == "" {
		return nil // Not a subject file
	}

	c.mu.Lock()
	c.subjects[strings.ToLower(subject.Name)] = subject
	c.mu.Unlock()

	return nil
}

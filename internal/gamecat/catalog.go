package gamecat

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"

	"github.com/karuha/puzzleboard-go/internal/domain"
	"github.com/karuha/puzzleboard-go/internal/puzzletime"
)

//go:embed games.yaml
var defaultFiles embed.FS

// Catalog holds the known Game configurations, loaded from the embedded
// defaults plus an optional override directory. Reset times are validated at
// load so a malformed "HH:MM" can never reach the puzzle-period resolver.
type Catalog struct {
	mu    sync.RWMutex
	games map[string]*domain.Game
}

type gameSpec struct {
	ID           string                    `yaml:"id"`
	DisplayName  string                    `yaml:"displayName"`
	ResetTime    string                    `yaml:"resetTime"`
	Asynchronous bool                      `yaml:"asynchronous"`
	Example      string                    `yaml:"example"`
	ScoreTypes   map[string]map[string]int `yaml:"scoreTypes"`
}

type catalogFile struct {
	Games []gameSpec `yaml:"games"`
}

// New loads the embedded default games and then applies overrides from dir if
// provided. Override files may add new games or replace defaults by id, but a
// game id may not appear in two override files.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{games: make(map[string]*domain.Game)}

	raw, err := fs.ReadFile(defaultFiles, "games.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded games: %w", err)
	}
	if err := c.applyYAML(raw, "games.yaml"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read games dir: %w", err)
	}
	// Sort for deterministic order
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	seen := make(map[string]string) // game id -> filename
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(b, &f); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for _, spec := range f.Games {
			id := strings.ToLower(strings.TrimSpace(spec.ID))
			if prev, ok := seen[id]; ok {
				return fmt.Errorf("duplicate game %q in %s and %s", spec.ID, prev, name)
			}
			seen[id] = name
		}
		if err := c.applyYAML(b, name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) applyYAML(b []byte, source string) error {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse %s: %w", source, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, spec := range f.Games {
		g, err := spec.toGame()
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		c.games[g.ID] = g // override
	}
	return nil
}

func (s gameSpec) toGame() (*domain.Game, error) {
	// ids are stored lowercase so lookups stay case-insensitive no matter
	// how an override file spells them.
	id := strings.ToLower(strings.TrimSpace(s.ID))
	if id == "" {
		return nil, fmt.Errorf("game with empty id")
	}
	if _, _, err := puzzletime.ParseResetTime(s.ResetTime); err != nil {
		return nil, fmt.Errorf("game %q: %w", id, err)
	}
	display := strings.TrimSpace(s.DisplayName)
	if display == "" {
		display = id
	}
	return &domain.Game{
		ID:             id,
		DisplayName:    display,
		ResetTime:      s.ResetTime,
		IsAsynchronous: s.Asynchronous,
		ScoreTypes:     s.ScoreTypes,
		ExampleShare:   s.Example,
	}, nil
}

// Get returns the game config for an id, or nil when unknown.
func (c *Catalog) Get(id string) *domain.Game {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.games[strings.TrimSpace(strings.ToLower(id))]
}

// All returns every known game, sorted by id.
func (c *Catalog) All() []*domain.Game {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Game, 0, len(c.games))
	for _, g := range c.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

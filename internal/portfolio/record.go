// Package portfolio holds the site owner's profile: the read-only record
// rendered into every page and served from /api/portfolio.
package portfolio

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var defaultData []byte

type Record struct {
	Name     string `json:"name" yaml:"name"`
	Title    string `json:"title" yaml:"title"`
	Email    string `json:"email" yaml:"email"`
	Phone    string `json:"phone" yaml:"phone"`
	Location string `json:"location" yaml:"location"`
	GitHub   string `json:"github" yaml:"github"`
	LinkedIn string `json:"linkedin" yaml:"linkedin"`
	About    string `json:"about" yaml:"about"`

	Skills       Skills       `json:"skills" yaml:"skills"`
	Experience   []Experience `json:"experience" yaml:"experience"`
	Projects     []Project    `json:"projects" yaml:"projects"`
	Achievements []string     `json:"achievements" yaml:"achievements"`
	Education    Education    `json:"education" yaml:"education"`
}

// Skills keeps its categories as fields so the JSON dump preserves their order.
type Skills struct {
	DevSecOps   []string `json:"devsecops" yaml:"devsecops"`
	Security    []string `json:"security" yaml:"security"`
	Development []string `json:"development" yaml:"development"`
	Databases   []string `json:"databases" yaml:"databases"`
	Tools       []string `json:"tools" yaml:"tools"`
}

type SkillCategory struct {
	Key   string
	Label string
	Items []string
}

// Categories lists the skill groups in display order.
func (s Skills) Categories() []SkillCategory {
	return []SkillCategory{
		{Key: "devsecops", Label: "DevSecOps", Items: s.DevSecOps},
		{Key: "security", Label: "Security", Items: s.Security},
		{Key: "development", Label: "Development", Items: s.Development},
		{Key: "databases", Label: "Databases", Items: s.Databases},
		{Key: "tools", Label: "Tools", Items: s.Tools},
	}
}

type Experience struct {
	Title       string `json:"title" yaml:"title"`
	Company     string `json:"company" yaml:"company"`
	Period      string `json:"period" yaml:"period"`
	Location    string `json:"location" yaml:"location"`
	Description string `json:"description" yaml:"description"`
}

type Project struct {
	Title       string   `json:"title" yaml:"title"`
	Tech        []string `json:"tech" yaml:"tech"`
	Period      string   `json:"period" yaml:"period"`
	Description string   `json:"description" yaml:"description"`
	Type        string   `json:"type" yaml:"type"`
}

type Education struct {
	Degree     string `json:"degree" yaml:"degree"`
	University string `json:"university" yaml:"university"`
	Period     string `json:"period" yaml:"period"`
	Location   string `json:"location" yaml:"location"`
}

// ProjectsOfType filters projects by their type ("security", "development").
func (r Record) ProjectsOfType(kind string) []Project {
	var out []Project
	for _, p := range r.Projects {
		if p.Type == kind {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy, so callers can never alias the shared record.
func (r Record) Clone() Record {
	c := r
	c.Skills = Skills{
		DevSecOps:   slices.Clone(r.Skills.DevSecOps),
		Security:    slices.Clone(r.Skills.Security),
		Development: slices.Clone(r.Skills.Development),
		Databases:   slices.Clone(r.Skills.Databases),
		Tools:       slices.Clone(r.Skills.Tools),
	}
	c.Experience = slices.Clone(r.Experience)
	c.Projects = make([]Project, len(r.Projects))
	for i, p := range r.Projects {
		p.Tech = slices.Clone(p.Tech)
		c.Projects[i] = p
	}
	c.Achievements = slices.Clone(r.Achievements)
	return c
}

// Decode parses a YAML portfolio document. Unknown keys are rejected.
func Decode(r io.Reader) (Record, error) {
	var rec Record
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode portfolio: %w", err)
	}
	if rec.Name == "" || rec.Email == "" {
		return Record{}, fmt.Errorf("decode portfolio: name and email are required")
	}
	return rec, nil
}

var (
	loadOnce sync.Once
	loaded   Record
	loadErr  error
)

// Default returns a copy of the embedded record, parsed once per process.
func Default() (Record, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Decode(bytes.NewReader(defaultData))
	})
	if loadErr != nil {
		return Record{}, loadErr
	}
	return loaded.Clone(), nil
}

// MustDefault is Default for program start-up, where a broken embed is fatal.
func MustDefault() Record {
	rec, err := Default()
	if err != nil {
		panic(err)
	}
	return rec
}

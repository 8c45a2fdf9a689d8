// Package roles defines the specialist roles that participate in
// discussions. Roles are immutable values: a registry is populated once at
// process start from the builtin set plus an optional directory of
// YAML-defined roles, and never mutated during a discussion.
package roles

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// Role describes one discussion participant archetype. The prompt template
// is rendered by the discussion engine with the topic and prior-round
// context before each service call.
type Role struct {
	Name           string `yaml:"name"`
	Label          string `yaml:"label"`
	Specialty      string `yaml:"specialty"`
	PromptTemplate string `yaml:"prompt"`
}

// Validate checks that the role is well-formed.
func (r Role) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("role: name is required")
	}
	if strings.TrimSpace(r.PromptTemplate) == "" {
		return fmt.Errorf("role %q: prompt template is required", r.Name)
	}
	return nil
}

// normalized returns a copy with a lowercase, trimmed name.
func (r Role) normalized() Role {
	r.Name = strings.ToLower(strings.TrimSpace(r.Name))
	r.Specialty = strings.ToLower(strings.TrimSpace(r.Specialty))
	return r
}

// Registry holds the known roles. It is safe for concurrent reads; writes
// happen only during startup loading.
type Registry struct {
	mu    sync.RWMutex
	roles map[string]Role
	order []string
}

// NewRegistry creates a registry seeded with the builtin roles.
func NewRegistry() *Registry {
	reg := &Registry{roles: make(map[string]Role)}
	for _, r := range Builtin() {
		// Builtin roles are statically valid.
		_ = reg.Register(r)
	}
	return reg
}

// Register adds a role. Registering a name twice is an error; replacing a
// builtin is done by removing customization to the YAML directory instead.
func (reg *Registry) Register(r Role) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r = r.normalized()

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.roles[r.Name]; exists {
		return fmt.Errorf("role %q already registered", r.Name)
	}
	reg.roles[r.Name] = r
	reg.order = append(reg.order, r.Name)
	return nil
}

// Get returns a role by name.
func (reg *Registry) Get(name string) (Role, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.roles[strings.ToLower(name)]
	return r, ok
}

// All returns every role in registration order.
func (reg *Registry) All() []Role {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]Role, 0, len(reg.order))
	for _, name := range reg.order {
		out = append(out, reg.roles[name])
	}
	return out
}

// Match returns the roles whose name or specialty matches the glob
// pattern, in registration order. An empty pattern matches everything.
func (reg *Registry) Match(pattern string) ([]Role, error) {
	if strings.TrimSpace(pattern) == "" {
		return reg.All(), nil
	}

	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid role pattern %q: %w", pattern, err)
	}

	var out []Role
	for _, r := range reg.All() {
		if g.Match(r.Name) || g.Match(r.Specialty) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Names returns the sorted role names, for display.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.roles))
	for name := range reg.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns the default creative-roundtable roles.
func Builtin() []Role {
	return []Role{
		{
			Name:      "director",
			Label:     "🎬",
			Specialty: "narrative",
			PromptTemplate: "You are the creative director. Judge whether the proposed direction for " +
				"{{.Subject}} tells a coherent story within {{.Constraints}}. Prior discussion:\n{{.History}}\n" +
				"State AGREE or DISAGREE with one sentence of reasoning.",
		},
		{
			Name:      "copywriter",
			Label:     "✍️",
			Specialty: "copy",
			PromptTemplate: "You are the copywriter. Judge whether the language and hooks proposed for " +
				"{{.Subject}} will land with the audience. Prior discussion:\n{{.History}}\n" +
				"State AGREE or DISAGREE with one sentence of reasoning.",
		},
		{
			Name:      "designer",
			Label:     "🎨",
			Specialty: "visual",
			PromptTemplate: "You are the visual designer. Judge whether the visual treatment proposed for " +
				"{{.Subject}} is achievable and on-brand within {{.Constraints}}. Prior discussion:\n{{.History}}\n" +
				"State AGREE or DISAGREE with one sentence of reasoning.",
		},
		{
			Name:      "advocate",
			Label:     "🎯",
			Specialty: "audience",
			PromptTemplate: "You are the audience advocate. Judge whether {{.Subject}} respects what the " +
				"target viewer actually cares about. Prior discussion:\n{{.History}}\n" +
				"State AGREE or DISAGREE with one sentence of reasoning.",
		},
		{
			Name:      "producer",
			Label:     "💰",
			Specialty: "budget",
			PromptTemplate: "You are the producer. Judge whether {{.Subject}} can be delivered within " +
				"{{.Constraints}}. Prior discussion:\n{{.History}}\n" +
				"State AGREE or DISAGREE with one sentence of reasoning.",
		},
	}
}

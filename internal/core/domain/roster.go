package domain

import "strings"

// Roster maps canonical league member names to their known aliases
// and nicknames. It is the single place nickname variants resolve to
// canonical names. Loaded once at process start; immutable during a run.
type Roster struct {
	// canonical maps lower-cased alias -> canonical name.
	canonical map[string]string

	// members are the canonical names in declaration order.
	members []string

	// teams are known team names.
	teams []string
}

// NewRoster builds a roster from canonical name -> aliases, plus known
// team names. Each canonical name is also an alias for itself.
// Returns ErrRosterInvalid when two canonical names claim one alias.
func NewRoster(aliases map[string][]string, teams []string) (*Roster, error) {
	r := &Roster{
		canonical: make(map[string]string),
		teams:     teams,
	}
	for name, list := range aliases {
		if name == "" {
			return nil, ErrRosterInvalid
		}
		r.members = append(r.members, name)
		for _, alias := range append([]string{name}, list...) {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				return nil, ErrRosterInvalid
			}
			if existing, ok := r.canonical[key]; ok && existing != name {
				return nil, ErrRosterInvalid
			}
			r.canonical[key] = name
		}
	}
	return r, nil
}

// Resolve maps an alias or nickname to its canonical name.
// The second return is false when the name is not on the roster.
func (r *Roster) Resolve(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	canonical, ok := r.canonical[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// Members returns the canonical names.
func (r *Roster) Members() []string {
	if r == nil {
		return nil
	}
	return r.members
}

// Teams returns the known team names.
func (r *Roster) Teams() []string {
	if r == nil {
		return nil
	}
	return r.teams
}

// Aliases returns every known alias (lower-cased), useful for scanning.
func (r *Roster) Aliases() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.canonical))
	for alias := range r.canonical {
		out = append(out, alias)
	}
	return out
}

package aspace

// Linked agent roles
const (
	RoleCreator = "creator"
	RoleSource  = "source"
	RoleSubject = "subject"
)

var agentKinds = map[string]string{
	"agent_person":           "personal",
	"agent_corporate_entity": "corporate",
	"agent_family":           "family",
}

// Agent is a resolved agent record along with the role it was linked with
type Agent struct {
	Role    string `json:"role"`
	Relator string `json:"relator,omitempty"`
	Data    Record `json:"data"`
}

// Kind is the MODS name type for the agent: personal, corporate or family
func (a Agent) Kind() string {
	return a.Data.String("jsonmodel_type")
}

// Name is the sort name of the agent
func (a Agent) Name() string {
	if dn, ok := a.Data.Object("display_name"); ok {
		if name := dn.String("sort_name"); name != "" {
			return name
		}
	}
	if name := a.Data.String("title"); name != "" {
		return name
	}
	return a.Data.String("display_string")
}

// AuthorityID returns the display name authority id, if any
func (a Agent) AuthorityID() string {
	if dn, ok := a.Data.Object("display_name"); ok {
		return dn.String("authority_id")
	}
	return ""
}

// AgentsByRole holds classified agents. Donors are agents linked with the source role.
type AgentsByRole struct {
	Creators []Agent `json:"creators"`
	Donors   []Agent `json:"donors"`
	Subjects []Agent `json:"subjects"`
}

// All returns every classified agent: creators, donors then subjects
func (a AgentsByRole) All() []Agent {
	out := make([]Agent, 0, len(a.Creators)+len(a.Donors)+len(a.Subjects))
	out = append(out, a.Creators...)
	out = append(out, a.Donors...)
	return append(out, a.Subjects...)
}

// ClassifyAgents pairs each linked agent reference with its resolved record (matched by
// uri) and sorts the result into role buckets. Agent kinds are rewritten to MODS name
// types. Only agents linked as subjects get their authority ids normalized. Each bucket
// is deduplicated in order of first appearance.
func ClassifyAgents(refs []Ref, resolved []Record) AgentsByRole {
	byURI := make(map[string]Record, len(resolved))
	for _, rec := range resolved {
		if _, exists := byURI[rec.URI()]; !exists {
			byURI[rec.URI()] = rec
		}
	}

	out := AgentsByRole{Creators: make([]Agent, 0), Donors: make([]Agent, 0), Subjects: make([]Agent, 0)}
	for _, ref := range refs {
		rec, ok := byURI[ref.URI]
		if !ok {
			continue
		}
		agent := Agent{Role: ref.Role, Relator: ref.Relator, Data: rec.Clone()}
		if kind, ok := agentKinds[agent.Kind()]; ok {
			agent.Data["jsonmodel_type"] = kind
		}

		switch ref.Role {
		case RoleCreator:
			out.Creators = append(out.Creators, agent)
		case RoleSource:
			out.Donors = append(out.Donors, agent)
		case RoleSubject:
			normalizeAgentAuthority(agent.Data)
			out.Subjects = append(out.Subjects, agent)
		}
	}

	out.Creators = Dedup(out.Creators)
	out.Donors = Dedup(out.Donors)
	out.Subjects = Dedup(out.Subjects)
	return out
}

// ExcludeRole drops all agents linked with role
func ExcludeRole(agents []Agent, role string) []Agent {
	out := make([]Agent, 0, len(agents))
	for _, a := range agents {
		if a.Role != role {
			out = append(out, a)
		}
	}
	return out
}

func normalizeAgentAuthority(data Record) {
	dn, ok := data.Object("display_name")
	if !ok || !dn.Has("authority_id") {
		return
	}
	dn["authority_id"] = NormalizeAuthorityID(dn.String("source"), dn.String("authority_id"))
	data["display_name"] = dn
}

// NormalizeSubjects returns copies of the subject records with authority ids rewritten
// to linked data URIs according to each subject's source
func NormalizeSubjects(subjects []Record) []Record {
	out := make([]Record, 0, len(subjects))
	for _, sub := range subjects {
		cp := sub.Clone()
		if cp.Has("authority_id") {
			cp["authority_id"] = NormalizeAuthorityID(cp.String("source"), cp.String("authority_id"))
		}
		out = append(out, cp)
	}
	return out
}

// TermType returns the term type of a subject, read from its first term when present
func TermType(subject Record) string {
	if terms := subject.Objects("terms"); len(terms) > 0 {
		if tt := terms[0].String("term_type"); tt != "" {
			return tt
		}
	}
	return subject.String("term_type")
}

// SplitGenre separates genre_form subjects from all others
func SplitGenre(subjects []Record) (genre []Record, other []Record) {
	genre = make([]Record, 0)
	other = make([]Record, 0)
	for _, sub := range subjects {
		if TermType(sub) == "genre_form" {
			genre = append(genre, sub)
		} else {
			other = append(other, sub)
		}
	}
	return genre, other
}

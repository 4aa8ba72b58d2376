package fk

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// Formatter renders a sample row of a referenced table. id is the value of
// the referenced column. Returning "" defers to the generic fallback.
type Formatter func(row schema.Row, id any) string

// DefaultTemplates are the curated label rules for well-known tables of the
// broker CRM. Placeholders name row fields; {id} falls back to the
// referenced column's value when the row has no id field.
var DefaultTemplates = map[string]string{
	"clients":      "{prenom} {nom} ({id})",
	"contacts":     "{prenom} {nom} ({id})",
	"utilisateurs": "{prenom} {nom} ({id})",
	"users":        "{firstName} {lastName} ({id})",
	"personnes":    "{prenom} {nom} ({id})",
	"societes":     "{raisonSociale} ({siren})",
	"compagnies":   "{nom} ({code})",
	"agences":      "{code} - {nom}",
	"produits":     "{code} - {type}",
	"branches":     "{code} - {libelle}",
	"garanties":    "{code} - {libelle}",
	"type_contrat": "{code} - {type}",
	"statuts":      "{code} - {libelle}",
	"vehicules":    "{marque} {modele} - {immatriculation}",
	"contrats":     "{numero} ({id})",
}

// GenericFields is the priority list scanned when no curated rule exists.
var GenericFields = []string{
	"name", "firstName", "label", "description", "code", "legalName", "brand", "model",
	"nom", "prenom", "raisonSociale", "libelle", "intitule", "titre", "numero", "reference", "email",
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_.$-]+)\}`)

// Registry maps referenced table names to label formatters. Lookups are
// case-insensitive.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Formatter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Formatter)}
}

// DefaultRegistry returns a registry loaded with DefaultTemplates.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for table, tmpl := range DefaultTemplates {
		r.RegisterTemplate(table, tmpl)
	}
	return r
}

// Register installs a code rule for table, replacing any existing one.
func (r *Registry) Register(table string, f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[strings.ToLower(table)] = f
}

// RegisterTemplate installs a template rule such as "{code} - {type}".
func (r *Registry) RegisterTemplate(table, tmpl string) {
	r.Register(table, Template(tmpl))
}

// Lookup returns the formatter for table.
func (r *Registry) Lookup(table string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.rules[strings.ToLower(table)]
	return f, ok
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Format labels row, a sample row of refTable whose refColumn holds the
// key. It is a pure function of its arguments and the registry contents.
func (r *Registry) Format(refTable, refColumn string, row schema.Row) string {
	id := row[refColumn]
	if f, ok := r.Lookup(refTable); ok {
		if s := f(row, id); s != "" {
			return s
		}
	}
	return Generic(refTable, row, id)
}

// Generic is the fallback label: the first non-empty priority field as
// "{value} (ID: {id})", else "{Table} {id}".
func Generic(refTable string, row schema.Row, id any) string {
	for _, f := range GenericFields {
		if v, ok := field(row, f); ok && !schema.IsEmptyValue(v) {
			return strings.TrimSpace(schema.FormatValue(v)) + " (ID: " + schema.FormatValue(id) + ")"
		}
	}
	return capitalize(refTable) + " " + schema.FormatValue(id)
}

// Template compiles a "{field}" template into a Formatter. When every
// non-id placeholder is empty the formatter returns "".
func Template(tmpl string) Formatter {
	return func(row schema.Row, id any) string {
		filled := false
		out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
			name := m[1 : len(m)-1]
			v, ok := field(row, name)
			if !ok && name == "id" {
				v = id
			}
			s := strings.TrimSpace(schema.FormatValue(v))
			if s != "" && name != "id" {
				filled = true
			}
			return s
		})
		if !filled {
			return ""
		}
		return tidy(out)
	}
}

// field looks name up exactly, then case-insensitively.
func field(row schema.Row, name string) (any, bool) {
	if v, ok := row[name]; ok {
		return v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

var (
	emptyParensRe = regexp.MustCompile(`\(\s*\)`)
	spacesRe      = regexp.MustCompile(`\s+`)
)

// tidy removes the debris left by empty placeholders.
func tidy(s string) string {
	s = emptyParensRe.ReplaceAllString(s, "")
	s = spacesRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "-,:")
	return strings.TrimSpace(s)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

package server

import (
	"strings"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

var (
	referencePrefixes     = []string{"ref_", "type_", "types_"}
	referenceSuffixes     = []string{"_types", "_type", "_statuts", "_ref"}
	transactionalSuffixes = []string{"_log", "_logs", "_history", "_historique", "_journal"}
	transactionalNames    = []string{"mouvements", "sinistres", "paiements", "quittances", "reglements"}
	masterNames           = []string{"clients", "societes", "contacts", "compagnies", "agences", "produits", "contrats", "utilisateurs", "users"}
)

// Classify returns the configured classification of table, or guesses one
// from its name.
func Classify(table string, configured map[string]string) schema.Classification {
	if c, ok := configured[table]; ok {
		return schema.ParseClassification(c)
	}
	t := strings.ToLower(table)
	for _, p := range referencePrefixes {
		if strings.HasPrefix(t, p) {
			return schema.ClassReference
		}
	}
	for _, s := range referenceSuffixes {
		if strings.HasSuffix(t, s) {
			return schema.ClassReference
		}
	}
	for _, s := range transactionalSuffixes {
		if strings.HasSuffix(t, s) {
			return schema.ClassTransactional
		}
	}
	for _, n := range transactionalNames {
		if t == n {
			return schema.ClassTransactional
		}
	}
	for _, n := range masterNames {
		if t == n {
			return schema.ClassMaster
		}
	}
	return schema.ClassOther
}

// Package namespace validates and derives tenant namespace names.
//
// Namespace names are interpolated into DDL statements and SET search_path
// commands; they cannot be bound as query parameters. ValidateName is the
// sole injection barrier and must run before every statement that embeds a
// namespace name.
package namespace

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tendant/tenant-lifecycle/pkg/domain"
)

// Prefix is prepended to every derived namespace name.
const Prefix = "tenant_"

// MaxLength matches the Postgres identifier limit.
const MaxLength = 63

var namePattern = regexp.MustCompile(`^tenant_[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

// Substrings that must never appear in a namespace name, regardless of
// grammar. pg_ and information_schema guard reserved catalog namespaces;
// the rest are statement terminators and comment sequences.
var forbiddenSubstrings = []string{
	"pg_",
	"information_schema",
	"public",
	";",
	"--",
	"/*",
	"*/",
}

// ValidateName checks that name is a safe tenant namespace identifier.
// Returns an error wrapping domain.ErrInvalidIdentifier on failure.
func ValidateName(name string) error {
	if len(name) > MaxLength {
		return fmt.Errorf("%w: %q exceeds %d characters", domain.ErrInvalidIdentifier, name, MaxLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q does not match the identifier grammar", domain.ErrInvalidIdentifier, name)
	}
	for _, s := range forbiddenSubstrings {
		if strings.Contains(name, s) {
			return fmt.Errorf("%w: %q contains forbidden substring %q", domain.ErrInvalidIdentifier, name, s)
		}
	}
	return nil
}

// Derive computes the namespace name for a public slug. Hyphens are
// normalized to underscores, so "acme-corp" and "acme_corp" derive the
// same namespace; the creation path must reject such collisions up front.
func Derive(slug string) string {
	return Prefix + NormalizeSlug(slug)
}

// NormalizeSlug returns the form of a slug used for uniqueness
// comparison: lowercased with hyphens collapsed to underscores.
func NormalizeSlug(slug string) string {
	return strings.ReplaceAll(strings.ToLower(slug), "-", "_")
}

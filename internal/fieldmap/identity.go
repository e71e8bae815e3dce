package fieldmap

import (
	"net/mail"
	"strings"

	"golang.org/x/text/cases"
)

const DocumentSuffix = "_SF95.pdf"

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail accepts a bare address only, not "Name <addr>".
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".")
}

// Slug lower-cases the email and collapses every run of characters outside
// [a-z0-9] into a single dash.
func Slug(email string) string {
	var b strings.Builder
	dash := false
	for _, r := range NormalizeEmail(email) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// DocumentFilename is the stable external reference for a claim.
func DocumentFilename(email string) string {
	slug := Slug(email)
	if slug == "" {
		return ""
	}
	return slug + DocumentSuffix
}

// NamesMatch compares a typed signature against the claimant name,
// ignoring case and surrounding or repeated whitespace.
func NamesMatch(signature, name string) bool {
	a := strings.Join(strings.Fields(signature), " ")
	b := strings.Join(strings.Fields(name), " ")
	if a == "" || b == "" {
		return false
	}

	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

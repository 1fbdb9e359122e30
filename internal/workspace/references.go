package workspace

import "github.com/temirov/manifold/internal/manifest"

// ResolveReference returns the reference a pinned repository must be checked out to.
// A tag wins over a fixed revision; the branch is never returned. The boolean is false
// for repositories that float on their branch.
func ResolveReference(repository manifest.Repository) (string, bool) {
	if len(repository.Tag) > 0 {
		return repository.Tag, true
	}
	if len(repository.Revision) > 0 {
		return repository.Revision, true
	}
	return "", false
}

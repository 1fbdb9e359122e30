// Package workspace brings the repositories of a manifold workspace into the state their manifest declares.
//
// It owns the persisted workspace configuration, the local clone of the manifest repository,
// and the four batch operations run over the selected repositories: cloning missing ones,
// reconciling origin remotes, synchronizing, and copying files.
package workspace

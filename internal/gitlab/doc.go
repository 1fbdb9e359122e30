// Package gitlab is a small client for the GitLab REST v4 API covering the
// merge request workflow of manifold push-gitlab.
//
// Requests are throttled through a token bucket limiter and authenticated with a
// private token header.
package gitlab

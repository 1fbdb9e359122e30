// Package credentials locates hosting service tokens in configuration and the environment.
package credentials

// Package installer implements the install, update, uninstall and
// register-root hooks. Each hook runs its delegate step first and only then
// mutates the plugin registry; when the registry step fails the delegate's
// side effect is reversed by a compensating action.
package installer

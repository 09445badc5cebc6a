// Package registry holds the plugin registry and persists it as a generated
// HCL file that the host loads at runtime. Absolute paths are written as
// interpolations of the file's vendor_dir and root_dir variables so the file
// stays valid when the project moves.
package registry

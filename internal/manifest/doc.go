// Package manifest handles parsing and validation of package manifests as
// supplied by the host dependency manager. A manifest is a composer-style
// document (JSON or YAML) carrying the package name, version, authors, PSR-4
// autoload paths, and an "extra" block with plugin metadata.
package manifest

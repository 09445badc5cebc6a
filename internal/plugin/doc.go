// Package plugin builds normalized plugin descriptors from package manifests.
package plugin

// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/yggdrasil/pkg/archive"
	"github.com/ssargent/yggdrasil/pkg/index"
)

// RegistryFactory opens the tree registry for a data directory.
type RegistryFactory func(dir string, order int) (*index.Registry, error)

// ArchiveFactory opens the snapshot archive at a path.
type ArchiveFactory func(path string) (*archive.Archive, error)

// Container holds all the dependencies for the application
type Container struct {
	registryFactory RegistryFactory
	archiveFactory  ArchiveFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		registryFactory: index.NewRegistry,
		archiveFactory:  archive.Open,
	}
}

// OpenRegistry opens the tree registry through the configured factory
func (c *Container) OpenRegistry(dir string, order int) (*index.Registry, error) {
	return c.registryFactory(dir, order)
}

// OpenArchive opens the snapshot archive through the configured factory
func (c *Container) OpenArchive(path string) (*archive.Archive, error) {
	return c.archiveFactory(path)
}

// SetRegistryFactory allows overriding the registry factory (for testing)
func (c *Container) SetRegistryFactory(factory RegistryFactory) {
	c.registryFactory = factory
}

// SetArchiveFactory allows overriding the archive factory (for testing)
func (c *Container) SetArchiveFactory(factory ArchiveFactory) {
	c.archiveFactory = factory
}

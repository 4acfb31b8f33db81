package model

import "ColdVault/internal/apperr"

// StorageLocation is the physical address of a file's bytes: the owning
// provider name plus a provider-opaque path. It is never mutated in place,
// only replaced as a whole.
type StorageLocation struct {
	Provider string `gorm:"column:provider;type:varchar(64)"`
	Path     string `gorm:"column:path;type:varchar(512)"`
}

// NewStorageLocation validates both halves of the address.
func NewStorageLocation(provider, path string) (StorageLocation, error) {
	if provider == "" {
		return StorageLocation{}, apperr.New(apperr.InvalidArgument, "storage location missing provider")
	}
	if path == "" {
		return StorageLocation{}, apperr.New(apperr.InvalidArgument, "storage location missing path")
	}
	return StorageLocation{Provider: provider, Path: path}, nil
}

// IsZero reports whether no location has been assigned.
func (l StorageLocation) IsZero() bool {
	return l.Provider == "" && l.Path == ""
}

// Package models contains GORM persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns; repositories convert between the two with ToDomain and
// the *FromDomain constructors.
//
// Column names follow the legacy SIAC naming (sq_guarda, cd_produto, ...).
package models

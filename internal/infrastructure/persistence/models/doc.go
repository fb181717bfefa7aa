// Package models contains the GORM persistence models backing the
// development server's job store. Domain types stay free of ORM tags;
// each model converts to and from its domain entity.
package models

// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories and DDL bootstrappers with the storage package.
//
// Importing this package makes the following storage kinds available:
//
//   - "postgres" (salesclean/internal/storage/postgres)
//   - "sqlite"   (salesclean/internal/storage/sqlite)
//   - "csvfile"  (salesclean/internal/storage/csvfile)
//
// A binary that wants only a subset of backends can blank-import the
// individual backend packages instead.
package all

import (
	_ "salesclean/internal/storage/csvfile"
	_ "salesclean/internal/storage/postgres"
	_ "salesclean/internal/storage/sqlite"
)

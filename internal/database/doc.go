// Package database manages the local SQLite store. Each tracked symbol gets
// its own table with a fixed 18-column schema; one row is appended per symbol
// per successful API call. The daemon is the only writer, so no write
// coordination is needed beyond what SQLite itself provides.
package database

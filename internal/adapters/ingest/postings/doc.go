// Package postings streams raw job-posting lines out of a gzip-compressed
// JSON-lines file or URL. It never holds more than one line in memory and
// leaves decoding of the JSON itself to the caller
package postings

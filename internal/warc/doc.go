// Package warc reads captured pages out of WARC archives.
//
// Only the subset of WARC 1.0/1.1 needed for auditing is handled: records
// are framed by their version line, named fields and Content-Length, and
// only "response" and "resource" records with a WARC-Target-URI are
// yielded. Response blocks of type application/http are parsed with
// net/http so that the record payload is the HTTP body and the declared
// content type is the one the server sent. Archives compressed with gzip,
// per record or as a whole, are decompressed transparently.
//
// Reader reads one archive; MultiSource chains several archives into a
// single model.RecordSource.
package warc

// Package normalize turns raw captured payloads into analyzable text.
//
// Decoding follows the usual browser rules via golang.org/x/net/html/charset:
// a charset parameter in the declared content type wins, then a byte order
// mark, then an HTML <meta> declaration, and finally a guess. Bytes that do
// not decode become U+FFFD. HTML documents are parsed with
// golang.org/x/net/html and reduced to their visible text, one block
// element per line. Scripts, styles and the document head are dropped.
//
// Payloads whose content type is not textual are rejected with ErrNotText
// so that the caller can count and skip them.
package normalize

// Package pipeline implements the content stages of document assembly:
//   - dedenting of raw block text
//   - Markdown to HTML fragment conversion via goldmark
//   - HTML fragment parsing into detached DOM nodes (golang.org/x/net/html)
//   - rewriting of relative resource paths to absolute file:// URLs
//
// Conversion of the assembled document to PDF or images is handled by the
// root blockdoc package, which drives external renderer processes. Keeping
// this package free of process and filesystem side effects makes every stage
// a pure function of its input.
package pipeline

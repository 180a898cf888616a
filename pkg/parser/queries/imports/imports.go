// Package imports holds the module-boundary queries. Statement internals
// (specifiers, export clauses) are read by walking the captured node.
package imports

// Queries matches ES module import and export statements. It compiles against
// the JavaScript, TypeScript and TSX grammars alike.
const Queries = `
(import_statement
  source: (string) @import.source) @import.statement

(export_statement) @export.statement
`

// Package symbols holds the declaration queries.
//
// Each pattern captures the declared name as @<kind>.name and the whole
// declaration as @<kind>.declaration. The kind prefix becomes the symbol kind.
package symbols

// shared patterns; class names are identifiers in JavaScript and
// type_identifiers in TypeScript, hence the wildcard.
const common = `
(class_declaration
  name: (_) @class.name) @class.declaration

(function_declaration
  name: (identifier) @function.name) @function.declaration

(generator_function_declaration
  name: (identifier) @function.name) @function.declaration

(variable_declarator
  name: (identifier) @variable.name) @variable.declaration
`

// JSQueries matches JavaScript declarations.
const JSQueries = common

// TSQueries adds the TypeScript-only declaration forms.
const TSQueries = common + `
(abstract_class_declaration
  name: (type_identifier) @class.name) @class.declaration

(interface_declaration
  name: (type_identifier) @interface.name) @interface.declaration

(type_alias_declaration
  name: (type_identifier) @type.name) @type.declaration

(enum_declaration
  name: (identifier) @enum.name) @enum.declaration
`

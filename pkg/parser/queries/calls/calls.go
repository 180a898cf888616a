// Package calls holds the call-site query.
package calls

// Queries matches calls whose callee is a plain identifier (foo()) or a
// member expression (obj.foo(), obj?.foo()). @call.name is the identifier or
// the property name. Tagged templates and dynamic import() are not matched.
const Queries = `
(call_expression
  function: (identifier) @call.name
  arguments: (arguments) @call.arguments) @call.expression

(call_expression
  function: (member_expression
    property: (property_identifier) @call.name)
  arguments: (arguments) @call.arguments) @call.expression
`

// Package document turns a markdown note into the body of a Ghost post.
//
// A note is an optional frontmatter block followed by a single "# Title"
// heading and the post body. The body is cleaned of note-space constructs
// (wiki links, inline attributes, command buttons) and wrapped whole in one
// markdown card of a Lexical or Mobiledoc envelope, so Ghost renders the
// markdown source as written.
package document

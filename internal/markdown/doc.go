// Package markdown turns content files into renderable documents: it parses
// TOML, YAML, or JSON front matter, converts Markdown bodies to HTML with
// goldmark, and discovers files under the content directory in deterministic
// order.
package markdown

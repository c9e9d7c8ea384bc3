// Package pipeline builds the HTML documents that are loaded into the
// browser and captured.
//
// Markdown sources go through Preprocess (line endings, front matter,
// ==highlight== markers), GoldmarkConverter and Document, which places
// the rendered fragment inside the element that will be captured.
// Certificates are rendered from an HTML template by CertificateRenderer.
// RewriteRelativePaths and InjectCSS finish a document before it is
// written to disk for the browser.
package pipeline

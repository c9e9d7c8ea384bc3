// Package assets provides CSS styles and HTML templates for document sources.
//
// # Loaders
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in cv and certificate assets (go:embed)
//	    ├── FilesystemLoader  - assets from a directory on disk
//	    └── AssetResolver     - custom directory first, embedded fallback
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	└── templates/
//	    └── {name}.html
//
// Asset names are validated before any file access. FilesystemLoader also
// resolves symlinks and refuses paths that leave basePath.
package assets

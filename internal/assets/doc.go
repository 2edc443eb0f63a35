// Package assets provides the stylesheets and running header/footer templates
// used when rendering block documents.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// EmbeddedLoader provides the built-in styles (default, compact) and
// template sets (default, minimal) embedded at compile time.
//
// FilesystemLoader lets users provide custom assets from a directory, with
// path traversal protection and symlink resolution.
//
// AssetResolver is the loader used by documents and the CLI. It tries the
// custom FilesystemLoader first and falls back to EmbeddedLoader when the
// asset is not found, so single assets can be overridden.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # document stylesheet
//	└── templates/
//	    └── {name}/
//	        ├── header.html      # running header page
//	        └── footer.html      # running footer page
//
// Header and footer pages are html/template sources rendered with
// PageData before being staged next to the document.
//
// # Security
//
// Asset names are validated to prevent path traversal.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets

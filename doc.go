// Package blockdoc assembles blocks of text into an HTML document and
// converts it to PDF or an image with an external renderer.
//
// # Quick Start
//
// Build a block tree, wrap it in a document and save it through a backend:
//
//	md, err := blockdoc.NewMarkdown(`
//	    # Quarterly report
//
//	    Revenue is **up**.
//	`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc := blockdoc.NewDocument(
//	    blockdoc.NewContainer(md, blockdoc.NewPre("raw numbers")),
//	    blockdoc.WithTitle("Q3"),
//	)
//
//	conv, err := blockdoc.NewConverter("wkhtmltopdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := doc.Save(ctx, conv, blockdoc.DefaultSettings(), "q3.pdf",
//	    blockdoc.WithPageSize(blockdoc.PageA4),
//	    blockdoc.WithOrientation(blockdoc.Landscape),
//	)
//
// # Text Blocks
//
// A text block holds a string and a kind. Raw, Pre and Span blocks insert
// their content as is inside <div>, <pre> and <span>; Markdown blocks convert
// it with goldmark first. Content is dedented by default, so indented Go raw
// strings read naturally. NewText accepts content of any type, as decoded
// from YAML, and fails with ErrContentType for anything but a string.
//
// # Conversion Pipeline
//
// Save follows these stages:
//
//  1. Render the document to HTML (golang.org/x/net/html)
//  2. Stage it in Settings.TempHTMLDir as <id prefix>.html
//  3. Resolve the renderer: $VIRTUAL_ENV/bin, $CONDA_PREFIX/bin or the
//     directory of the running binary first, then PATH
//  4. Run the renderer and wait for it, capturing stdout and stderr
//  5. Check the output file (PDF page count, image header)
//  6. Remove staged files, unless Settings.RemoveTempFiles is false
//
// A renderer exiting non-zero yields an *ExecError holding the command
// line and both streams. Every conversion error is a *ConversionError naming
// the backend and stage.
//
// # Backends
//
// NewConverter accepts "wkhtmltopdf" (alias "pdf"), "wkhtmltoimage" (alias
// "image") and "chrome". The image backend picks its format from the output
// extension: .png, .jpg, .bmp or .svg.
//
// # Custom Assets
//
// Override built-in styles and header/footer templates using AssetLoader:
//
//	loader, err := blockdoc.NewAssetLoader("/path/to/assets")
//	doc := blockdoc.NewDocument(root, blockdoc.WithAssetLoader(loader),
//	    blockdoc.WithStylesheet("corporate"))
//
// Asset directory structure:
//
//	assets/
//	├── styles/
//	│   └── corporate.css
//	└── templates/
//	    └── corporate/
//	        ├── header.html
//	        └── footer.html
package blockdoc

package assets

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// Styles lists the built-in style names, for hints and help output.
func Styles() []string {
	return defaultLoader.Styles()
}

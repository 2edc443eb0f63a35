package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// rewrittenAttrs lists, per element, the attribute holding a resource path.
// Media elements are left alone: neither PDF nor image output plays them.
var rewrittenAttrs = map[string]string{
	"img":  "src",
	"a":    "href",
	"link": "href",
}

// RewriteRelativePaths converts relative resource paths in an HTML fragment
// or document to absolute file:// URLs rooted at sourceDir.
// If sourceDir is empty, returns the HTML unchanged.
func RewriteRelativePaths(htmlContent, sourceDir string) (string, error) {
	if sourceDir == "" {
		return htmlContent, nil
	}

	if isFullDocument(htmlContent) {
		doc, err := html.Parse(strings.NewReader(htmlContent))
		if err != nil {
			return "", err
		}
		if err := RewriteTree(doc, sourceDir); err != nil {
			return "", err
		}
		var buf strings.Builder
		if err := html.Render(&buf, doc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	nodes, err := ParseFragment(htmlContent, nil)
	if err != nil {
		return "", err
	}
	for _, n := range nodes {
		if err := RewriteTree(n, sourceDir); err != nil {
			return "", err
		}
	}
	return RenderNodes(nodes)
}

// RewriteTree rewrites relative paths in place for root and its descendants.
// Paths escaping sourceDir are left untouched.
func RewriteTree(root *html.Node, sourceDir string) error {
	if sourceDir == "" {
		return nil
	}
	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return err
	}
	rewriteNode(root, absSourceDir)
	return nil
}

func isFullDocument(content string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	return strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html")
}

func rewriteNode(n *html.Node, sourceDir string) {
	if n.Type == html.ElementNode {
		if key, ok := rewrittenAttrs[n.Data]; ok {
			rewriteAttr(n, key, sourceDir)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, sourceDir)
	}
}

func rewriteAttr(n *html.Node, key, sourceDir string) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativePath(attr.Val) {
			continue
		}

		absPath := filepath.Join(sourceDir, attr.Val)
		if !isPathUnderDir(absPath, sourceDir) {
			continue
		}
		n.Attr[i].Val = pathToFileURL(absPath)
	}
}

// isRelativePath reports whether path is a filesystem path relative to the
// source: not a URL, not an anchor, not absolute.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}
	for _, scheme := range []string{"http://", "https://", "file://", "data:", "mailto:"} {
		if strings.HasPrefix(path, scheme) {
			return false
		}
	}
	return !filepath.IsAbs(path)
}

// isPathUnderDir checks absPath does not escape dir.
func isPathUnderDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}

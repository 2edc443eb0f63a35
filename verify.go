package blockdoc

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	_ "golang.org/x/image/bmp" // register decoder
)

// svgSniffLength bounds how much of an SVG file is searched for the root tag.
const svgSniffLength = 4096

// checkOutputFile fails with ErrOutputMissing unless path is a non-empty
// regular file.
func checkOutputFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputMissing, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrOutputMissing, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrOutputMissing, path)
	}
	return nil
}

// verifyPDF checks that path holds a readable PDF with at least one page.
func verifyPDF(path string) error {
	if err := checkOutputFile(path); err != nil {
		return err
	}
	pages, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputInvalid, path, err)
	}
	if pages < 1 {
		return fmt.Errorf("%w: %s has no pages", ErrOutputInvalid, path)
	}
	return nil
}

// verifyImage checks that path holds an image in the format its extension
// names. Raster formats are checked by decoding the header; SVG by finding
// the root element near the start of the file.
func verifyImage(path string) error {
	if err := checkOutputFile(path); err != nil {
		return err
	}

	f, err := os.Open(path) // #nosec G304 -- path is the converter's own output file
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputMissing, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".svg") {
		head := make([]byte, svgSniffLength)
		n, _ := io.ReadFull(f, head)
		if !bytes.Contains(head[:n], []byte("<svg")) {
			return fmt.Errorf("%w: %s has no <svg> element", ErrOutputInvalid, path)
		}
		return nil
	}

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputInvalid, path, err)
	}
	want, err := ImageFormat(path)
	if err != nil {
		return err
	}
	if format == "jpeg" {
		format = "jpg"
	}
	if format != want {
		return fmt.Errorf("%w: %s holds %s data", ErrOutputInvalid, path, format)
	}
	return nil
}

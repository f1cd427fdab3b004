package ocr

import (
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// PageCount reads the page count from the PDF's own page tree. Scraped
// metadata lies often enough that the timeout budget is never derived
// from it.
func PageCount(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, eris.Wrapf(err, "ocr: open %s", pdfPath)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return 0, eris.Wrapf(err, "ocr: stat %s", pdfPath)
	}

	r, err := pdf.NewReader(f, st.Size())
	if err != nil {
		return 0, eris.Wrapf(err, "ocr: parse %s", pdfPath)
	}
	return r.NumPage(), nil
}

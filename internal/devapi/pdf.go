package devapi

import (
	"bytes"
	"fmt"
	"strings"
)

type pdfPage struct {
	Title string
	Lines []string
}

var pdfEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, "\r", " ", "\n", " ")

// renderPDF writes a minimal letter-size PDF with one text block per page.
// It only exists so the client has real bytes to save; layout is not a goal.
func renderPDF(pages []pdfPage) []byte {
	var objects []string
	// 1: catalog, 2: pages, 3: font, then a page and a content stream per page.
	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+i*2))
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, p := range pages {
		var content bytes.Buffer
		content.WriteString("BT\n/F1 24 Tf\n72 700 Td\n")
		fmt.Fprintf(&content, "(%s) Tj\n", pdfEscaper.Replace(p.Title))
		content.WriteString("/F1 14 Tf\n0 -48 Td\n")
		for _, line := range p.Lines {
			fmt.Fprintf(&content, "(%s) Tj\n0 -24 Td\n", pdfEscaper.Replace(line))
		}
		content.WriteString("ET")
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+i*2),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		)
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return out.Bytes()
}

package pdfstatement

import (
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
)

// extractLinesFromPage extracts ruled line segments from a page's path
// objects. Page borders are dropped so a framed page is not one big table.
func extractLinesFromPage(instance pdfium.Pdfium, page references.FPDF_PAGE, pageWidth, pageHeight float64) ([]Edge, error) {
	countResp, err := instance.FPDFPage_CountObjects(&requests.FPDFPage_CountObjects{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return nil, err
	}

	var edges []Edge

	for i := 0; i < countResp.Count; i++ {
		objResp, err := instance.FPDFPage_GetObject(&requests.FPDFPage_GetObject{
			Page: requests.Page{
				ByReference: &page,
			},
			Index: i,
		})
		if err != nil {
			continue
		}

		typeResp, err := instance.FPDFPageObj_GetType(&requests.FPDFPageObj_GetType{
			PageObject: objResp.PageObject,
		})
		if err != nil || typeResp.Type != enums.FPDF_PAGEOBJ_PATH {
			continue
		}

		boundsResp, err := instance.FPDFPageObj_GetBounds(&requests.FPDFPageObj_GetBounds{
			PageObject: objResp.PageObject,
		})
		if err != nil {
			continue
		}

		// Convert PDF coordinates (origin bottom-left) to standard (origin top-left)
		x0 := float64(boundsResp.Left)
		y0 := pageHeight - float64(boundsResp.Top)
		x1 := float64(boundsResp.Right)
		y1 := pageHeight - float64(boundsResp.Bottom)

		segCountResp, err := instance.FPDFPath_CountSegments(&requests.FPDFPath_CountSegments{
			PageObject: objResp.PageObject,
		})
		if err != nil || segCountResp.Count < 2 {
			continue
		}

		// A move plus a line is a rule; four or more segments is treated as a
		// rectangle. Thin filled rectangles are also rules.
		if segCountResp.Count == 2 {
			if edge := pathToEdge(x0, y0, x1, y1); edge != nil && !isPageBorder(*edge, pageWidth, pageHeight) {
				edges = append(edges, *edge)
			}
			continue
		}

		if edge := pathToEdge(x0, y0, x1, y1); edge != nil {
			if !isPageBorder(*edge, pageWidth, pageHeight) {
				edges = append(edges, *edge)
			}
			continue
		}

		for _, edge := range boundsToEdges(x0, y0, x1, y1) {
			if !isPageBorder(edge, pageWidth, pageHeight) {
				edges = append(edges, edge)
			}
		}
	}

	return edges, nil
}

// isPageBorder checks if an edge is at the page boundary or is a full-page border.
func isPageBorder(edge Edge, pageWidth, pageHeight float64) bool {
	const borderTolerance = 20.0   // points from page edge
	const fullSpanThreshold = 0.90 // 90% of page dimension

	if edge.Orientation == "h" {
		if edge.Top < borderTolerance || edge.Top > pageHeight-borderTolerance {
			return true
		}
		if edge.Width > pageWidth*fullSpanThreshold {
			return true
		}
	}

	if edge.Orientation == "v" {
		if edge.X0 < borderTolerance || edge.X0 > pageWidth-borderTolerance {
			return true
		}
		if edge.Height > pageHeight*fullSpanThreshold {
			return true
		}
	}

	return false
}

// pathToEdge converts a thin box to an edge if it's horizontal or vertical.
func pathToEdge(x0, y0, x1, y1 float64) *Edge {
	width := x1 - x0
	height := y1 - y0

	if height < 2.0 && width > 1.0 {
		mid := (y0 + y1) / 2
		return &Edge{
			X0:          x0,
			X1:          x1,
			Top:         mid,
			Bottom:      mid,
			Width:       width,
			Orientation: "h",
		}
	}

	if width < 2.0 && height > 1.0 {
		mid := (x0 + x1) / 2
		return &Edge{
			X0:          mid,
			X1:          mid,
			Top:         y0,
			Bottom:      y1,
			Height:      height,
			Orientation: "v",
		}
	}

	return nil
}

// boundsToEdges converts a bounding box to four edges (for rectangles).
func boundsToEdges(x0, y0, x1, y1 float64) []Edge {
	return []Edge{
		{X0: x0, X1: x1, Top: y0, Bottom: y0, Width: x1 - x0, Orientation: "h"},
		{X0: x0, X1: x1, Top: y1, Bottom: y1, Width: x1 - x0, Orientation: "h"},
		{X0: x0, X1: x0, Top: y0, Bottom: y1, Height: y1 - y0, Orientation: "v"},
		{X0: x1, X1: x1, Top: y0, Bottom: y1, Height: y1 - y0, Orientation: "v"},
	}
}

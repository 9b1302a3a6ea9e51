package report

import (
	"github.com/go-pdf/fpdf"

	"github.com/bilal/wifiwatch/internal/model"
)

// WritePDF writes a one page report with the summary block and, when
// plotPath is not empty, the time series graph below it.
func WritePDF(path string, sum model.SessionSummary, plotPath string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Wi-Fi Performance Report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Wi-Fi Performance Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Session started "+sum.Start.Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Test Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range summaryLines(sum) {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}

	if plotPath != "" {
		pdf.Ln(4)
		pageW, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		pdf.ImageOptions(plotPath, left, pdf.GetY(), pageW-left-right, 0, false,
			fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
	}

	return pdf.OutputFileAndClose(path)
}

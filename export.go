package main

import (
	"bytes"
	"net/http"

	"acquittals/pkg/export"

	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

func exportExcelHandler(c *gin.Context) {
	d, err := export.Load(c.Request.Context(), db)
	if err != nil {
		serverError(c, "Failed to export Excel file", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteSpreadsheet(&buf, d); err != nil {
		serverError(c, "Failed to export Excel file", err)
		return
	}
	exportsRendered.WithLabelValues("xlsx").Inc()
	audit(c, currentUser(c), "EXPORT", "Exported Excel report")
	c.Header("Content-Disposition", `attachment; filename="chs_acquittals_report.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func exportPDFHandler(c *gin.Context) {
	d, err := export.Load(c.Request.Context(), db)
	if err != nil {
		serverError(c, "Failed to export PDF", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, d); err != nil {
		serverError(c, "Failed to export PDF", err)
		return
	}
	exportsRendered.WithLabelValues("pdf").Inc()
	audit(c, currentUser(c), "EXPORT", "Exported PDF report")
	c.Header("Content-Disposition", `attachment; filename="chs_acquittals_report.pdf"`)
	c.Data(http.StatusOK, pdfContentType, buf.Bytes())
}

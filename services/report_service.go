package services

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"backend_stm/models"

	"github.com/jung-kurt/gofpdf"
)

// ReportOptions are the presentation knobs of the PDF report.
type ReportOptions struct {
	LogoPath string `json:"logo_path"`
}

// ReportService renders a verification record into a paginated PDF
// document. The result table preserves the insertion order of the test
// runner: display order equals execution order.
type ReportService struct {
	options ReportOptions
}

// NewReportService creates a new ReportService.
func NewReportService(options ReportOptions) *ReportService {
	return &ReportService{options: options}
}

// ReportFileName suggests the conventional name for a report file.
func ReportFileName(serialNumber string) string {
	return fmt.Sprintf("Report_%s_%s.pdf", serialNumber, time.Now().Format("20060102"))
}

var departmentSuffix = regexp.MustCompile(`\((.*?)\)$`)

// CreateReport writes the verification report for one device to filePath.
func (rs *ReportService) CreateReport(
	filePath string,
	device *models.Device,
	customer *models.Customer,
	instrument models.InstrumentSnapshot,
	verification *models.Verification,
	technicianName string,
) error {
	results, err := verification.Results()
	if err != nil {
		return fmt.Errorf("unable to decode verification results: %w", err)
	}
	inspection, err := verification.VisualInspection()
	if err != nil {
		return fmt.Errorf("unable to decode visual inspection: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 12, 20)
	pdf.SetAutoPageBreak(true, 25)

	reportDate := displayDate(verification.VerificationDate)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetDrawColor(178, 178, 178)
		pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 8,
			tr(fmt.Sprintf("Dispositivo S/N: %s   |   Verifica del: %s", device.SerialNumber, reportDate)),
			"", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, fmt.Sprintf("Pagina %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	if rs.options.LogoPath != "" {
		if _, err := os.Stat(rs.options.LogoPath); err == nil {
			pdf.ImageOptions(rs.options.LogoPath, 70, pdf.GetY(), 70, 0,
				true, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
			pdf.Ln(4)
		} else {
			log.Printf("Unable to load logo file %s: %v", rs.options.LogoPath, err)
		}
	}

	// Header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 90, 156)
	pdf.CellFormat(0, 9, tr("Report di Verifica di Sicurezza Elettrica"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 6, "(Conforme a CEI EN 62353)", "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr("Data Verifica: "+reportDate), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	rs.deviceSection(pdf, tr, device, verification)
	rs.instrumentSection(pdf, tr, instrument)
	rs.inspectionSection(pdf, tr, inspection)
	rs.resultsSection(pdf, tr, results)
	rs.finalSection(pdf, tr, verification.OverallStatus)

	// Signature block
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	name := technicianName
	if name == "" {
		name = "N/D"
	}
	pdf.CellFormat(85, 6, tr("Tecnico Verificatore: "+name), "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 6, "Firma: ________________________", "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return fmt.Errorf("unable to write report %s: %w", filePath, err)
	}
	log.Printf("✅ Report generated: %s", filePath)
	return nil
}

func (rs *ReportService) sectionHeader(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(0, 90, 156)
	pdf.CellFormat(0, 7, tr(title), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func (rs *ReportService) deviceSection(pdf *gofpdf.Fpdf, tr func(string) string, device *models.Device, verification *models.Verification) {
	rs.sectionHeader(pdf, tr, "Dati Apparecchio")

	// A department tag appended to the description in parentheses is split
	// back out into its own field.
	department := "N/A"
	description := device.Description
	if m := departmentSuffix.FindStringSubmatch(description); m != nil {
		department = m[1]
		description = strings.TrimSpace(strings.TrimSuffix(description, m[0]))
	}

	appliedPartType := "N/D"
	if parts, err := device.AppliedParts(); err == nil && len(parts) > 0 {
		appliedPartType = parts[0].PartType
	}

	rows := [][4]string{
		{"Tipo Apparecchio", description, "Marca/Modello", strings.TrimSpace(device.Manufacturer + " " + device.Model)},
		{"Numero di Serie", device.SerialNumber, "Reparto", department},
		{"Classe Isolamento", verification.ProfileName, "Parte Applicata", appliedPartType},
	}
	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(35, 7, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(50, 7, tr(row[1]), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(35, 7, tr(row[2]), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(50, 7, tr(row[3]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (rs *ReportService) instrumentSection(pdf *gofpdf.Fpdf, tr func(string) string, instrument models.InstrumentSnapshot) {
	rs.sectionHeader(pdf, tr, "Dati Strumento")
	rows := [][2]string{
		{"Strumento", instrument.Instrument},
		{"Matricola", instrument.Serial},
		{"Data Cal.", instrument.CalDate},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(85, 7, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(85, 7, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (rs *ReportService) inspectionSection(pdf *gofpdf.Fpdf, tr func(string) string, inspection models.VisualInspection) {
	rs.sectionHeader(pdf, tr, "Ispezione Visiva")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(242, 242, 242)
	pdf.CellFormat(135, 7, "Controllo", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 7, "Esito", "1", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, item := range inspection.Checklist {
		outcome := "Non Superato"
		if item.Checked {
			outcome = "Superato"
		}
		pdf.CellFormat(135, 7, tr(item.Item), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, tr(outcome), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (rs *ReportService) resultsSection(pdf *gofpdf.Fpdf, tr func(string) string, results []models.TestResult) {
	rs.sectionHeader(pdf, tr, "Misure Elettriche")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(242, 242, 242)
	pdf.CellFormat(65, 7, "Misura", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 7, "Valore Misurato", "1", 0, "L", true, 0, "")
	pdf.CellFormat(42, 7, "Limite Norma", "1", 0, "L", true, 0, "")
	pdf.CellFormat(28, 7, "Esito", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, res := range results {
		limit, unit := splitLimitUnit(res.Limit)
		pdf.CellFormat(65, 7, tr(res.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, tr(strings.TrimSpace(res.Value+" "+unit)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(42, 7, tr(pdfSafe(limit+" "+unit)), "1", 0, "L", false, 0, "")

		outcome := "NON CONFORME"
		if res.Passed {
			outcome = "CONFORME"
			pdf.SetTextColor(15, 81, 50)
		} else {
			pdf.SetTextColor(114, 28, 36)
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(28, 7, outcome, "1", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(6)
}

func (rs *ReportService) finalSection(pdf *gofpdf.Fpdf, tr func(string) string, overallStatus string) {
	rs.sectionHeader(pdf, tr, "Valutazione Finale")
	pdf.Ln(2)
	text := "Apparecchio NON Conforme"
	if overallStatus == models.StatusPassed {
		text = "Apparecchio Conforme"
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetDrawColor(0, 100, 0)
	pdf.CellFormat(0, 12, tr(text), "1", 1, "C", false, 0, "")
	pdf.SetDrawColor(0, 0, 0)
}

// splitLimitUnit separates the trailing measurement unit from a limit
// display string ("≤ 500 µA" -> "≤ 500", "µA").
func splitLimitUnit(limit string) (string, string) {
	if limit == "" || limit == "N/A" || limit == "not specified" {
		return limit, ""
	}
	fields := strings.Fields(limit)
	if len(fields) < 2 {
		return limit, ""
	}
	last := fields[len(fields)-1]
	for _, r := range last {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && r != 'µ' && r != 'Ω' {
			return limit, ""
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(limit, last)), last
}

// pdfSafe substitutes glyphs outside the built-in cp1252 fonts.
func pdfSafe(s string) string {
	return strings.ReplaceAll(s, "≤", "<=")
}

// displayDate renders a stored YYYY-MM-DD date in report form (DD/MM/YYYY).
func displayDate(stored string) string {
	t, err := time.Parse(models.DateLayout, stored)
	if err != nil {
		return stored
	}
	return t.Format("02/01/2006")
}

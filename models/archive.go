package models

// Archive (.stm) document types. The wire format matches the historical
// exporter field for field, including the nested *_json strings, so archives
// keep round-tripping between installations.

const ArchiveFormatVersion = "1.0"

// ArchiveDocument is the top-level structure of an .stm export for one date.
type ArchiveDocument struct {
	ExportFormatVersion  string           `json:"export_format_version"`
	ExportCreationDate   string           `json:"export_creation_date"`
	VerificationsForDate string           `json:"verifications_for_date"`
	Verifications        []ArchivePackage `json:"verifications"`
}

// ArchivePackage is one self-contained verification record with its customer
// and device context.
type ArchivePackage struct {
	Customer            ArchiveCustomer     `json:"customer"`
	Device              ArchiveDevice       `json:"device"`
	VerificationDetails ArchiveVerification `json:"verification_details"`
}

type ArchiveCustomer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type ArchiveDevice struct {
	SerialNumber      string `json:"serial_number"`
	Description       string `json:"description"`
	Manufacturer      string `json:"manufacturer"`
	Model             string `json:"model"`
	AppliedPartsJSON  string `json:"applied_parts_json"`
	CustomerInventory string `json:"customer_inventory"`
	AmsInventory      string `json:"ams_inventory"`
}

type ArchiveVerification struct {
	VerificationDate     string             `json:"verification_date"`
	ProfileName          string             `json:"profile_name"`
	ResultsJSON          string             `json:"results_json"`
	OverallStatus        string             `json:"overall_status"`
	VisualInspectionJSON string             `json:"visual_inspection_json"`
	MTIInfo              InstrumentSnapshot `json:"mti_info"`
}

package domain

// Stage is one named step of the registration workflow.
type Stage string

// Workflow stages in the order an agent walks through them.
const (
	StageValidateCustomer Stage = "validate-customer"
	StageValidateOTP      Stage = "validate-otp"
	StageCreateCustomer   Stage = "create-customer"
	StageUploadDocuments  Stage = "upload-documents"
	StageActivateTag      Stage = "activate-tag"
	StageRegisterTag      Stage = "register-tag"
)

// StageInfo carries the order and display metadata of a stage.
type StageInfo struct {
	Order int
	Label string
	Icon  string
	Color string
}

// unknownStageInfo is returned for stage names this build does not know about.
// Historical aggregates may reference retired stages, so lookups never fail.
var unknownStageInfo = StageInfo{Order: 0, Label: "Unknown", Icon: "help", Color: "#9E9E9E"}

var stageInfos = map[Stage]StageInfo{
	StageValidateCustomer: {Order: 1, Label: "Validate Customer", Icon: "person-check", Color: "#1565C0"},
	StageValidateOTP:      {Order: 2, Label: "Verify OTP", Icon: "shield-lock", Color: "#283593"},
	StageCreateCustomer:   {Order: 3, Label: "Create Account", Icon: "wallet", Color: "#00695C"},
	StageUploadDocuments:  {Order: 4, Label: "Upload Documents", Icon: "camera", Color: "#EF6C00"},
	StageActivateTag:      {Order: 5, Label: "Activate Tag", Icon: "barcode", Color: "#6A1B9A"},
	StageRegisterTag:      {Order: 6, Label: "Register Tag", Icon: "flag-checkered", Color: "#2E7D32"},
}

var stageOrder = []Stage{
	StageValidateCustomer,
	StageValidateOTP,
	StageCreateCustomer,
	StageUploadDocuments,
	StageActivateTag,
	StageRegisterTag,
}

// StageLookup resolves a stage name to its info. Unknown names fall back to a
// default entry instead of failing.
func StageLookup(s Stage) StageInfo {
	if info, ok := stageInfos[s]; ok {
		return info
	}
	return unknownStageInfo
}

// StageOrder returns the position of a stage for progress display. Unknown
// stages report order 0.
func StageOrder(s Stage) int {
	return StageLookup(s).Order
}

// Stages returns all known stages in workflow order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

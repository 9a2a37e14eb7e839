package config

// Analysis defaults.
const (
	BackendLibgit2 = "libgit2"
	BackendGit     = "git"

	DefaultBackend         = BackendLibgit2
	DefaultSince           = ""
	DefaultLimit           = 0
	DefaultFirstParent     = false
	DefaultZeroSpan        = "unit"
	DefaultMalformedCounts = "zero"
)

// Report defaults.
const (
	ReportFormatAuto = "auto"
	ReportFormatPDF  = "pdf"
	ReportFormatHTML = "html"

	DefaultReportOutput = "./git-analysis-report.pdf"
	DefaultReportFormat = ReportFormatAuto
	DefaultReportSeed   = 0
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Telemetry defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultMetricsFile  = ""
)

const (
	configFileName = ".gitanalyzer"
	envPrefix      = "GITANALYZER"
)

package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Tanishka82/nexa-app/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "InsightReport", &InsightTextFormatter{})
	registry.RegisterFormatter("markdown", "InsightReport", &InsightMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResumeAnalysis", &ResumeTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeAnalysis", &ResumeMarkdownFormatter{})
	registry.RegisterFormatter("text", "ExtractResponse", &ExtractTextFormatter{})
	registry.RegisterFormatter("markdown", "ExtractResponse", &ExtractMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter. Pointers to the
// known result types are dereferenced first.
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats in sorted order
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.InsightReport:
		if v != nil {
			return *v
		}
	case *types.ResumeAnalysis:
		if v != nil {
			return *v
		}
	case *types.ExtractResponse:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.InsightReport:
		return "InsightReport"
	case types.ResumeAnalysis:
		return "ResumeAnalysis"
	case types.ExtractResponse:
		return "ExtractResponse"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func writeList(out *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	out.WriteString(title)
	for _, item := range items {
		fmt.Fprintf(out, "- %s\n", item)
	}
	out.WriteString("\n")
}

func salaryLine(r types.SalaryRange) string {
	line := fmt.Sprintf("%s: %.0f - %.0f (median %.0f)", r.Role, r.Min, r.Max, r.Median)
	if r.Location != "" {
		line += ", " + r.Location
	}
	return line
}

// InsightTextFormatter renders an industry insight as plain text
type InsightTextFormatter struct{}

func (f *InsightTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.InsightReport)
	if !ok {
		return "", fmt.Errorf("expected InsightReport, got %T", data)
	}
	insight := report.Insight

	var out strings.Builder
	fmt.Fprintf(&out, "=== INDUSTRY INSIGHT: %s ===\n\n", report.Industry)
	fmt.Fprintf(&out, "Demand Level: %s\n", insight.DemandLevel)
	fmt.Fprintf(&out, "Growth Rate: %.1f%%\n", insight.GrowthRate)
	if insight.MarketOutlook != "" {
		fmt.Fprintf(&out, "Market Outlook: %s\n", insight.MarketOutlook)
	}
	out.WriteString("\n")

	if len(insight.SalaryRanges) > 0 {
		out.WriteString("Salary Ranges:\n")
		for _, r := range insight.SalaryRanges {
			fmt.Fprintf(&out, "- %s\n", salaryLine(r))
		}
		out.WriteString("\n")
	}
	writeList(&out, "Top Skills:\n", insight.TopSkills)
	writeList(&out, "Key Trends:\n", insight.KeyTrends)
	writeList(&out, "Recommended Skills:\n", insight.RecommendedSkills)

	if report.Degenerate {
		out.WriteString("Note: this insight is incomplete and will be regenerated on the next request.\n")
	}
	fmt.Fprintf(&out, "Generated: %s\nNext update: %s\n",
		report.GeneratedAt.Format("2006-01-02 15:04"), report.ExpiresAt.Format("2006-01-02 15:04"))

	return out.String(), nil
}

func (f *InsightTextFormatter) SupportedType() string {
	return "InsightReport"
}

// InsightMarkdownFormatter renders an industry insight as markdown
type InsightMarkdownFormatter struct{}

func (f *InsightMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.InsightReport)
	if !ok {
		return "", fmt.Errorf("expected InsightReport, got %T", data)
	}
	insight := report.Insight

	var out strings.Builder
	fmt.Fprintf(&out, "# Industry Insight: %s\n\n", report.Industry)
	fmt.Fprintf(&out, "**Demand Level:** %s  \n", insight.DemandLevel)
	fmt.Fprintf(&out, "**Growth Rate:** %.1f%%  \n", insight.GrowthRate)
	if insight.MarketOutlook != "" {
		fmt.Fprintf(&out, "**Market Outlook:** %s  \n", insight.MarketOutlook)
	}
	out.WriteString("\n")

	if len(insight.SalaryRanges) > 0 {
		out.WriteString("## Salary Ranges\n\n")
		out.WriteString("| Role | Min | Median | Max | Location |\n")
		out.WriteString("|------|-----|--------|-----|----------|\n")
		for _, r := range insight.SalaryRanges {
			fmt.Fprintf(&out, "| %s | %.0f | %.0f | %.0f | %s |\n", r.Role, r.Min, r.Median, r.Max, r.Location)
		}
		out.WriteString("\n")
	}
	writeList(&out, "## Top Skills\n\n", insight.TopSkills)
	writeList(&out, "## Key Trends\n\n", insight.KeyTrends)
	writeList(&out, "## Recommended Skills\n\n", insight.RecommendedSkills)

	if report.Degenerate {
		out.WriteString("> This insight is incomplete and will be regenerated on the next request.\n\n")
	}
	fmt.Fprintf(&out, "_Generated %s, next update %s_\n",
		report.GeneratedAt.Format("2006-01-02"), report.ExpiresAt.Format("2006-01-02"))

	return out.String(), nil
}

func (f *InsightMarkdownFormatter) SupportedType() string {
	return "InsightReport"
}

// ResumeTextFormatter renders a résumé analysis as plain text
type ResumeTextFormatter struct{}

func (f *ResumeTextFormatter) Format(data any) (string, error) {
	analysis, ok := data.(types.ResumeAnalysis)
	if !ok {
		return "", fmt.Errorf("expected ResumeAnalysis, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== RESUME ANALYSIS ===\n\n")
	fmt.Fprintf(&out, "ATS Score: %d/100\n\n", analysis.ATSScore)
	out.WriteString("Summary:\n")
	out.WriteString(analysis.Summary)
	out.WriteString("\n\n")
	writeList(&out, "Weaknesses:\n", analysis.Weaknesses)
	writeList(&out, "Suggestions:\n", analysis.Suggestions)

	return out.String(), nil
}

func (f *ResumeTextFormatter) SupportedType() string {
	return "ResumeAnalysis"
}

// ResumeMarkdownFormatter renders a résumé analysis as markdown
type ResumeMarkdownFormatter struct{}

func (f *ResumeMarkdownFormatter) Format(data any) (string, error) {
	analysis, ok := data.(types.ResumeAnalysis)
	if !ok {
		return "", fmt.Errorf("expected ResumeAnalysis, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# Resume Analysis\n\n")
	fmt.Fprintf(&out, "**ATS Score:** %d/100\n\n", analysis.ATSScore)
	out.WriteString("## Summary\n\n")
	out.WriteString(analysis.Summary)
	out.WriteString("\n\n")
	writeList(&out, "## Weaknesses\n\n", analysis.Weaknesses)
	writeList(&out, "## Suggestions\n\n", analysis.Suggestions)

	return out.String(), nil
}

func (f *ResumeMarkdownFormatter) SupportedType() string {
	return "ResumeAnalysis"
}

// ExtractTextFormatter prints the validated value followed by any
// degenerate fields.
type ExtractTextFormatter struct{}

func (f *ExtractTextFormatter) Format(data any) (string, error) {
	resp, ok := data.(types.ExtractResponse)
	if !ok {
		return "", fmt.Errorf("expected ExtractResponse, got %T", data)
	}

	value, err := json.MarshalIndent(resp.Value, "", "  ")
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString("=== EXTRACTED VALUE ===\n\n")
	out.Write(value)
	out.WriteString("\n\n")
	if resp.Degenerate {
		fmt.Fprintf(&out, "Degenerate: yes (%s)\n", strings.Join(resp.DegenerateFields, ", "))
	} else {
		out.WriteString("Degenerate: no\n")
	}
	return out.String(), nil
}

func (f *ExtractTextFormatter) SupportedType() string {
	return "ExtractResponse"
}

// ExtractMarkdownFormatter wraps the validated value in a JSON code block
type ExtractMarkdownFormatter struct{}

func (f *ExtractMarkdownFormatter) Format(data any) (string, error) {
	resp, ok := data.(types.ExtractResponse)
	if !ok {
		return "", fmt.Errorf("expected ExtractResponse, got %T", data)
	}

	value, err := json.MarshalIndent(resp.Value, "", "  ")
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString("# Extracted Value\n\n```json\n")
	out.Write(value)
	out.WriteString("\n```\n")
	if resp.Degenerate {
		out.WriteString("\n## Degenerate Fields\n\n")
		for _, field := range resp.DegenerateFields {
			fmt.Fprintf(&out, "- `%s`\n", field)
		}
	}
	return out.String(), nil
}

func (f *ExtractMarkdownFormatter) SupportedType() string {
	return "ExtractResponse"
}

// GlobalRegistry is the registry used by the CLI output handler
var GlobalRegistry = NewFormatterRegistry()

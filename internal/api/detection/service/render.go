package detectionService

import (
	"PotholeGolang/internal/entity"
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// renderReportHTML turns a composed report into the email body. Rendering is
// a pure function of the report so the same report always produces the same
// document regardless of which recipient it goes to.
func renderReportHTML(report *entity.Report, withLogo bool) string {
	view := buildReportView(report, withLogo)

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		// template and view are both built here; execution cannot fail on
		// well-formed input, so fall back to a minimal plain document
		return fmt.Sprintf("<html><body><h1>%s</h1><p>%d pothole(s) detected.</p></body></html>",
			template.HTMLEscapeString(reportSubject), view.Summary.TotalDetections)
	}
	return buf.String()
}

type reportView struct {
	GeneratedAt     string
	ReporterName    string
	ReporterEmail   string
	Summary         entity.ReportSummary
	HighestSevClass string
	ConfidencePct   string
	HasLocation     bool
	LocationText    string
	MapsLink        string
	HasMap          bool
	MapCID          string
	Images          []reportImageView
	Rows            []detectionRowView
	HasLogo         bool
}

type reportImageView struct {
	Index int
	CID   string
}

type detectionRowView struct {
	Image         int
	Number        int
	Class         string
	Severity      entity.Severity
	SeverityClass string
	ConfidencePct string
	SizePct       string
}

func buildReportView(report *entity.Report, withLogo bool) reportView {
	view := reportView{
		GeneratedAt:     report.GeneratedAt.Format("January 2, 2006 at 15:04 MST"),
		ReporterName:    report.ReporterName,
		ReporterEmail:   report.ReporterEmail,
		Summary:         report.Summary,
		HighestSevClass: "severity-" + strings.ToLower(string(report.Summary.HighestSeverity)),
		ConfidencePct:   fmt.Sprintf("%.1f%%", report.Summary.MaxConfidence*100),
		HasLogo:         withLogo,
	}
	if view.ReporterName == "" {
		view.ReporterName = "Unknown User"
	}
	if view.ReporterEmail == "" {
		view.ReporterEmail = "N/A"
	}

	if report.Location != nil {
		view.HasLocation = true
		view.LocationText = report.Location.Address
		if view.LocationText == "" {
			view.LocationText = fmt.Sprintf("%.6f, %.6f", report.Location.Latitude, report.Location.Longitude)
		}
		view.MapsLink = fmt.Sprintf("https://www.google.com/maps?q=%f,%f",
			report.Location.Latitude, report.Location.Longitude)
	}
	if report.MapImage != nil {
		view.HasMap = true
		view.MapCID = report.MapImage.ContentID
	}

	for i, img := range report.Images {
		view.Images = append(view.Images, reportImageView{Index: i + 1, CID: img.ContentID})
	}

	for imageIdx, detections := range report.Detections {
		for detIdx, d := range detections {
			view.Rows = append(view.Rows, detectionRowView{
				Image:         imageIdx + 1,
				Number:        detIdx + 1,
				Class:         d.Class,
				Severity:      d.Severity,
				SeverityClass: "severity-" + strings.ToLower(string(d.Severity)),
				ConfidencePct: fmt.Sprintf("%.1f%%", d.Confidence*100),
				SizePct:       fmt.Sprintf("%.1f%%", d.RelativeSize*100),
			})
		}
	}

	return view
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, Helvetica, sans-serif; color: #222; margin: 0; background: #f4f4f4; }
  .container { max-width: 640px; margin: 0 auto; background: #ffffff; }
  .header { background: #1a1a2e; color: #ffffff; padding: 24px; text-align: center; }
  .header img { max-height: 48px; margin-bottom: 8px; }
  .content { padding: 24px; }
  .stats { width: 100%; border-spacing: 8px; }
  .stat-card { background: #f0f4ff; border-radius: 8px; padding: 16px; text-align: center; }
  .stat-value { font-size: 28px; font-weight: bold; color: #1a1a2e; }
  .stat-label { font-size: 12px; color: #666; text-transform: uppercase; }
  table.details { width: 100%; border-collapse: collapse; margin-top: 16px; }
  table.details th, table.details td { border: 1px solid #ddd; padding: 8px; font-size: 14px; text-align: left; }
  table.details th { background: #1a1a2e; color: #ffffff; }
  .severity-high { color: #c0392b; font-weight: bold; }
  .severity-medium { color: #e67e22; font-weight: bold; }
  .severity-low { color: #27ae60; font-weight: bold; }
  .image-grid img { max-width: 100%; border-radius: 8px; margin-bottom: 12px; }
  .maps-link { display: inline-block; margin-top: 8px; color: #2563eb; }
  .footer { background: #1a1a2e; color: #aaa; padding: 16px; text-align: center; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    {{if .HasLogo}}<img src="cid:brand_logo" alt="FixMyPothole.AI">{{end}}
    <h1>Pothole Detection Report</h1>
    <p>{{.GeneratedAt}}</p>
  </div>
  <div class="content">
    <table class="stats">
      <tr>
        <td class="stat-card">
          <div class="stat-value">{{.Summary.TotalDetections}}</div>
          <div class="stat-label">Potholes Detected</div>
        </td>
        <td class="stat-card">
          <div class="stat-value {{if .Summary.TotalDetections}}{{.HighestSevClass}}{{end}}">{{.Summary.HighestSeverity}}</div>
          <div class="stat-label">Highest Severity</div>
        </td>
        <td class="stat-card">
          <div class="stat-value">{{.ConfidencePct}}</div>
          <div class="stat-label">Max Confidence</div>
        </td>
      </tr>
    </table>

    <h2>Report Information</h2>
    <table class="details">
      <tr><th>Reported By</th><td>{{.ReporterName}}</td></tr>
      <tr><th>Contact Email</th><td>{{.ReporterEmail}}</td></tr>
      <tr><th>Images Analyzed</th><td>{{.Summary.ImageCount}}</td></tr>
      {{if .HasLocation}}<tr><th>Location</th><td>{{.LocationText}}<br><a class="maps-link" href="{{.MapsLink}}">View on Google Maps</a></td></tr>{{end}}
    </table>

    {{if .Rows}}
    <h2>Detection Details</h2>
    <table class="details">
      <tr><th>Image</th><th>#</th><th>Type</th><th>Severity</th><th>Confidence</th><th>Relative Size</th></tr>
      {{range .Rows}}
      <tr>
        <td>{{.Image}}</td>
        <td>{{.Number}}</td>
        <td>{{.Class}}</td>
        <td class="{{.SeverityClass}}">{{.Severity}}</td>
        <td>{{.ConfidencePct}}</td>
        <td>{{.SizePct}}</td>
      </tr>
      {{end}}
    </table>
    {{else}}
    <p>No potholes were detected in the submitted images.</p>
    {{end}}

    {{if .HasMap}}
    <h2>Location Map</h2>
    <div class="image-grid"><img src="cid:{{.MapCID}}" alt="Location map"></div>
    {{end}}

    {{if .Images}}
    <h2>Submitted Images</h2>
    <div class="image-grid">
      {{range .Images}}<img src="cid:{{.CID}}" alt="Detection image {{.Index}}">{{end}}
    </div>
    {{end}}
  </div>
  <div class="footer">
    <p>Generated by FixMyPothole.AI automated road damage reporting</p>
    <p>TECH TITANS</p>
  </div>
</div>
</body>
</html>`))

package detectionService

import (
	"PotholeGolang/internal/api/detection"
	"PotholeGolang/internal/entity"
	"os"
	"strings"
)

const reportSubject = "FixMyPothole.AI - Pothole Detection Report"

// dispatchReport renders the report once and mails it to each distinct
// recipient. Failures are isolated per recipient; aliases that normalize to
// the same address share a single delivery and its result.
func (s *detectionService) dispatchReport(report *entity.Report, recipients []string) map[string]detection.DispatchResult {
	html := renderReportHTML(report, s.hasLogo())

	inline := make([]entity.ImageArtifact, 0, len(report.Images)+2)
	inline = append(inline, report.Images...)
	if report.MapImage != nil {
		inline = append(inline, *report.MapImage)
	}
	if s.hasLogo() {
		inline = append(inline, entity.ImageArtifact{Path: s.cfg.LogoPath, ContentID: "brand_logo"})
	}

	results := make(map[string]detection.DispatchResult, len(recipients))
	delivered := make(map[string]detection.DispatchResult)

	for _, recipient := range recipients {
		normalized := normalizeRecipient(recipient)
		if normalized == "" {
			results[recipient] = detection.DispatchResult{Sent: false, Error: "empty recipient address"}
			continue
		}
		if prior, ok := delivered[normalized]; ok {
			results[recipient] = prior
			continue
		}

		result := detection.DispatchResult{Sent: true}
		if err := s.mailer.SendReport(normalized, reportSubject, html, inline); err != nil {
			s.log.Errorf("report email to %s failed: %v", normalized, err)
			result = detection.DispatchResult{Sent: false, Error: err.Error()}
		} else {
			s.log.Infof("report email sent to %s", normalized)
		}

		delivered[normalized] = result
		results[recipient] = result
	}

	return results
}

// normalizeRecipient canonicalizes an address for dedup: surrounding
// whitespace is dropped, anything from the first '#' on is treated as a
// client-side comment, and the remainder is lowercased. Plus-addressing is
// preserved since mail providers treat user+tag as a distinct mailbox.
func normalizeRecipient(address string) string {
	address = strings.TrimSpace(address)
	if i := strings.IndexByte(address, '#'); i >= 0 {
		address = address[:i]
	}
	return strings.ToLower(strings.TrimSpace(address))
}

func (s *detectionService) hasLogo() bool {
	if s.cfg.LogoPath == "" {
		return false
	}
	info, err := os.Stat(s.cfg.LogoPath)
	return err == nil && !info.IsDir()
}

package enrich

import "github.com/lehen20/dpr-auto/internal/classify"

// fallbackSummary is the deterministic response used when the service is
// unreachable or misconfigured.
func fallbackSummary() ClauseSummary {
	return ClauseSummary{
		Summary:     "Legal clause defining company operational parameters and compliance requirements with regulatory frameworks",
		PurposeTags: []string{"compliance", "governance", "operations"},
		Fallback:    true,
	}
}

// unparsableSummary marks a reachable service whose output could not be parsed.
func unparsableSummary() ClauseSummary {
	return ClauseSummary{
		Summary:     "Unable to summarize clause",
		PurposeTags: []string{"unknown"},
		Fallback:    true,
	}
}

// nullBundle resolves every contract key to null.
func nullBundle(docType classify.DocType, keys []string, raw string) Bundle {
	values := make(map[string]any, len(keys))
	for _, key := range keys {
		values[key] = nil
	}
	return Bundle{
		DocType:     docType,
		Fields:      values,
		Degraded:    true,
		RawResponse: raw,
	}
}

func fallbackSections() []DraftSection {
	return []DraftSection{
		{
			ID:         "proposal",
			Title:      "Proposal",
			Body:       "This Detailed Project Report (DPR) presents the establishment and operational framework of the Special Purpose Vehicle (SPV). The proposed entity will operate within the prescribed regulatory guidelines while maintaining compliance with applicable corporate governance standards. (CoI p.1)",
			SourceRefs: []string{"CoI p.1"},
		},
		{
			ID:         "introduction",
			Title:      "Section 2.1: Introduction",
			Body:       "The SPV has been incorporated to execute specific business objectives as outlined in its Memorandum of Association. The company structure ensures operational efficiency while maintaining transparency in governance and financial management. (MoA p.2)",
			SourceRefs: []string{"MoA p.2"},
		},
		{
			ID:         "spv_info",
			Title:      "Section 3: SPV Information",
			Body:       "The Special Purpose Vehicle operates under the regulatory framework established by the Companies Act, 2013. Corporate governance practices are implemented to ensure stakeholder protection and operational transparency. (CoI p.1, MoA p.3)",
			SourceRefs: []string{"CoI p.1", "MoA p.3"},
		},
		{
			ID:         "management",
			Title:      "Section 7: Management Structure",
			Body:       "The management structure comprises qualified professionals with relevant industry experience. The Board of Directors provides strategic oversight while the executive team manages day-to-day operations. (AoA p.5)",
			SourceRefs: []string{"AoA p.5"},
		},
		{
			ID:         "conclusion",
			Title:      "Section 21: Conclusion",
			Body:       "The SPV structure provides an optimal framework for achieving the stated business objectives while maintaining regulatory compliance. The governance mechanisms ensure accountability and transparency in all operational aspects. (Overall assessment)",
			SourceRefs: []string{"Overall assessment"},
		},
	}
}

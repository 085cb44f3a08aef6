package enrich

// Prompt templates are versioned as a unit; bump PromptVersion when any
// template's wording or output contract changes.
const PromptVersion = "v1"

const clauseSummaryPrompt = `You are a legal document analyzer. Summarize the following clause in exactly 40 words or less, focusing on the key business purpose and compliance requirements.

Raw clause text:
%s

Return a JSON response with:
{
    "summary": "40-word summary here",
    "purpose_tags": ["tag1", "tag2", "tag3"]
}

Purpose tags should be from: ["compliance", "governance", "operations", "financial", "regulatory", "business_activity", "risk_management"]`

const bundleStrictPrompt = `You are a legal document analyzer extracting structured fields from an Indian corporate document of type %q.

Document text:
%s

Return ONLY a JSON object with exactly these keys, using null for any field the text does not resolve:
%s

No prose, no markdown, JSON only.`

const bundleFreeTextPrompt = `Read this Indian corporate document of type %q and report the following fields as a JSON object (null where unknown): %s

Document text:
%s`

const draftSectionsPrompt = `You are a DPR (Detailed Project Report) writer for Indian corporate documentation. Generate professional DPR sections based on the extracted company information.

Company Information:
- SPV Name: %s
- Registration Number: %s
- Company Type: %s
- Main Objectives: %s

Generate the following DPR sections with proper formatting and inline source citations:

1. Proposal (Executive Summary)
2. Section 2.1: Introduction
3. Section 3: SPV Information
4. Section 7: Management Structure
5. Section 21: Conclusion

For each section, include professional business language, relevant details from the company information, source citations in format "(CoI p.1)" or "(MoA p.3)", and compliance with Indian corporate reporting standards.

Return JSON format:
{
    "sections": [
        {
            "id": "proposal",
            "title": "Proposal",
            "body": "Section content with citations...",
            "source_refs": ["CoI p.1", "MoA p.2"]
        }
    ]
}`

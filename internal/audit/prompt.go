package audit

import "fmt"

// promptTemplate fixes the section outline the model must return: executive
// summary, business analysis, five numbered opportunities, phased roadmap,
// projected savings, and next steps.
const promptTemplate = `As an expert business automation consultant, analyze the following business and provide a comprehensive automation audit report:

BUSINESS INFORMATION:
- Name: %s
- Business Type: %s
- Website: %s
- Daily Hours on Repetitive Tasks: %d
- Current Challenges: %s

WEBSITE CONTENT ANALYSIS:
%s

Please provide a detailed, personalized report in the following format:

# Business Automation Audit Report for %s

## Executive Summary
[2-3 sentence overview of automation potential]

## Business Analysis
[Analysis of their business model based on website content and type]

## Top 5 Automation Opportunities

### 1. [Automation Name]
- **What it does:** [Description]
- **Tools needed:** [Specific tools/platforms]
- **Time saved:** [Hours per week]
- **Cost estimate:** [Implementation cost]
- **ROI timeline:** [Payback period]

### 2. [Automation Name]
[Same format for 5 opportunities total]

## Priority Implementation Roadmap
- **Phase 1 (Month 1):** [Quick wins]
- **Phase 2 (Month 2-3):** [Medium complexity]
- **Phase 3 (Month 4-6):** [Advanced automations]

## Projected Annual Savings
- **Time saved:** [Total hours per year]
- **Cost savings:** [Dollar amount]
- **Revenue potential:** [Additional revenue opportunities]

## Next Steps
[Specific actionable recommendations]

Make this report highly specific to their business type, challenges, and website content. Focus on practical, implementable solutions using tools like Make.com, Zapier, AI assistants, and custom workflows.`

// BuildPrompt embeds the intake fields and the (possibly placeholder) site
// text into the audit prompt.
func BuildPrompt(req *Request, siteText string) string {
	return fmt.Sprintf(promptTemplate,
		req.Name, req.BusinessType, req.Website, req.TimeSpentDaily,
		req.CurrentChallenges, siteText, req.Name)
}

package analyzer

import (
	"fmt"
	"strings"

	"vehicle-service/models"
)

const responseSchema = `{
  "description":      "<clear 1-2 sentence description of the problem>",
  "formattedIssue":   "<short issue title>",
  "category":         "<one of: %s>",
  "severity":         "<low | medium | high>",
  "suggestedActions": ["<action 1>", "<action 2>", "<action 3>"],
  "possibleCauses":   ["<cause 1>", "<cause 2>", "<cause 3>"],
  "urgencyLevel":     "<e.g. Immediate, Within 24 hours, Within 1 week, Next service>",
  "estimatedCost":    "<currency range, e.g. $150 - $400>"
}`

const outputRules = `
########################################
# OUTPUT RULES
########################################
* Respond with a **single, valid JSON object** and nothing else. No markdown.
* "category" must be exactly one of the listed values; use "General" if unsure.
* "severity" is "high" when the issue affects safety (brakes, steering, engine failure).
* "suggestedActions" and "possibleCauses" must each hold 3 to 5 short strings.
`

func categoryList() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func schema() string {
	return fmt.Sprintf(responseSchema, categoryList())
}

// BuildTextPrompt asks the model to classify an owner's written or spoken description.
func BuildTextPrompt(text, vehicleModel string) string {
	var b strings.Builder
	b.WriteString("You are an automotive service advisor. A vehicle owner reported a problem with their ")
	b.WriteString(vehicleModel)
	b.WriteString(".\n\nOWNER REPORT:\n")
	b.WriteString(text)
	b.WriteString("\n\nAnalyze the report and return this JSON schema:\n")
	b.WriteString(schema())
	b.WriteString("\n")
	b.WriteString(outputRules)
	return b.String()
}

// BuildImagePrompt asks the model to classify the problem visible on the attached photo.
func BuildImagePrompt(vehicleModel string) string {
	var b strings.Builder
	b.WriteString("You are an automotive service advisor. The attached photo shows a problem with a ")
	b.WriteString(vehicleModel)
	b.WriteString(". Identify any visible damage, leak, warning light, or wear.\n\n")
	b.WriteString("Return this JSON schema:\n")
	b.WriteString(schema())
	b.WriteString("\n")
	b.WriteString(outputRules)
	return b.String()
}

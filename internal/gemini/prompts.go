package gemini

import "fmt"

// Relevance check prompt. Leniency is deliberate: the classifier only
// judges whether the image relates to the task category, not whether
// the task was actually performed.
func relevancePrompt(title, description, verificationDetails string) string {
	task := title
	if description != "" && description != title {
		task = fmt.Sprintf("%s: %s", title, description)
	}

	prompt := fmt.Sprintf(`You are an image classification AI. Your job is to check if an image relates to a specific task category.

Task: %q

IMPORTANT INSTRUCTIONS:
- You only need to check if the image is RELATED to the task category
- You do NOT need to verify active participation or completion
- You do NOT need to check timestamps or dates
- Be LENIENT and HELPFUL to the user

Examples of what to look for:
- For gym/workout tasks: ANY gym environment, gym equipment, fitness area, workout space, gym interior/exterior
- For reading tasks: Books, study materials, library, reading space, educational content
- For cooking tasks: Kitchen, food ingredients, cooking tools, recipes, food preparation area
- For outdoor tasks: Outdoor environments, nature, parks, streets, outdoor activities
- For sleep tasks: Bedroom, bed, sleep tracking apps, alarm clocks
- For study tasks: Study materials, desk setup, educational content, learning environment

Question: Does this image relate to the task category %q?

Respond ONLY in this exact JSON format:
{
  "isValid": true/false,
  "confidence": number_between_0_and_100,
  "analysis": "brief explanation of what you see and why it relates or doesn't relate to the task category"
}`, task, task)

	if verificationDetails != "" {
		prompt += fmt.Sprintf("\n\nAdditional verification hint from the user: %q", verificationDetails)
	}
	return prompt
}

func dateParsingPrompt(phrase, reference string) string {
	return fmt.Sprintf(`Parse the following text that represents a date or time:
%q

Convert it to an ISO 8601 datetime string (YYYY-MM-DDTHH:MM:SS).
Consider the current date as reference for relative dates like "tomorrow" or "next week". The current date is %s.
If no specific time is mentioned, default to 9:00 AM.
Return ONLY the ISO string without any other text or explanation.`, phrase, reference)
}

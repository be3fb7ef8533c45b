package safety

import "fmt"

// promptTemplate instructs the classifier to analyze one URL and answer with
// a bare JSON object in the SafetyVerdict shape. Models still occasionally
// wrap the object in prose, which extractJSONObject tolerates.
const promptTemplate = `Analyze this URL for safety concerns: %q

Consider the following aspects:
1. Is it a known phishing site?
2. Does it contain malware or suspicious redirects?
3. Is it associated with scams or fraud?
4. Does it contain inappropriate content (adult, violence, etc.)?
5. Is the domain suspicious or newly registered?

Respond in JSON format with the following structure:
{
  "isSafe": boolean,
  "flagged": boolean,
  "reason": string or null,
  "category": "safe" | "suspicious" | "malicious" | "inappropriate" | "unknown",
  "confidence": number between 0 and 1
}

Only respond with the JSON object, no additional text.`

func classificationPrompt(rawURL string) string {
	return fmt.Sprintf(promptTemplate, rawURL)
}
